package trust

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"https://www.walmart.com/ip/12345", "walmart.com"},
		{"http://shop.target.com/p/item", "target.com"},
		{"amazon.com", "amazon.com"},
		{"www.bestbuy.com/site/tv", "bestbuy.com"},
		{"https://homedepot.com:443/p/1", "homedepot.com"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RegistrableDomain(tt.input)
			if result != tt.expected {
				t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	p := NewPolicy(Config{})

	tests := []struct {
		name   string
		source string
		want   Tier
	}{
		{"Trusted URL", "https://www.walmart.com/ip/123", TierTrusted},
		{"Trusted bare domain", "target.com", TierTrusted},
		{"Marketplace pattern", "ebay deals", TierUntrusted},
		{"Wholesale reseller", "Shenzhen Wholesale Co.Ltd", TierUntrusted},
		{"Unknown shop", "somelocalshop.com", TierUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.source))
		})
	}
}

func TestIsDirectProductURL(t *testing.T) {
	p := NewPolicy(Config{})

	assert.True(t, p.IsDirectProductURL("https://www.walmart.com/ip/KitchenAid-Mixer/123"))
	assert.True(t, p.IsDirectProductURL("https://www.amazon.com/dp/B0ABC123"))
	assert.True(t, p.IsDirectProductURL("https://www.target.com/p/mixer/-/A-123"))
	// Pattern applies to the path, not the query
	assert.False(t, p.IsDirectProductURL("https://www.walmart.com/search?q=/ip/"))
	assert.False(t, p.IsDirectProductURL("https://www.walmart.com/browse/kitchen"))
	assert.False(t, p.IsDirectProductURL(""))
}

func TestIsBlockedURL(t *testing.T) {
	p := NewPolicy(Config{})

	assert.True(t, p.IsBlockedURL("https://www.google.com/search?q=mixer"))
	assert.True(t, p.IsBlockedURL("https://www.pinterest.com/pin/123"))
	assert.True(t, p.IsBlockedURL("https://shop.example.com/item-out-of-stock"))
	assert.False(t, p.IsBlockedURL("https://www.walmart.com/ip/123"))
	assert.False(t, p.IsBlockedURL(""))
}

func TestFriendlyName(t *testing.T) {
	p := NewPolicy(Config{})

	tests := []struct {
		name     string
		url      string
		fallback string
		want     string
	}{
		{"Mapped retailer", "https://www.homedepot.com/p/123", "shop", "Home Depot"},
		{"Derived from domain", "https://www.zappos.com/product/1", "shop", "Zappos"},
		{"Empty url keeps fallback", "", "LLM Estimate", "LLM Estimate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.FriendlyName(tt.url, tt.fallback))
		})
	}
}

func TestUsable(t *testing.T) {
	p := NewPolicy(Config{})

	assert.True(t, p.Usable("walmart.com", "https://www.walmart.com/ip/123"))
	assert.True(t, p.Usable("somelocalshop.com", "https://somelocalshop.com/item/1"))
	assert.False(t, p.Usable("ebay store", "https://www.ebay.com/itm/1"))
	assert.False(t, p.Usable("walmart.com", "https://www.google.com/search?q=mixer"))
}

func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(Config{
		TrustedDomains: []string{"example.com"},
	})

	// Injected list replaces the default one entirely.
	assert.True(t, p.IsTrusted("https://example.com/p/1"))
	assert.False(t, p.IsTrusted("https://www.walmart.com/ip/123"))
	// Untrusted patterns still fall back to defaults.
	assert.Equal(t, TierUntrusted, p.Classify("ebay outlet"))
}
