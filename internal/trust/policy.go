// Package trust classifies retailer domains and URL shapes. The policy is
// pure: all lists are injected as configuration and nothing here holds
// mutable state.
package trust

import (
	"net/url"
	"strings"
)

// Tier is the trust classification of an offer source.
type Tier int

const (
	TierUnknown Tier = iota
	TierTrusted
	TierUntrusted
)

func (t Tier) String() string {
	switch t {
	case TierTrusted:
		return "trusted"
	case TierUntrusted:
		return "untrusted"
	default:
		return "unknown"
	}
}

// Config carries the injected domain lists and pattern tables.
type Config struct {
	// TrustedDomains are registrable retailer domains, e.g. "walmart.com".
	TrustedDomains []string

	// UntrustedPatterns are marketplace/reseller substrings matched against
	// the source label or host, e.g. "ebay", "wholesale".
	UntrustedPatterns []string

	// BlockedURLPatterns disqualify URL shapes outright: search-engine
	// result pages, social media, error pages.
	BlockedURLPatterns []string

	// DirectProductPatterns are retailer product-detail path markers.
	DirectProductPatterns []string

	// FriendlyNames maps a registrable domain to its display name,
	// e.g. "homedepot.com" -> "Home Depot".
	FriendlyNames map[string]string
}

// DefaultConfig returns the compiled-in lists. Hosts normally override
// these from configuration.
func DefaultConfig() Config {
	return Config{
		TrustedDomains: []string{
			"walmart.com", "target.com", "amazon.com", "lowes.com",
			"homedepot.com", "bestbuy.com", "wayfair.com", "costco.com",
			"overstock.com", "kohls.com", "containerstore.com",
			"michaels.com", "hobbylobby.com", "acehardware.com",
			"bedbathandbeyond.com", "ikea.com", "macys.com", "staples.com",
		},
		UntrustedPatterns: []string{
			"ebay", "etsy", "craigslist", "aliexpress", "alibaba", "dhgate",
			"temu", "wish.com", "poshmark", "mercari", "offerup",
			"trading", "co.ltd", "wholesale", "dropship", "seller",
			"marketplace",
		},
		BlockedURLPatterns: []string{
			"google.com/search", "bing.com/search", "duckduckgo.com",
			"facebook.com", "instagram.com", "pinterest.com", "tiktok.com",
			"youtube.com", "reddit.com",
			"unavailable", "error", "not-found", "notfound",
			"out-of-stock", "outofstock", "sorry",
		},
		DirectProductPatterns: []string{
			"/ip/", "/dp/", "/p/", "/pd/", "/site/", "/pdp/",
			"/product/", "/products/", "/item/", "/listing/",
		},
		FriendlyNames: map[string]string{
			"walmart.com":        "Walmart",
			"target.com":         "Target",
			"amazon.com":         "Amazon",
			"lowes.com":          "Lowe's",
			"homedepot.com":      "Home Depot",
			"bestbuy.com":        "Best Buy",
			"wayfair.com":        "Wayfair",
			"costco.com":         "Costco",
			"overstock.com":      "Overstock",
			"kohls.com":          "Kohl's",
			"containerstore.com": "Container Store",
			"michaels.com":       "Michaels",
			"hobbylobby.com":     "Hobby Lobby",
			"acehardware.com":    "Ace Hardware",
			"bedbathandbeyond.com": "Bed Bath & Beyond",
			"ikea.com":           "IKEA",
			"macys.com":          "Macy's",
			"staples.com":        "Staples",
		},
	}
}

// Policy evaluates sources and URLs against the configured lists.
type Policy struct {
	trusted   map[string]bool
	untrusted []string
	blocked   []string
	direct    []string
	friendly  map[string]string
}

// NewPolicy builds a policy from config. Empty lists fall back to the
// compiled defaults so a partially filled config stays safe.
func NewPolicy(cfg Config) *Policy {
	def := DefaultConfig()
	if len(cfg.TrustedDomains) == 0 {
		cfg.TrustedDomains = def.TrustedDomains
	}
	if len(cfg.UntrustedPatterns) == 0 {
		cfg.UntrustedPatterns = def.UntrustedPatterns
	}
	if len(cfg.BlockedURLPatterns) == 0 {
		cfg.BlockedURLPatterns = def.BlockedURLPatterns
	}
	if len(cfg.DirectProductPatterns) == 0 {
		cfg.DirectProductPatterns = def.DirectProductPatterns
	}
	if len(cfg.FriendlyNames) == 0 {
		cfg.FriendlyNames = def.FriendlyNames
	}

	trusted := make(map[string]bool, len(cfg.TrustedDomains))
	for _, d := range cfg.TrustedDomains {
		trusted[strings.ToLower(d)] = true
	}

	lower := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}

	return &Policy{
		trusted:   trusted,
		untrusted: lower(cfg.UntrustedPatterns),
		blocked:   lower(cfg.BlockedURLPatterns),
		direct:    cfg.DirectProductPatterns,
		friendly:  cfg.FriendlyNames,
	}
}

// RegistrableDomain extracts the registrable domain of a URL or bare host.
// "https://www.walmart.com/ip/123" -> "walmart.com".
func RegistrableDomain(raw string) string {
	host := strings.ToLower(strings.TrimSpace(raw))
	if strings.Contains(host, "://") {
		if u, err := url.Parse(host); err == nil && u.Host != "" {
			host = u.Host
		}
	}
	host = strings.TrimPrefix(host, "www.")
	if idx := strings.IndexAny(host, "/?#"); idx >= 0 {
		host = host[:idx]
	}
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	parts := strings.Split(host, ".")
	if len(parts) > 2 {
		host = strings.Join(parts[len(parts)-2:], ".")
	}
	return host
}

// Classify returns the trust tier for a source label or URL.
func (p *Policy) Classify(source string) Tier {
	s := strings.ToLower(source)
	domain := RegistrableDomain(source)
	if p.trusted[domain] {
		return TierTrusted
	}
	for _, pat := range p.untrusted {
		if strings.Contains(s, pat) {
			return TierUntrusted
		}
	}
	return TierUnknown
}

// IsTrusted reports whether a source or URL resolves to a trusted retailer.
func (p *Policy) IsTrusted(source string) bool {
	return p.Classify(source) == TierTrusted
}

// IsBlockedURL reports whether the URL shape disqualifies an offer:
// search result pages, social media and error pages.
func (p *Policy) IsBlockedURL(raw string) bool {
	if raw == "" {
		return false
	}
	s := strings.ToLower(raw)
	for _, pat := range p.blocked {
		if strings.Contains(s, pat) {
			return true
		}
	}
	return false
}

// IsDirectProductURL reports whether the URL path matches a retailer
// product-detail pattern.
func (p *Policy) IsDirectProductURL(raw string) bool {
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	path := strings.ToLower(u.Path)
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	for _, pat := range p.direct {
		if strings.Contains(path, pat) {
			return true
		}
	}
	return false
}

// FriendlyName returns the display name for the URL's registrable domain,
// falling back to the domain itself, then to the given label.
func (p *Policy) FriendlyName(rawURL, fallback string) string {
	domain := RegistrableDomain(rawURL)
	if domain == "" {
		return fallback
	}
	if name, ok := p.friendly[domain]; ok {
		return name
	}
	if p.trusted[domain] || strings.Contains(domain, ".") {
		// Derive a readable name from the domain label.
		label := strings.SplitN(domain, ".", 2)[0]
		if label != "" {
			return strings.ToUpper(label[:1]) + label[1:]
		}
	}
	return fallback
}

// Usable reports whether an offer from the given source and URL may be
// promoted to Found. Unknown sources can rank but never qualify.
func (p *Policy) Usable(source, rawURL string) bool {
	if p.Classify(source) == TierUntrusted {
		return false
	}
	if p.IsBlockedURL(rawURL) {
		return false
	}
	return true
}
