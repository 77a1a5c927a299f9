package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serpFixture() map[string]any {
	return map[string]any{
		"shopping_results": []map[string]any{
			{
				"title":           "KitchenAid Artisan 5qt Stand Mixer",
				"price":           "$249.99",
				"extracted_price": 249.99,
				"source":          "Walmart",
				"link":            "https://www.walmart.com/ip/123",
				"product_id":      "123",
				"sellers": []map[string]any{
					{"name": "Walmart", "link": "https://www.walmart.com/ip/123"},
				},
			},
			{
				"title":  "Stand Mixer (price only string)",
				"price":  "$89.00",
				"source": "Target",
				"link":   "https://www.target.com/p/mixer",
			},
			{
				"title":  "Unpriced listing",
				"source": "ebay",
			},
		},
	}
}

func TestSERPProviderSearch(t *testing.T) {
	var gotQuery, gotTBS string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotTBS = r.URL.Query().Get("tbs")
		json.NewEncoder(w).Encode(serpFixture())
	}))
	defer srv.Close()

	p := NewSERPProvider(SERPConfig{Endpoint: srv.URL, APIKey: "k"}, zerolog.Nop())

	offers, err := p.Search(context.Background(), "kitchenaid mixer", Band(250, 50))
	require.NoError(t, err)

	assert.Equal(t, "kitchenaid mixer", gotQuery)
	assert.Contains(t, gotTBS, "ppr_min:125")
	assert.Contains(t, gotTBS, "ppr_max:375")

	// Unpriced listing is dropped.
	require.Len(t, offers, 2)
	assert.Equal(t, 249.99, offers[0].Price)
	assert.Equal(t, "https://www.walmart.com/ip/123", offers[0].Link)
	require.Len(t, offers[0].Merchants, 1)
	assert.Equal(t, "Walmart", offers[0].Merchants[0].Name)
	// String price parsed when extracted_price is absent.
	assert.Equal(t, 89.0, offers[1].Price)
}

func TestSERPProviderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"error": "Invalid API key"})
	}))
	defer srv.Close()

	p := NewSERPProvider(SERPConfig{Endpoint: srv.URL, APIKey: "bad"}, zerolog.Nop())

	_, err := p.Search(context.Background(), "mixer", PriceBand{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}

func TestSERPConfigDefaults(t *testing.T) {
	var c SERPConfig
	c.Defaults()

	assert.Equal(t, "https://serpapi.com/search.json", c.Endpoint)
	assert.Equal(t, "google_shopping", c.Engine)
	assert.Equal(t, "us", c.Country)
	assert.Equal(t, 20, c.MaxResults)
	assert.Error(t, c.Validate())

	c.APIKey = "k"
	assert.NoError(t, c.Validate())
}
