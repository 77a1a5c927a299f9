package search

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/httpx"
	"github.com/claimstack/pricing-service/internal/types"
)

// SERPConfig points the adapter at a SerpAPI-compatible shopping endpoint.
type SERPConfig struct {
	Endpoint   string             `mapstructure:"endpoint"`
	APIKey     string             `mapstructure:"api_key"`
	Engine     string             `mapstructure:"engine"`
	Country    string             `mapstructure:"country"`
	MaxResults int                `mapstructure:"max_results"`
	Client     httpx.ClientConfig `mapstructure:"client"`
}

// Defaults fills unset fields.
func (c *SERPConfig) Defaults() {
	if c.Endpoint == "" {
		c.Endpoint = "https://serpapi.com/search.json"
	}
	if c.Engine == "" {
		c.Engine = "google_shopping"
	}
	if c.Country == "" {
		c.Country = "us"
	}
	if c.MaxResults == 0 {
		c.MaxResults = 20
	}
	if c.Client.Retry.MaxAttempts == 0 {
		c.Client = httpx.DefaultClientConfig()
	}
}

// Validate reports a missing API key.
func (c *SERPConfig) Validate() error {
	if c.APIKey == "" {
		return errors.New("search: serp api key is required")
	}
	return nil
}

// SERPProvider queries a Google Shopping SERP API.
type SERPProvider struct {
	cfg  SERPConfig
	http *httpx.Client
	log  zerolog.Logger
}

// NewSERPProvider builds the adapter.
func NewSERPProvider(cfg SERPConfig, log zerolog.Logger) *SERPProvider {
	cfg.Defaults()
	return &SERPProvider{
		cfg:  cfg,
		http: httpx.NewClient(cfg.Client),
		log:  log.With().Str("component", "serp").Logger(),
	}
}

type serpResponse struct {
	ShoppingResults []serpResult `json:"shopping_results"`
	Error           string       `json:"error"`
}

type serpResult struct {
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Source         string  `json:"source"`
	Link           string  `json:"link"`
	ProductLink    string  `json:"product_link"`
	ProductID      string  `json:"product_id"`
	Merchants      []struct {
		Name string `json:"name"`
		Link string `json:"link"`
	} `json:"sellers"`
}

// Search runs one shopping query. The retry policy lives in the HTTP
// layer; exhaustion surfaces as a *httpx.RetryError with an empty slice.
func (p *SERPProvider) Search(ctx context.Context, query string, band PriceBand) ([]types.Offer, error) {
	params := url.Values{}
	params.Set("engine", p.cfg.Engine)
	params.Set("q", query)
	params.Set("gl", p.cfg.Country)
	params.Set("api_key", p.cfg.APIKey)
	params.Set("num", strconv.Itoa(p.cfg.MaxResults))
	if !band.IsZero() {
		params.Set("tbs", "mr:1,price:1,ppr_min:"+strconv.FormatFloat(band.Low, 'f', 0, 64)+
			",ppr_max:"+strconv.FormatFloat(band.High, 'f', 0, 64))
	}

	var resp serpResponse
	if err := p.http.GetJSON(ctx, "search", p.cfg.Endpoint+"?"+params.Encode(), nil, &resp); err != nil {
		p.log.Warn().Err(err).Str("query", query).Msg("provider down")
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("search: " + resp.Error)
	}

	offers := make([]types.Offer, 0, len(resp.ShoppingResults))
	for _, r := range resp.ShoppingResults {
		price := r.ExtractedPrice
		if price <= 0 {
			var ok bool
			if price, ok = ParsePrice(r.Price); !ok {
				continue
			}
		}
		link := r.Link
		if link == "" {
			link = r.ProductLink
		}
		offer := types.Offer{
			Title:     r.Title,
			Price:     price,
			Source:    r.Source,
			Link:      link,
			ProductID: r.ProductID,
		}
		for _, m := range r.Merchants {
			offer.Merchants = append(offer.Merchants, types.Merchant{Name: m.Name, Link: m.Link})
		}
		offers = append(offers, offer)
	}

	p.log.Debug().Str("query", query).Int("offers", len(offers)).Msg("search complete")
	return offers, nil
}
