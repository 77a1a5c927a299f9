// Package resolve upgrades catalog and search URLs to direct product
// URLs. Resolution is best-effort: every failure keeps the input URL.
package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/trust"
	"github.com/claimstack/pricing-service/internal/types"
)

const (
	maxRedirects   = 5
	defaultTimeout = 8 * time.Second
)

var catalogPatterns = []string{
	"/s/", "/search", "/category", "?q=", "&q=", "/browse", "/catalog",
}

// ProductLookup optionally resolves a provider product_id to a trusted
// seller's direct link. A zero return means no upgrade.
type ProductLookup interface {
	Lookup(ctx context.Context, productID string) (link string, err error)
}

// Config bounds the resolver.
type Config struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// Resolver follows redirects and product-id lookups to find direct URLs.
type Resolver struct {
	policy  *trust.Policy
	lookup  ProductLookup
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// New builds a resolver. lookup may be nil.
func New(policy *trust.Policy, lookup ProductLookup, cfg Config, log zerolog.Logger) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return errors.New("too many redirects")
			}
			return nil
		},
	}
	return &Resolver{
		policy:  policy,
		lookup:  lookup,
		client:  client,
		timeout: timeout,
		log:     log.With().Str("component", "resolver").Logger(),
	}
}

// IsCatalogURL reports whether the URL looks like a listing rather than a
// product page. A path matching a direct-product pattern is never a
// catalog, whatever else it contains.
func (r *Resolver) IsCatalogURL(raw string) bool {
	if raw == "" || r.policy.IsDirectProductURL(raw) {
		return false
	}
	s := strings.ToLower(raw)
	for _, p := range catalogPatterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Resolve attempts to turn raw into a direct product URL. It returns the
// final URL and whether it is direct. Already-direct URLs return as-is.
func (r *Resolver) Resolve(ctx context.Context, offer types.Offer) (string, bool) {
	raw := offer.Link

	if r.policy.IsDirectProductURL(raw) {
		return raw, true
	}

	// A provider product id can anchor to a trusted seller without any
	// fetching.
	if offer.ProductID != "" && r.lookup != nil {
		if link, err := r.lookup.Lookup(ctx, offer.ProductID); err == nil && link != "" {
			if r.policy.IsDirectProductURL(link) && r.policy.IsTrusted(link) {
				return link, true
			}
		}
	}

	// A trusted merchant link beats chasing redirects.
	for _, m := range offer.Merchants {
		if m.Link != "" && r.policy.IsDirectProductURL(m.Link) && r.policy.IsTrusted(m.Link) {
			return m.Link, true
		}
	}

	if raw == "" {
		return raw, false
	}

	final, ok := r.followRedirects(ctx, raw)
	if ok && r.policy.IsDirectProductURL(final) {
		return final, true
	}
	return raw, false
}

func (r *Resolver) followRedirects(ctx context.Context, raw string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, raw, nil)
	if err != nil {
		return raw, false
	}
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Debug().Err(err).Str("url", raw).Msg("redirect follow failed")
		return raw, false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return raw, false
	}
	if resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String(), true
	}
	return raw, false
}

// SearchURL constructs a retailer site-search URL for the fallback tiers.
func SearchURL(domain, query string) string {
	q := url.QueryEscape(strings.TrimSpace(query))
	switch domain {
	case "walmart.com":
		return "https://www.walmart.com/search?q=" + q
	case "target.com":
		return "https://www.target.com/s?searchTerm=" + q
	case "amazon.com":
		return "https://www.amazon.com/s?k=" + q
	case "homedepot.com":
		return "https://www.homedepot.com/s/" + q
	case "lowes.com":
		return "https://www.lowes.com/search?searchTerm=" + q
	case "bestbuy.com":
		return "https://www.bestbuy.com/site/searchpage.jsp?st=" + q
	case "wayfair.com":
		return "https://www.wayfair.com/keyword.php?keyword=" + q
	default:
		return "https://www." + domain + "/search?q=" + q
	}
}
