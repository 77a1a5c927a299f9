package search

import (
	"context"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/types"
)

// CachedProvider memoizes successful searches by (normalized query, band).
// Failures are never cached, so a provider recovering mid-job is picked
// up immediately.
type CachedProvider struct {
	inner Provider
	cache *cache.Cache
}

// NewCachedProvider wraps a provider with the offer cache.
func NewCachedProvider(inner Provider, c *cache.Cache) *CachedProvider {
	return &CachedProvider{inner: inner, cache: c}
}

// Search consults the cache before the wrapped provider.
func (p *CachedProvider) Search(ctx context.Context, query string, band PriceBand) ([]types.Offer, error) {
	key := "serp|" + textnorm.Key(query) + "|" + band.Key()
	if p.cache != nil {
		if v, ok := p.cache.Get(key); ok {
			return v.([]types.Offer), nil
		}
	}

	offers, err := p.inner.Search(ctx, query, band)
	if err != nil {
		return nil, err
	}
	if p.cache != nil {
		p.cache.Set(key, offers)
	}
	return offers, nil
}
