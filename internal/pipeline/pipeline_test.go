package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimstack/pricing-service/internal/category"
	"github.com/claimstack/pricing-service/internal/enhance"
	"github.com/claimstack/pricing-service/internal/estimate"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/query"
	"github.com/claimstack/pricing-service/internal/rank"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/trust"
	"github.com/claimstack/pricing-service/internal/types"
)

// scriptedProvider returns canned offers per normalized query text.
type scriptedProvider struct {
	offers  map[string][]types.Offer
	err     error
	panics  bool
	queries []string
}

func (s *scriptedProvider) Search(ctx context.Context, q string, band search.PriceBand) ([]types.Offer, error) {
	if s.panics {
		panic("provider blew up")
	}
	s.queries = append(s.queries, q)
	if s.err != nil {
		return nil, s.err
	}
	return s.offers[q], nil
}

type scriptedCompleter struct {
	reply string
	err   error
}

func (s scriptedCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	return s.reply, s.err
}

// failingCompleter makes the enhancer return descriptions unchanged, which
// keeps query texts predictable.
var failingCompleter = scriptedCompleter{err: errors.New("llm offline")}

func newTestPipeline(provider search.Provider, estCompleter llm.Completer) *Pipeline {
	log := zerolog.Nop()
	policy := trust.NewPolicy(trust.Config{})
	table := category.LoadTable("", log)

	return New(
		Config{},
		provider,
		resolve.New(policy, nil, resolve.Config{}, log),
		enhance.New(failingCompleter, nil, log),
		estimate.New(estCompleter, nil, estimate.Config{}, log),
		policy,
		query.NewBuilder(query.Config{}),
		rank.New(policy, rank.DefaultWeights()),
		category.New(table, nil, nil, log),
		log,
	)
}

func price(v float64) *float64 { return &v }

func TestProcessRowQuickMatchFound(t *testing.T) {
	provider := &scriptedProvider{offers: map[string][]types.Offer{
		"KitchenAid KSM150 stand mixer": {
			{
				Title:  "KitchenAid KSM150 Artisan Stand Mixer",
				Price:  279.99,
				Source: "Walmart",
				Link:   "https://www.walmart.com/ip/ksm150/123",
			},
		},
	}}
	p := newTestPipeline(provider, failingCompleter)

	brand, model := "KitchenAid", "KSM150"
	res := p.ProcessRow(context.Background(), types.Row{
		RowIndex:      0,
		Description:   "stand mixer",
		Qty:           1,
		PurchasePrice: price(300),
		Brand:         &brand,
		Model:         &model,
	})

	assert.Equal(t, types.StatusFound, res.Status)
	assert.Equal(t, 279.99, res.Price)
	assert.Equal(t, 279.99, res.Total)
	assert.Equal(t, "Walmart", res.Source)
	assert.Equal(t, "https://www.walmart.com/ip/ksm150/123", res.URL)
	assert.Equal(t, "Exact", res.MatchQuality)
	assert.Equal(t, types.TierSERP, res.PricingTier)
	assert.Nil(t, res.LLMEstimate)
	// Single authoritative query.
	assert.Equal(t, []string{"KitchenAid KSM150 stand mixer"}, provider.queries)
	// Mixer classifies without any LLM.
	assert.Equal(t, "KCW - KITCHEN (STORAGE)", res.DepCategory)
}

func TestProcessRowEnrichedEstimated(t *testing.T) {
	// Direct-path link on an unknown shop: ranks, resolves as direct, but
	// never qualifies as Found.
	offer := types.Offer{
		Title:  "KitchenAid stand mixer",
		Price:  250,
		Source: "shopzone.com",
		Link:   "https://www.shopzone.com/item/5",
	}
	provider := &scriptedProvider{offers: map[string][]types.Offer{
		"KitchenAid stand mixer": {offer},
	}}
	p := newTestPipeline(provider, failingCompleter)

	brand := "KitchenAid"
	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "stand mixer",
		Qty:           1,
		PurchasePrice: price(250),
		Brand:         &brand,
	})

	assert.Equal(t, types.StatusEstimated, res.Status)
	assert.Equal(t, 250.0, res.Price)
	assert.Equal(t, "Similar", res.MatchQuality)
	assert.Equal(t, types.TierSERP, res.PricingTier)
	assert.Equal(t, "https://www.shopzone.com/item/5", res.URL)
	assert.Equal(t, "Shopzone", res.Source)
}

func TestProcessRowToleranceFallbackFound(t *testing.T) {
	provider := &scriptedProvider{offers: map[string][]types.Offer{
		"full size ironing board iron rest": {
			{
				Title:  "Full Size Ironing Board with Iron Rest",
				Price:  42,
				Source: "Walmart",
				Link:   "https://www.walmart.com/ip/ironing-board/77",
			},
		},
	}}
	p := newTestPipeline(provider, failingCompleter)

	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "Iron And Ironing Board",
		Qty:           1,
		PurchasePrice: price(40),
	})

	assert.Equal(t, types.StatusFound, res.Status)
	assert.Equal(t, 42.0, res.Price)
	assert.Equal(t, "Walmart", res.Source)
	assert.Equal(t, types.TierSERP, res.PricingTier)
	assert.Contains(t, res.Trace.Validation, "tolerance fallback")
}

func TestProcessRowProviderDownMarketSearch(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("503 from provider")}
	p := newTestPipeline(provider, failingCompleter)

	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "table lamp",
		Qty:           2,
		PurchasePrice: price(60),
	})

	assert.Equal(t, types.StatusEstimated, res.Status)
	assert.Equal(t, types.TierFallback, res.PricingTier)
	assert.Equal(t, "Market Search", res.MatchQuality)
	// Anchored on the purchase price when no offer was ever seen.
	assert.Equal(t, 60.0, res.Price)
	assert.Equal(t, 120.0, res.Total)
	// Lamp routes to the household retailer's site search.
	assert.Contains(t, res.URL, "target.com")
	assert.Equal(t, "Target", res.Source)
}

func TestProcessRowSubFloorEstimateFallsToPurchasePrice(t *testing.T) {
	// A sub-dime estimate with no offers ever seen leaves market search
	// without an anchor, so the row lands on the terminal tier.
	provider := &scriptedProvider{err: errors.New("down")}
	est := scriptedCompleter{reply: `{"price": 0.05, "confidence": "low", "reasoning": "junk"}`}
	p := newTestPipeline(provider, est)

	res := p.ProcessRow(context.Background(), types.Row{
		Description: "paper clip",
		Qty:         1,
	})

	assert.Equal(t, types.StatusEstimated, res.Status)
	assert.Equal(t, types.TierFallback, res.PricingTier)
	assert.Equal(t, "Purchase Price", res.MatchQuality)
	assert.Equal(t, types.MinOfferPrice, res.Price)
	assert.Equal(t, "purchase price fallback", res.Trace.Validation)
}

func TestProcessRowEstimatorTarget(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("down")}
	est := scriptedCompleter{reply: `{"price": 120, "confidence": "medium", "reasoning": "typical"}`}
	p := newTestPipeline(provider, est)

	res := p.ProcessRow(context.Background(), types.Row{
		Description: "mystery gadget",
		Qty:         1,
	})

	require.NotNil(t, res.LLMEstimate)
	assert.Equal(t, 120.0, res.LLMEstimate.Price)
	assert.Equal(t, types.ConfidenceMedium, res.LLMEstimate.Confidence)
	assert.Equal(t, 120.0, res.Price)
	assert.Equal(t, 120.0, res.CostToReplace)
	assert.Equal(t, types.TierFallback, res.PricingTier)
}

func TestProcessRowPanicRecovered(t *testing.T) {
	provider := &scriptedProvider{panics: true}
	p := newTestPipeline(provider, failingCompleter)

	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "toaster",
		Qty:           1,
		PurchasePrice: price(35),
	})

	assert.Equal(t, types.StatusEstimated, res.Status)
	assert.Equal(t, types.TierFallback, res.PricingTier)
	assert.Equal(t, "Purchase Price", res.MatchQuality)
	assert.Equal(t, 35.0, res.Price)
	assert.NotEmpty(t, res.URL)
}

func TestProcessRowQtyMultipliesTotals(t *testing.T) {
	provider := &scriptedProvider{offers: map[string][]types.Offer{
		"Acme widget": {
			{Title: "Acme widget", Price: 10, Source: "Walmart", Link: "https://www.walmart.com/ip/9"},
		},
	}}
	p := newTestPipeline(provider, failingCompleter)

	brand := "Acme"
	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "widget",
		Qty:           3,
		PurchasePrice: price(12),
		Brand:         &brand,
	})

	assert.Equal(t, 10.0, res.Price)
	assert.Equal(t, 30.0, res.Total)
	assert.Equal(t, 36.0, res.CostToReplace)
}

func TestProcessRowZeroQtyCoerced(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("down")}
	p := newTestPipeline(provider, failingCompleter)

	res := p.ProcessRow(context.Background(), types.Row{
		Description:   "toaster",
		Qty:           0,
		PurchasePrice: price(20),
	})

	assert.Equal(t, res.Price, res.Total)
}

func TestRetailerFor(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"cordless drill", "homedepot.com"},
		{"55 inch tv", "bestbuy.com"},
		{"sectional couch", "wayfair.com"},
		{"bath towels", "target.com"},
		{"random thing", "walmart.com"},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, retailerFor(tt.description))
		})
	}
}
