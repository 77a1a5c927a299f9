// Package pipeline runs the per-row pricing state machine. One call to
// ProcessRow owns the row end to end and always emits exactly one result,
// whatever the providers do.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/category"
	"github.com/claimstack/pricing-service/internal/enhance"
	"github.com/claimstack/pricing-service/internal/estimate"
	"github.com/claimstack/pricing-service/internal/query"
	"github.com/claimstack/pricing-service/internal/rank"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/trust"
	"github.com/claimstack/pricing-service/internal/types"
)

// Config bounds one pipeline instance.
type Config struct {
	// TolerancePct is the half-width of the price band as a percentage
	// of the target price.
	TolerancePct float64 `mapstructure:"tolerance_pct"`

	// WideTolerancePct is the widened band used by the tolerance
	// fallback tier.
	WideTolerancePct float64 `mapstructure:"wide_tolerance_pct"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.TolerancePct <= 0 {
		c.TolerancePct = 50
	}
	if c.WideTolerancePct <= 0 {
		c.WideTolerancePct = 100
	}
}

// Pipeline wires the providers and policies for row processing. All
// fields are read-only after construction, so one instance serves every
// worker.
type Pipeline struct {
	cfg         Config
	provider    search.Provider
	resolver    *resolve.Resolver
	enhancer    *enhance.Enhancer
	estimator   *estimate.Estimator
	policy      *trust.Policy
	builder     *query.Builder
	ranker      *rank.Ranker
	categorizer *category.Categorizer
	log         zerolog.Logger
}

// New assembles a pipeline.
func New(
	cfg Config,
	provider search.Provider,
	resolver *resolve.Resolver,
	enhancer *enhance.Enhancer,
	estimator *estimate.Estimator,
	policy *trust.Policy,
	builder *query.Builder,
	ranker *rank.Ranker,
	categorizer *category.Categorizer,
	log zerolog.Logger,
) *Pipeline {
	cfg.Defaults()
	return &Pipeline{
		cfg:         cfg,
		provider:    provider,
		resolver:    resolver,
		enhancer:    enhancer,
		estimator:   estimator,
		policy:      policy,
		builder:     builder,
		ranker:      ranker,
		categorizer: categorizer,
		log:         log.With().Str("component", "pipeline").Logger(),
	}
}

// state names the row state machine positions.
type state int

const (
	stateEnhance state = iota
	stateQuickMatch
	stateEnrichedSearch
	stateResolve
	stateClassify
	stateToleranceFallback
	stateMarketSearch
	statePurchasePriceFallback
	stateEmit
)

func (s state) String() string {
	switch s {
	case stateEnhance:
		return "enhance"
	case stateQuickMatch:
		return "quick_match"
	case stateEnrichedSearch:
		return "enriched_search"
	case stateResolve:
		return "resolve"
	case stateClassify:
		return "classify"
	case stateToleranceFallback:
		return "tolerance_fallback"
	case stateMarketSearch:
		return "market_search"
	case statePurchasePriceFallback:
		return "purchase_price_fallback"
	default:
		return "emit"
	}
}

// rowState is the per-row working set, owned by exactly one worker.
type rowState struct {
	row    types.Row
	target float64

	estimate *types.LLMEstimate
	enhanced string
	quick    string
	facts    types.Facts
	strategy types.Strategy

	band     search.PriceBand
	ranking  rank.Result
	pick     rank.Ranked
	hasPick  bool
	bestSeen float64

	finalURL string
	direct   bool

	status       types.Status
	price        float64
	source       string
	matchQuality string
	tier         types.PricingTier

	trace types.Trace
}

// ProcessRow prices one row. It never returns an error: panics and
// provider failures degrade to a purchase-price estimate.
func (p *Pipeline) ProcessRow(ctx context.Context, row types.Row) (result types.PricingResult) {
	start := time.Now()
	st := &rowState{row: row}

	defer func() {
		if r := recover(); r != nil {
			panicsRecovered.Inc()
			p.log.Error().Interface("panic", r).Int("row", row.RowIndex).Msg("row panic recovered")
			p.purchasePriceFallback(st)
			result = p.emit(ctx, st)
		}
		rowsProcessed.WithLabelValues(result.Status.String()).Inc()
		rowDuration.Observe(time.Since(start).Seconds())
	}()

	for s := stateEnhance; s != stateEmit; {
		stateTransitions.WithLabelValues(s.String()).Inc()
		switch s {
		case stateEnhance:
			p.enhanceRow(ctx, st)
			s = stateQuickMatch
		case stateQuickMatch:
			if p.quickMatch(ctx, st) {
				s = stateEmit
			} else {
				s = stateEnrichedSearch
			}
		case stateEnrichedSearch:
			p.enrichedSearch(ctx, st)
			s = stateResolve
		case stateResolve:
			p.resolvePick(ctx, st)
			s = stateClassify
		case stateClassify:
			if p.classify(st) {
				s = stateEmit
			} else {
				s = stateToleranceFallback
			}
		case stateToleranceFallback:
			if p.toleranceFallback(ctx, st) {
				s = stateEmit
			} else {
				s = stateMarketSearch
			}
		case stateMarketSearch:
			if p.marketSearch(st) {
				s = stateEmit
			} else {
				s = statePurchasePriceFallback
			}
		case statePurchasePriceFallback:
			p.purchasePriceFallback(st)
			s = stateEmit
		}
	}

	return p.emit(ctx, st)
}

// emit finalizes the result: totals, source override, categorization and
// trace.
func (p *Pipeline) emit(ctx context.Context, st *rowState) types.PricingResult {
	row := st.row
	qty := row.Qty
	if qty < 1 {
		qty = 1
	}

	price := types.Round2(st.price)
	total := types.Round2(price * float64(qty))

	// The source label always follows the final URL's domain.
	source := st.source
	if st.finalURL != "" {
		source = p.policy.FriendlyName(st.finalURL, source)
	}

	cat := p.categorizer.Categorize(ctx, row.Description, row.BrandOr(""), deref(row.Model), total)

	offersConsidered.Observe(float64(st.trace.CandidatesChecked))

	return types.PricingResult{
		RowIndex:      row.RowIndex,
		Description:   row.Description,
		Brand:         row.BrandOr(""),
		Status:        st.status,
		Source:        source,
		Price:         price,
		Total:         total,
		CostToReplace: types.Round2(st.target * float64(qty)),
		URL:           st.finalURL,
		MatchQuality:  st.matchQuality,
		PricingTier:   st.tier,
		DepCategory:   cat.Category,
		DepRate:       cat.DepRate,
		DepAmount:     cat.DepAmount,
		LLMEstimate:   st.estimate,
		Trace:         st.trace,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return textnorm.DedupeBrand(strings.Join(kept, " "))
}

// searchOnce wraps one provider call with failure accounting. Provider
// exhaustion yields an empty slice; the state machine treats that as
// "continue to fallback".
func (p *Pipeline) searchOnce(ctx context.Context, q string, band search.PriceBand, st *rowState) []types.Offer {
	st.trace.Queries = append(st.trace.Queries, q)
	offers, err := p.provider.Search(ctx, q, band)
	if err != nil {
		providerFailures.WithLabelValues("search").Inc()
		p.log.Warn().Err(err).Str("query", q).Int("row", st.row.RowIndex).Msg("search failed, continuing to fallback")
		return nil
	}
	st.trace.CandidatesChecked += len(offers)
	for _, o := range offers {
		if o.Price >= types.MinOfferPrice && (st.bestSeen == 0 || o.Price < st.bestSeen) {
			if tier := p.policy.Classify(o.Source); tier != trust.TierUntrusted {
				st.bestSeen = o.Price
			}
		}
	}
	return offers
}
