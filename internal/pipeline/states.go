package pipeline

import (
	"context"

	"github.com/claimstack/pricing-service/internal/rank"
	"github.com/claimstack/pricing-service/internal/resolve"
	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/types"
)

// enhanceRow establishes the target price and the enhanced query. Rows
// without a purchase price are priced by the estimator first so every
// later state has a target to band around.
func (p *Pipeline) enhanceRow(ctx context.Context, st *rowState) {
	row := st.row

	if row.HasPurchasePrice() {
		st.target = *row.PurchasePrice
	} else {
		est := p.estimator.Estimate(ctx, row.Description, row.BrandOr(""))
		st.estimate = &est
		st.target = est.Price
	}

	brand := row.BrandOr("")
	model := deref(row.Model)

	st.enhanced = p.enhancer.Enhance(ctx, row.Description, brand, model)
	st.quick = joinNonEmpty(brand, model, st.enhanced)
	st.band = search.Band(st.target, p.cfg.TolerancePct)

	st.facts = types.Facts{
		Title:      st.enhanced,
		Brand:      brand,
		Model:      model,
		Confidence: 0.8,
	}
	if brand != "" {
		st.strategy = types.StrategyExact
	} else {
		st.strategy = types.StrategyGeneric
	}
}

// quickMatch is the single authoritative search. A top offer with a
// direct trusted URL priced in band short-circuits the whole machine.
func (p *Pipeline) quickMatch(ctx context.Context, st *rowState) bool {
	offers := p.searchOnce(ctx, st.quick, st.band, st)
	if len(offers) == 0 {
		return false
	}

	top := offers[0]
	if top.Price < types.MinOfferPrice {
		return false
	}
	if !p.policy.IsDirectProductURL(top.Link) || !p.policy.IsTrusted(top.Link) {
		return false
	}
	if !st.band.Contains(top.Price) || !resolve.PriceConsistent(top.Link, top.Price) {
		return false
	}

	st.status = types.StatusFound
	st.price = top.Price
	st.source = top.Source
	st.finalURL = top.Link
	st.direct = true
	st.matchQuality = "Exact"
	st.tier = types.TierSERP
	st.trace.Validation = "quick match: direct trusted url in band"
	return true
}

// enrichedSearch fans the query builder passes across the provider and
// ranks the aggregate.
func (p *Pipeline) enrichedSearch(ctx context.Context, st *rowState) {
	queries := p.builder.Build(st.facts)
	if len(queries) > 0 {
		st.strategy = queries[0].Strategy
	}

	var all []types.Offer
	seen := make(map[string]bool)
	for _, q := range queries {
		for _, o := range p.searchOnce(ctx, q.Text, st.band, st) {
			key := o.Link + "|" + o.Title
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, o)
		}
	}

	st.ranking = p.rankOffers(all, st)
	st.pick, st.hasPick = p.ranker.Pick(st.ranking, st.strategy)
}

func (p *Pipeline) rankOffers(offers []types.Offer, st *rowState) rank.Result {
	res := p.ranker.Rank(offers, st.facts, st.strategy, st.target, st.band)
	st.trace.TrustedSkipped = append(st.trace.TrustedSkipped, res.TrustedSkipped...)
	st.trace.UntrustedSkipped = append(st.trace.UntrustedSkipped, res.UntrustedSkipped...)
	return res
}

// resolvePick upgrades the top-ranked offer's URL when it is not already
// a direct product page.
func (p *Pipeline) resolvePick(ctx context.Context, st *rowState) {
	if !st.hasPick {
		return
	}
	if st.pick.Direct {
		st.finalURL, st.direct = st.pick.Offer.Link, true
		return
	}

	final, direct := p.resolver.Resolve(ctx, st.pick.Offer)
	if direct && p.policy.IsTrusted(final) {
		st.finalURL, st.direct = final, true
		return
	}
	st.finalURL, st.direct = st.pick.Offer.Link, false
}

// classify applies the Found rule to the resolved pick. An in-band pick
// that misses the rule still emits as an estimated search result.
func (p *Pipeline) classify(st *rowState) bool {
	if !st.hasPick {
		return false
	}

	offer := st.pick.Offer
	if st.direct && p.policy.IsTrusted(st.finalURL) && resolve.PriceConsistent(st.finalURL, offer.Price) {
		st.status = types.StatusFound
		st.price = offer.Price
		st.source = offer.Source
		st.matchQuality = matchQuality(offer.Similarity)
		st.tier = types.TierSERP
		st.trace.Validation = "classified found: direct trusted url, price consistent"
		return true
	}

	if st.pick.InBand {
		st.status = types.StatusEstimated
		st.price = offer.Price
		st.source = offer.Source
		st.matchQuality = "Similar"
		st.tier = types.TierSERP
		st.trace.Validation = "classified estimated: in-band offer without direct trusted url"
		return true
	}
	return false
}

// toleranceFallback reruns the search with synonym expansion and a wider
// band for bulk or generic items. A direct-product win here is still
// promoted to Found.
func (p *Pipeline) toleranceFallback(ctx context.Context, st *rowState) bool {
	if !p.builder.IsBulkOrGeneric(st.row.Description) && !p.builder.IsBulkOrGeneric(st.enhanced) {
		return false
	}

	wide := search.Band(st.target, p.cfg.WideTolerancePct)
	facts := st.facts
	if syn, ok := p.builder.Synonym(st.row.Description); ok {
		facts.Title = syn
	} else if syn, ok := p.builder.Synonym(st.enhanced); ok {
		facts.Title = syn
	}

	var all []types.Offer
	seen := make(map[string]bool)
	for _, q := range p.builder.Build(facts) {
		for _, o := range p.searchOnce(ctx, q.Text, wide, st) {
			key := o.Link + "|" + o.Title
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, o)
		}
	}

	ranking := p.rankOffers(all, st)
	pick, ok := p.ranker.Pick(ranking, types.StrategyGeneric)
	if !ok {
		return false
	}

	offer := pick.Offer
	final, direct := offer.Link, pick.Direct
	if !direct {
		final, direct = p.resolver.Resolve(ctx, offer)
	}

	if direct && p.policy.IsTrusted(final) && wide.Contains(offer.Price) && resolve.PriceConsistent(final, offer.Price) {
		st.status = types.StatusFound
		st.price = offer.Price
		st.source = offer.Source
		st.finalURL = final
		st.direct = true
		st.matchQuality = matchQuality(offer.Similarity)
		st.tier = types.TierSERP
		st.trace.Validation = "tolerance fallback: direct trusted url in widened band"
		return true
	}

	// The insurance principle: the cheapest qualified replacement wins
	// even without a direct link.
	st.status = types.StatusEstimated
	st.price = offer.Price
	st.source = offer.Source
	st.finalURL = offer.Link
	st.direct = false
	st.matchQuality = "Similar"
	st.tier = types.TierSERP
	st.trace.Validation = "tolerance fallback: lowest qualified offer in widened band"
	return true
}

// marketSearch picks a plausible retailer for the item type and anchors
// the result on the best candidate seen, or the target price. Returns
// false when neither anchor clears the offer floor; the machine then
// falls through to the purchase-price tier.
func (p *Pipeline) marketSearch(st *rowState) bool {
	price := st.target
	if st.bestSeen >= types.MinOfferPrice {
		price = st.bestSeen
	}
	if price < types.MinOfferPrice {
		return false
	}

	domain := retailerFor(st.row.Description)
	q := st.enhanced
	if q == "" {
		q = st.row.Description
	}

	st.status = types.StatusEstimated
	st.price = price
	st.source = p.policy.FriendlyName("https://www."+domain, "Market Search")
	st.finalURL = resolve.SearchURL(domain, q)
	st.direct = false
	st.matchQuality = "Market Search"
	st.tier = types.TierFallback
	st.trace.Validation = "market search fallback"
	return true
}

// purchasePriceFallback is the terminal tier: the target price and a
// retailer search URL. Reached normally or from the panic boundary.
func (p *Pipeline) purchasePriceFallback(st *rowState) {
	if st.target < types.MinOfferPrice {
		st.target = types.MinOfferPrice
	}
	domain := retailerFor(st.row.Description)
	q := st.enhanced
	if q == "" {
		q = st.row.Description
	}

	st.status = types.StatusEstimated
	st.price = st.target
	st.source = p.policy.FriendlyName("https://www."+domain, "Purchase Price")
	st.finalURL = resolve.SearchURL(domain, q)
	st.direct = false
	st.matchQuality = "Purchase Price"
	st.tier = types.TierFallback
	st.trace.Validation = "purchase price fallback"
}

func matchQuality(similarity float64) string {
	if similarity >= rank.ExactSimilarityFloor {
		return "Exact"
	}
	return "Similar"
}

// retailerKinds routes an item type to the retailer most likely to stock
// it. The last entry is the catch-all.
var retailerKinds = []struct {
	domain string
	tokens []string
}{
	{"homedepot.com", []string{"drill", "saw", "tool", "tools", "mower", "grill", "lumber", "paint", "ladder"}},
	{"bestbuy.com", []string{"tv", "television", "laptop", "computer", "tablet", "phone", "camera", "speaker", "console", "monitor", "printer"}},
	{"wayfair.com", []string{"sofa", "couch", "dresser", "nightstand", "ottoman", "bookcase", "rug", "headboard"}},
	{"target.com", []string{"clothes", "clothing", "shirt", "dress", "toy", "toys", "towel", "towels", "sheets", "lamp", "lamps", "decor"}},
}

func retailerFor(description string) string {
	set := make(map[string]bool)
	for _, t := range textnorm.Tokens(description) {
		set[t] = true
	}
	for _, rk := range retailerKinds {
		for _, tok := range rk.tokens {
			if set[tok] {
				return rk.domain
			}
		}
	}
	return "walmart.com"
}
