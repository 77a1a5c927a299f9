// Package rank scores and orders search offers. The ranker is a pure
// function of its inputs; all trust and price policy comes injected.
package rank

import (
	"fmt"
	"sort"

	"github.com/claimstack/pricing-service/internal/search"
	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/trust"
	"github.com/claimstack/pricing-service/internal/types"
)

// ExactSimilarityFloor is the minimum title similarity an offer needs to
// win an exact-strategy pass.
const ExactSimilarityFloor = 0.45

// Weights are the scoring coefficients.
type Weights struct {
	Similarity float64 `mapstructure:"similarity"`
	Trust      float64 `mapstructure:"trust"`
	PriceFit   float64 `mapstructure:"price_fit"`
	DirectURL  float64 `mapstructure:"direct_url"`
	LowPrice   float64 `mapstructure:"low_price"`
}

// DefaultWeights returns the tuned coefficients.
func DefaultWeights() Weights {
	return Weights{
		Similarity: 0.35,
		Trust:      0.25,
		PriceFit:   0.20,
		DirectURL:  0.15,
		LowPrice:   0.05,
	}
}

// Ranked is an offer with its score and band flag attached.
type Ranked struct {
	Offer     types.Offer
	Score     float64
	InBand    bool
	Direct    bool
	TrustTier trust.Tier
}

// Result is the full ranking outcome including trace material.
type Result struct {
	Ranked           []Ranked
	TrustedSkipped   []string
	UntrustedSkipped []string
}

// Ranker scores offers against item facts and a target price.
type Ranker struct {
	policy  *trust.Policy
	weights Weights
}

// New builds a ranker. Zero weights fall back to defaults.
func New(policy *trust.Policy, w Weights) *Ranker {
	if w == (Weights{}) {
		w = DefaultWeights()
	}
	return &Ranker{policy: policy, weights: w}
}

// Rank filters, scores and orders offers. Target may be zero, which
// disables price-fit scoring. The returned slices keep disqualified
// offers out of Ranked but record them for the trace.
func (r *Ranker) Rank(offers []types.Offer, facts types.Facts, strategy types.Strategy, target float64, band search.PriceBand) Result {
	var res Result

	for _, o := range offers {
		tier := r.policy.Classify(o.Source)
		if o.Link != "" {
			if urlTier := r.policy.Classify(o.Link); urlTier != trust.TierUnknown {
				tier = urlTier
			}
		}

		switch {
		case o.Price < types.MinOfferPrice, target > 0 && o.Price < target*0.01:
			res.UntrustedSkipped = append(res.UntrustedSkipped,
				fmt.Sprintf("%s: price %.2f below floor", o.Source, o.Price))
			continue
		case tier == trust.TierUntrusted:
			res.UntrustedSkipped = append(res.UntrustedSkipped,
				fmt.Sprintf("%s: untrusted source", o.Source))
			continue
		case r.policy.IsBlockedURL(o.Link):
			if tier == trust.TierTrusted {
				res.TrustedSkipped = append(res.TrustedSkipped,
					fmt.Sprintf("%s: blocked url shape", o.Source))
			} else {
				res.UntrustedSkipped = append(res.UntrustedSkipped,
					fmt.Sprintf("%s: blocked url shape", o.Source))
			}
			continue
		}

		sim := o.Similarity
		if sim == 0 {
			sim = textnorm.TokenOverlap(o.Title, facts.Title)
		}
		direct := r.policy.IsDirectProductURL(o.Link)
		inBand := band.Contains(o.Price)

		o.Similarity = sim
		res.Ranked = append(res.Ranked, Ranked{
			Offer:     o,
			Score:     r.score(sim, tier, o.Price, target, direct, band),
			InBand:    inBand,
			Direct:    direct,
			TrustTier: tier,
		})
	}

	sort.SliceStable(res.Ranked, func(i, j int) bool {
		return res.Ranked[i].Score > res.Ranked[j].Score
	})
	return res
}

func (r *Ranker) score(sim float64, tier trust.Tier, price, target float64, direct bool, band search.PriceBand) float64 {
	s := r.weights.Similarity * sim

	if tier == trust.TierTrusted {
		s += r.weights.Trust
	}

	if target > 0 {
		fit := 1 - absf(price-target)/target
		if fit < 0 {
			fit = 0
		}
		s += r.weights.PriceFit * fit
	}

	if direct {
		s += r.weights.DirectURL
	}

	// Implausibly cheap offers inside the band are usually accessories.
	if target > 0 && price < target*0.1 {
		s -= r.weights.LowPrice
	}
	return s
}

// Pick applies the selection rule to a ranking: under the exact strategy,
// the cheapest offer with similarity at or above the floor; otherwise the
// cheapest qualified offer. Falls back across the floor when nothing
// clears it. Returns false when nothing qualified.
func (r *Ranker) Pick(res Result, strategy types.Strategy) (Ranked, bool) {
	if len(res.Ranked) == 0 {
		return Ranked{}, false
	}

	candidates := res.Ranked
	if strategy == types.StrategyExact {
		var similar []Ranked
		for _, rk := range candidates {
			if rk.Offer.Similarity >= ExactSimilarityFloor {
				similar = append(similar, rk)
			}
		}
		if len(similar) > 0 {
			candidates = similar
		}
	}

	best := candidates[0]
	for _, rk := range candidates[1:] {
		if rk.Offer.Price < best.Offer.Price {
			best = rk
		}
	}
	return best, true
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
