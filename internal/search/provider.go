// Package search adapts external shopping-search engines to one uniform
// interface. Providers return offers verbatim; trust filtering happens in
// the ranker.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/claimstack/pricing-service/internal/types"
)

// PriceBand is the tolerance window around a target price. A zero band
// means unconstrained.
type PriceBand struct {
	Low  float64
	High float64
}

// Band computes the tolerance band around target: [target*(1-t), target*(1+t)].
func Band(target, tolerancePct float64) PriceBand {
	if target <= 0 {
		return PriceBand{}
	}
	t := tolerancePct / 100
	return PriceBand{Low: target * (1 - t), High: target * (1 + t)}
}

// IsZero reports whether the band is unconstrained.
func (b PriceBand) IsZero() bool { return b.Low == 0 && b.High == 0 }

// Contains reports whether price falls inside the band. A zero band
// contains everything.
func (b PriceBand) Contains(price float64) bool {
	if b.IsZero() {
		return true
	}
	return price >= b.Low && price <= b.High
}

// Key renders the band for cache-key use.
func (b PriceBand) Key() string {
	if b.IsZero() {
		return "any"
	}
	return strconv.FormatFloat(b.Low, 'f', 2, 64) + "-" + strconv.FormatFloat(b.High, 'f', 2, 64)
}

// Provider is the uniform shopping-search interface. An exhausted
// provider returns an empty slice with a non-nil error; callers treat
// that as provider_down and continue to fallbacks.
type Provider interface {
	Search(ctx context.Context, query string, band PriceBand) ([]types.Offer, error)
}

// ParsePrice converts a provider price string like "$1,299.99" to a
// float. Failure disqualifies the offer.
func ParsePrice(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if idx := strings.IndexByte(s, ' '); idx > 0 {
		s = s[:idx]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// ErrNoResults reports an empty but successful search.
var ErrNoResults = fmt.Errorf("search: no results")
