package types

import "math"

// Row is a normalized claim line item as delivered by the file parser.
// Description is required; Qty is coerced to >= 1 upstream.
type Row struct {
	RowIndex      int
	Description   string
	Qty           int
	PurchasePrice *float64
	Brand         *string
	Model         *string
	Room          *string
	AgeYears      *float64
	Condition     *string
}

// HasPurchasePrice reports whether the row carries a usable purchase price.
func (r Row) HasPurchasePrice() bool {
	return r.PurchasePrice != nil && *r.PurchasePrice > 0
}

// BrandOr returns the row brand or the given default. "No Brand" is
// treated as absent.
func (r Row) BrandOr(def string) string {
	if r.Brand == nil || *r.Brand == "" || *r.Brand == NoBrand {
		return def
	}
	return *r.Brand
}

// NoBrand is the sentinel the upstream mapper uses for items without a brand.
const NoBrand = "No Brand"

// Facts are the product facts derived once per row and consumed by the
// query builder and the ranker.
type Facts struct {
	Title       string
	Brand       string
	Model       string
	Category    string
	Subcategory string
	Attributes  []string
	Keywords    []string
	Condition   string
	Confidence  float64
}

// Strategy tags a search query with the intent it covers.
type Strategy int

const (
	StrategyExact Strategy = iota
	StrategyGeneric
	StrategyEnriched
)

func (s Strategy) String() string {
	switch s {
	case StrategyExact:
		return "exact"
	case StrategyGeneric:
		return "generic"
	case StrategyEnriched:
		return "enriched"
	default:
		return "unknown"
	}
}

// SearchQuery is one pass produced by the query builder, best-first.
type SearchQuery struct {
	Text      string
	Strategy  Strategy
	PassIndex int
}

// Merchant is an alternative seller attached to an offer.
type Merchant struct {
	Name string
	Link string
}

// Offer is a single candidate result from a search provider. Offers are
// transient; they never leave the pricing core.
type Offer struct {
	Title      string
	Price      float64
	Source     string
	Link       string
	Merchants  []Merchant
	ProductID  string
	Similarity float64
}

// MinOfferPrice is the floor below which an offer is never usable.
const MinOfferPrice = 0.10

// Round2 rounds a dollar amount to cents.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
