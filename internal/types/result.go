package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status classifies the confidence of a pricing result.
type Status int

const (
	// StatusEstimated is any result that is not Found: LLM-priced items,
	// market-search fallbacks and purchase-price fallbacks.
	StatusEstimated Status = iota

	// StatusFound requires a direct-product URL on a trusted retailer with
	// a consistent price.
	StatusFound
)

func (s Status) String() string {
	if s == StatusFound {
		return "Found"
	}
	return "Estimated"
}

// MarshalJSON emits the wire spelling.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// PricingTier records whether the final price came from a ranked search
// offer or from a fallback path.
type PricingTier int

const (
	TierFallback PricingTier = iota
	TierSERP
)

func (t PricingTier) String() string {
	if t == TierSERP {
		return "SERP"
	}
	return "FALLBACK"
}

// MarshalJSON emits the wire spelling.
func (t PricingTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// Confidence is the estimator's self-reported confidence band.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	default:
		return "low"
	}
}

// MarshalJSON emits the wire spelling.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// ParseConfidence maps a provider string onto the closed set, defaulting
// to low for anything unrecognized.
func ParseConfidence(s string) Confidence {
	switch s {
	case "high":
		return ConfidenceHigh
	case "medium":
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// Method records which categorizer tier produced a category.
type Method int

const (
	MethodDefault Method = iota
	MethodKeyword
	MethodLLM
	MethodFuzzy
)

func (m Method) String() string {
	switch m {
	case MethodKeyword:
		return "keyword"
	case MethodLLM:
		return "llm"
	case MethodFuzzy:
		return "fuzzy"
	default:
		return "default"
	}
}

// LLMEstimate is the price estimator output attached to rows without a
// purchase price.
type LLMEstimate struct {
	Price      float64    `json:"price"`
	Confidence Confidence `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
	Source     string     `json:"source"`
}

// Trace records what the pipeline did for one row, for audit and debugging.
type Trace struct {
	Queries           []string `json:"queries"`
	CandidatesChecked int      `json:"candidates_checked"`
	TrustedSkipped    []string `json:"trusted_skipped"`
	UntrustedSkipped  []string `json:"untrusted_skipped"`
	Validation        string   `json:"validation"`
}

// Categorization is the depreciation classification computed after pricing.
type Categorization struct {
	Category  string
	DepRate   float64
	DepAmount float64
	Method    Method
}

// PricingResult is the replacement-cost record emitted once per row.
type PricingResult struct {
	RowIndex    int
	Description string
	Brand       string
	Status      Status
	Source      string
	Price       float64
	Total       float64
	CostToReplace float64
	URL         string
	MatchQuality string
	PricingTier PricingTier
	DepCategory string
	DepRate     float64
	DepAmount   float64
	LLMEstimate *LLMEstimate
	Trace       Trace
}

// resultWire is the exporter-facing shape; the host expects snake_case
// keys and a formatted depreciation percentage.
type resultWire struct {
	RowIndex              int          `json:"row_index"`
	Description           string       `json:"description"`
	Brand                 string       `json:"brand"`
	Status                Status       `json:"status"`
	Source                string       `json:"source"`
	Price                 float64      `json:"price"`
	TotalReplacementPrice float64      `json:"total_replacement_price"`
	CostToReplace         float64      `json:"cost_to_replace"`
	URL                   *string      `json:"url"`
	MatchQuality          string       `json:"match_quality"`
	PricingTier           PricingTier  `json:"pricing_tier"`
	DepCategory           string       `json:"dep_category"`
	DepPercent            string       `json:"dep_percent"`
	DepAmount             float64      `json:"dep_amount"`
	LLMEstimate           *LLMEstimate `json:"llm_estimate,omitempty"`
	Trace                 Trace        `json:"trace"`
}

// MarshalJSON emits the exporter wire format. URL is null when empty so
// downstream consumers can distinguish "no link" from an empty string.
func (r PricingResult) MarshalJSON() ([]byte, error) {
	var url *string
	if r.URL != "" {
		url = &r.URL
	}
	brand := r.Brand
	if brand == "" {
		brand = NoBrand
	}
	return json.Marshal(resultWire{
		RowIndex:              r.RowIndex,
		Description:           r.Description,
		Brand:                 brand,
		Status:                r.Status,
		Source:                r.Source,
		Price:                 r.Price,
		TotalReplacementPrice: r.Total,
		CostToReplace:         r.CostToReplace,
		URL:                   url,
		MatchQuality:          r.MatchQuality,
		PricingTier:           r.PricingTier,
		DepCategory:           r.DepCategory,
		DepPercent:            FormatDepPercent(r.DepRate),
		DepAmount:             r.DepAmount,
		LLMEstimate:           r.LLMEstimate,
		Trace:                 r.Trace,
	})
}

// FormatDepPercent renders an annual depreciation rate as "10.0000%".
func FormatDepPercent(rate float64) string {
	return fmt.Sprintf("%.4f%%", rate*100)
}

// JobResults is the in-memory record held by the result store for one job.
type JobResults struct {
	JobID     string          `json:"job_id"`
	Rows      []PricingResult `json:"rows"`
	CreatedAt time.Time       `json:"created_at"`
}
