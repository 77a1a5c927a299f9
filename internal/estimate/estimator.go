// Package estimate prices items that arrive without a purchase price.
// The LLM answer is parsed strictly first, heuristically second, and a
// configured default closes the gap. Estimation never fails.
package estimate

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/types"
)

// SourceLLM labels estimates produced by the model.
const SourceLLM = "LLM Estimate"

// SourceDefault labels estimates that fell through to the configured price.
const SourceDefault = "Default Estimate"

const systemPrompt = `You estimate the current US replacement cost of household items for insurance claims.
Respond with ONLY a JSON object: {"price": <number>, "confidence": "low"|"medium"|"high", "reasoning": "<one sentence>"}.`

// Config bounds the estimator.
type Config struct {
	// DefaultPrice is used when the model produces nothing parseable.
	DefaultPrice float64 `mapstructure:"default_price"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.DefaultPrice <= 0 {
		c.DefaultPrice = 50
	}
}

// Estimator produces a replacement price for a described item.
type Estimator struct {
	completer llm.Completer
	cache     *cache.Cache
	cfg       Config
	log       zerolog.Logger
}

// New builds an estimator.
func New(completer llm.Completer, c *cache.Cache, cfg Config, log zerolog.Logger) *Estimator {
	cfg.Defaults()
	return &Estimator{
		completer: completer,
		cache:     c,
		cfg:       cfg,
		log:       log.With().Str("component", "estimator").Logger(),
	}
}

type estimateWire struct {
	Price      float64 `json:"price"`
	Confidence string  `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Estimate returns a price for the item. The result always carries a
// positive price; on total failure it is the configured default with low
// confidence.
func (e *Estimator) Estimate(ctx context.Context, description, brand string) types.LLMEstimate {
	key := "est|" + strings.ToLower(strings.TrimSpace(description)) + "|" + strings.ToLower(brand)
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			return v.(types.LLMEstimate)
		}
	}

	est := e.estimateOnce(ctx, description, brand)
	if e.cache != nil {
		e.cache.Set(key, est)
	}
	return est
}

func (e *Estimator) estimateOnce(ctx context.Context, description, brand string) types.LLMEstimate {
	fallback := types.LLMEstimate{
		Price:      e.cfg.DefaultPrice,
		Confidence: types.ConfidenceLow,
		Reasoning:  "no model estimate available",
		Source:     SourceDefault,
	}
	if e.completer == nil {
		return fallback
	}

	user := "Item: " + description
	if brand != "" && brand != types.NoBrand {
		user += "\nBrand: " + brand
	}

	raw, err := e.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        user,
		MaxTokens:   160,
		Temperature: 0.1,
	})
	if err != nil {
		e.log.Debug().Err(err).Str("description", description).Msg("estimate call failed")
		return fallback
	}

	var wire estimateWire
	if llm.ExtractJSON(raw, &wire) && wire.Price > 0 {
		return types.LLMEstimate{
			Price:      types.Round2(wire.Price),
			Confidence: types.ParseConfidence(strings.ToLower(wire.Confidence)),
			Reasoning:  wire.Reasoning,
			Source:     SourceLLM,
		}
	}

	if price, ok := llm.ExtractDollarAmount(raw); ok {
		return types.LLMEstimate{
			Price:      types.Round2(price),
			Confidence: types.ConfidenceLow,
			Reasoning:  "extracted from unstructured model output",
			Source:     SourceLLM,
		}
	}

	return fallback
}
