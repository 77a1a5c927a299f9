// Package enhance turns short claim descriptions into retail-searchable
// queries via the LLM, with the original text as the unconditional
// fallback.
package enhance

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/types"
)

const maxQueryLen = 80

const systemPrompt = `You rewrite short insurance inventory descriptions into concise retail search queries.
Return ONLY the rewritten query, no quotes, no explanation, at most 80 characters.
Keep brand and model when present. Expand abbreviations. Do not invent brands.`

// Enhancer caches LLM rewrites of item descriptions. A nil Completer or
// any provider failure degrades to returning the input unchanged.
type Enhancer struct {
	completer llm.Completer
	cache     *cache.Cache
	log       zerolog.Logger
}

// New builds an enhancer around the given completer and cache.
func New(completer llm.Completer, c *cache.Cache, log zerolog.Logger) *Enhancer {
	return &Enhancer{
		completer: completer,
		cache:     c,
		log:       log.With().Str("component", "enhancer").Logger(),
	}
}

// Enhance rewrites description into a retail-friendly query. Brand and
// model, when known, are folded into the prompt. Never returns an empty
// string and never returns an error: failure means the original text.
func (e *Enhancer) Enhance(ctx context.Context, description, brand, model string) string {
	description = textnorm.DedupeBrand(strings.TrimSpace(description))
	if description == "" {
		return description
	}

	key := cacheKey(description, brand, model)
	if e.cache != nil {
		if v, ok := e.cache.Get(key); ok {
			return v.(string)
		}
	}

	enhanced := e.callLLM(ctx, description, brand, model)
	if enhanced == "" {
		enhanced = description
	}
	enhanced = textnorm.Truncate(enhanced, maxQueryLen)

	if e.cache != nil {
		e.cache.Set(key, enhanced)
		// An accepted form is a fixed point: re-enhancing it yields itself.
		e.cache.Set(cacheKey(enhanced, brand, model), enhanced)
	}
	return enhanced
}

func (e *Enhancer) callLLM(ctx context.Context, description, brand, model string) string {
	if e.completer == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Description: ")
	sb.WriteString(description)
	if brand != "" && brand != types.NoBrand {
		sb.WriteString("\nBrand: ")
		sb.WriteString(brand)
	}
	if model != "" {
		sb.WriteString("\nModel: ")
		sb.WriteString(model)
	}

	out, err := e.completer.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        sb.String(),
		MaxTokens:   64,
		Temperature: 0.2,
	})
	if err != nil {
		e.log.Debug().Err(err).Str("description", description).Msg("enhancement failed, using original")
		return ""
	}

	out = strings.Trim(strings.TrimSpace(out), `"'`)
	if out == "" || strings.ContainsAny(out, "{}") || strings.Count(out, "\n") > 0 {
		// The model ignored the contract; the original is safer.
		return ""
	}
	return out
}

func cacheKey(description, brand, model string) string {
	return "enh|" + textnorm.Key(description) + "|" + textnorm.Key(brand) + "|" + textnorm.Key(model)
}
