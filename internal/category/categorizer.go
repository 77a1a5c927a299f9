package category

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/types"
)

const systemPrompt = `You classify insurance claim items into depreciation categories.
Answer with EXACTLY one category name from the list, nothing else.`

const batchSystemPrompt = `You classify insurance claim items into depreciation categories.
The user sends numbered items, one per line. Answer with one category name per line,
in the same order, EXACTLY as spelled in the list, nothing else.`

// Categorizer runs the tiered classification and computes depreciation.
type Categorizer struct {
	table     *Table
	completer llm.Completer
	cache     *cache.Cache
	log       zerolog.Logger
}

// New builds a categorizer. completer may be nil, which disables tier 2.
func New(table *Table, completer llm.Completer, c *cache.Cache, log zerolog.Logger) *Categorizer {
	return &Categorizer{
		table:     table,
		completer: completer,
		cache:     c,
		log:       log.With().Str("component", "categorizer").Logger(),
	}
}

// Table exposes the loaded category table.
func (c *Categorizer) Table() *Table { return c.table }

// Categorize resolves one item's depreciation class and amount. The empty
// category with zero depreciation is a valid terminal outcome.
func (c *Categorizer) Categorize(ctx context.Context, description, brand, model string, total float64) types.Categorization {
	key := cacheKey(description, brand, model)
	if c.cache != nil {
		if v, ok := c.cache.Get(key); ok {
			cat := v.(types.Categorization)
			return withDepreciation(cat, c.table, total)
		}
	}

	cat := c.classify(ctx, description)
	if c.cache != nil {
		c.cache.Set(key, cat)
	}
	return withDepreciation(cat, c.table, total)
}

func (c *Categorizer) classify(ctx context.Context, description string) types.Categorization {
	if name := keywordMatch(description); name != "" && c.table.Contains(name) {
		return types.Categorization{Category: name, Method: types.MethodKeyword}
	}

	if name, method, ok := c.classifyLLM(ctx, description); ok {
		return types.Categorization{Category: name, Method: method}
	}

	if name := heuristicMatch(description); name != "" && c.table.Contains(name) {
		return types.Categorization{Category: name, Method: types.MethodDefault}
	}
	return types.Categorization{Method: types.MethodDefault}
}

func (c *Categorizer) classifyLLM(ctx context.Context, description string) (string, types.Method, bool) {
	if c.completer == nil {
		return "", 0, false
	}
	raw, err := c.completer.Complete(ctx, llm.Request{
		System:      systemPrompt + "\n\nCategories:\n" + strings.Join(c.table.Names(), "\n"),
		User:        description,
		MaxTokens:   32,
		Temperature: 0,
	})
	if err != nil {
		c.log.Debug().Err(err).Str("description", description).Msg("llm categorization failed")
		return "", 0, false
	}
	return c.repair(raw)
}

// repair maps a model answer onto the exact category set, noting whether
// fuzzy matching was needed.
func (c *Categorizer) repair(raw string) (string, types.Method, bool) {
	answer := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"'`))
	if answer == "" {
		return "", 0, false
	}
	if c.table.Contains(answer) {
		return canonicalSpelling(c.table, answer), types.MethodLLM, true
	}
	if name, ok := c.table.Canonical(answer); ok {
		return name, types.MethodFuzzy, true
	}
	return "", 0, false
}

// CategorizeBatch classifies N items with one N-line prompt. Lines that
// fail to repair fall back to the keyword and heuristic tiers per item.
func (c *Categorizer) CategorizeBatch(ctx context.Context, descriptions []string) []types.Categorization {
	out := make([]types.Categorization, len(descriptions))
	for i := range out {
		out[i] = types.Categorization{Method: types.MethodDefault}
	}
	if len(descriptions) == 0 {
		return out
	}

	var answers []string
	if c.completer != nil {
		var sb strings.Builder
		for i, d := range descriptions {
			sb.WriteString(strings.TrimSpace(d))
			if i < len(descriptions)-1 {
				sb.WriteByte('\n')
			}
		}
		raw, err := c.completer.Complete(ctx, llm.Request{
			System:      batchSystemPrompt + "\n\nCategories:\n" + strings.Join(c.table.Names(), "\n"),
			User:        sb.String(),
			MaxTokens:   24 * len(descriptions),
			Temperature: 0,
		})
		if err != nil {
			c.log.Debug().Err(err).Int("items", len(descriptions)).Msg("batch categorization failed")
		} else {
			answers = llm.ExtractLines(raw)
		}
	}

	for i, d := range descriptions {
		if i < len(answers) {
			if name, method, ok := c.repair(answers[i]); ok {
				out[i] = types.Categorization{Category: name, Method: method}
				continue
			}
		}
		if name := keywordMatch(d); name != "" && c.table.Contains(name) {
			out[i] = types.Categorization{Category: name, Method: types.MethodKeyword}
			continue
		}
		if name := heuristicMatch(d); name != "" && c.table.Contains(name) {
			out[i] = types.Categorization{Category: name, Method: types.MethodDefault}
		}
	}
	return out
}

// withDepreciation fills rate and amount for the resolved category.
func withDepreciation(cat types.Categorization, table *Table, total float64) types.Categorization {
	cat.DepRate = table.Rate(cat.Category)
	cat.DepAmount = types.Round2(total * cat.DepRate)
	return cat
}

func canonicalSpelling(t *Table, name string) string {
	if exact, ok := t.Canonical(name); ok {
		return exact
	}
	return name
}

func cacheKey(description, brand, model string) string {
	return "cat|" + strings.ToLower(strings.TrimSpace(description)) + "|" +
		strings.ToLower(strings.TrimSpace(brand)) + "|" +
		strings.ToLower(strings.TrimSpace(model))
}
