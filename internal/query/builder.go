// Package query builds the ordered search passes for one item. The
// builder is pure: same facts and tables in, same queries out.
package query

import (
	"sort"
	"strings"

	"github.com/claimstack/pricing-service/internal/textnorm"
	"github.com/claimstack/pricing-service/internal/types"
)

const maxQueryLen = 80

// Config carries the synonym and bulk-pattern tables. Both are injected;
// empty tables fall back to the compiled defaults.
type Config struct {
	// Synonyms maps a normalized generic phrase to its retail rewrite.
	Synonyms map[string]string

	// BulkPatterns are substrings that mark an item as bulk or generic.
	BulkPatterns []string
}

// DefaultConfig returns the compiled-in tables.
func DefaultConfig() Config {
	return Config{
		Synonyms: map[string]string{
			"iron and ironing board": "full size ironing board with iron rest",
			"bissell bissell vacuum": "Bissell upright bagless vacuum",
			"pots and pans":          "nonstick cookware set",
			"dishes":                 "dinnerware set service for 4",
			"silverware":             "stainless steel flatware set",
			"towels":                 "bath towel set",
			"sheets":                 "bed sheet set",
			"hangers":                "plastic clothes hangers pack",
			"lamps":                  "table lamp set of 2",
			"curtains":               "window curtain panels",
		},
		BulkPatterns: []string{
			"assorted", "misc", "miscellaneous", "various", "lot of",
			"set of", "box of", "bag of", "bundle", "pairs of",
			"dishes", "utensils", "silverware", "towels", "linens",
			"clothes", "clothing", "shoes", "toys", "books", "decorations",
		},
	}
}

// Builder produces up to five search passes per item.
type Builder struct {
	synonyms map[string]string
	bulk     []string
}

// NewBuilder builds a query builder, filling empty tables from defaults.
func NewBuilder(cfg Config) *Builder {
	def := DefaultConfig()
	if len(cfg.Synonyms) == 0 {
		cfg.Synonyms = def.Synonyms
	}
	if len(cfg.BulkPatterns) == 0 {
		cfg.BulkPatterns = def.BulkPatterns
	}
	syn := make(map[string]string, len(cfg.Synonyms))
	for k, v := range cfg.Synonyms {
		syn[textnorm.Key(k)] = v
	}
	bulk := make([]string, len(cfg.BulkPatterns))
	for i, p := range cfg.BulkPatterns {
		bulk[i] = textnorm.Key(p)
	}
	return &Builder{synonyms: syn, bulk: bulk}
}

// IsBulkOrGeneric reports whether the title matches a bulk/generic
// pattern, which widens tolerance in the fallback tier.
func (b *Builder) IsBulkOrGeneric(title string) bool {
	key := textnorm.Key(title)
	if _, ok := b.synonyms[key]; ok {
		return true
	}
	for _, p := range b.bulk {
		if strings.Contains(key, p) {
			return true
		}
	}
	return false
}

// Synonym returns the retail rewrite for a generic title, if one exists.
func (b *Builder) Synonym(title string) (string, bool) {
	s, ok := b.synonyms[textnorm.Key(title)]
	return s, ok
}

// Build produces the ordered pass list, best-first. Duplicate or empty
// passes are dropped; ties between equally specific passes prefer the one
// with more distinct tokens.
func (b *Builder) Build(facts types.Facts) []types.SearchQuery {
	core := strings.Join(textnorm.CoreNouns(facts.Title), " ")
	brand := strings.TrimSpace(facts.Brand)
	if brand == types.NoBrand {
		brand = ""
	}

	type pass struct {
		text     string
		strategy types.Strategy
	}
	var passes []pass

	if brand != "" && facts.Model != "" {
		passes = append(passes, pass{join(brand, facts.Model, core), types.StrategyExact})
	}
	if brand != "" {
		passes = append(passes, pass{join(brand, core), types.StrategyExact})
	}
	if syn, ok := b.Synonym(facts.Title); ok {
		passes = append(passes, pass{syn, types.StrategyGeneric})
	}
	if attr := dominantAttribute(facts.Attributes); attr != "" {
		passes = append(passes, pass{join(core, attr), types.StrategyEnriched})
	}
	if facts.Category != "" {
		passes = append(passes, pass{join(facts.Category, facts.Subcategory), types.StrategyGeneric})
	}
	if len(passes) == 0 && core != "" {
		passes = append(passes, pass{core, types.StrategyGeneric})
	}

	seen := make(map[string]bool)
	var out []types.SearchQuery
	for _, p := range passes {
		text := textnorm.Truncate(textnorm.DedupeBrand(strings.TrimSpace(p.text)), maxQueryLen)
		key := textnorm.Key(text)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, types.SearchQuery{Text: text, Strategy: p.strategy})
	}

	// Stable sort: within the same strategy, more distinct tokens first.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Strategy != out[j].Strategy {
			return false
		}
		return distinctTokens(out[i].Text) > distinctTokens(out[j].Text)
	})

	if len(out) > 5 {
		out = out[:5]
	}
	for i := range out {
		out[i].PassIndex = i
	}
	return out
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func distinctTokens(s string) int {
	seen := make(map[string]bool)
	for _, t := range textnorm.Tokens(s) {
		seen[t] = true
	}
	return len(seen)
}

// attributeOrder ranks which attribute anchors pass 4: color and material
// discriminate retail listings better than size.
var attributeOrder = []string{"color", "material", "size"}

func dominantAttribute(attrs []string) string {
	if len(attrs) == 0 {
		return ""
	}
	for _, kind := range attributeOrder {
		for _, a := range attrs {
			if strings.HasPrefix(strings.ToLower(a), kind+":") {
				return strings.TrimSpace(a[len(kind)+1:])
			}
		}
	}
	return attrs[0]
}
