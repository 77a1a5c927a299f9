package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimstack/pricing-service/internal/types"
)

func TestBuildBrandAndModelFirst(t *testing.T) {
	b := NewBuilder(Config{})

	queries := b.Build(types.Facts{
		Title: "stand mixer",
		Brand: "KitchenAid",
		Model: "KSM150",
	})

	require.NotEmpty(t, queries)
	assert.Equal(t, "KitchenAid KSM150 stand mixer", queries[0].Text)
	assert.Equal(t, types.StrategyExact, queries[0].Strategy)
	assert.Equal(t, 0, queries[0].PassIndex)

	// Brand-only pass follows.
	assert.Equal(t, "KitchenAid stand mixer", queries[1].Text)
	assert.Equal(t, types.StrategyExact, queries[1].Strategy)
}

func TestBuildPassIndexesSequential(t *testing.T) {
	b := NewBuilder(Config{})

	queries := b.Build(types.Facts{
		Title:      "lamps",
		Brand:      "Acme",
		Category:   "Lighting",
		Attributes: []string{"color: brass"},
	})

	for i, q := range queries {
		assert.Equal(t, i, q.PassIndex)
	}
	assert.LessOrEqual(t, len(queries), 5)
}

func TestBuildNoBrand(t *testing.T) {
	b := NewBuilder(Config{})

	queries := b.Build(types.Facts{Title: "a set of used kitchen knives", Brand: types.NoBrand})

	require.NotEmpty(t, queries)
	// Filler words stripped, no brand pass emitted.
	assert.Equal(t, "kitchen knives", queries[0].Text)
	assert.Equal(t, types.StrategyGeneric, queries[0].Strategy)
}

func TestBuildDedupesPasses(t *testing.T) {
	b := NewBuilder(Config{})

	// Brand+model and brand-only collapse when model is empty.
	queries := b.Build(types.Facts{Title: "vacuum", Brand: "Bissell"})

	seen := make(map[string]bool)
	for _, q := range queries {
		require.False(t, seen[q.Text], "duplicate pass %q", q.Text)
		seen[q.Text] = true
	}
}

func TestBuildSynonymPass(t *testing.T) {
	b := NewBuilder(Config{})

	queries := b.Build(types.Facts{Title: "Iron And Ironing Board"})

	var found bool
	for _, q := range queries {
		if q.Text == "full size ironing board with iron rest" {
			found = true
			assert.Equal(t, types.StrategyGeneric, q.Strategy)
		}
	}
	assert.True(t, found, "synonym pass missing: %v", queries)
}

func TestBuildAttributePass(t *testing.T) {
	b := NewBuilder(Config{})

	queries := b.Build(types.Facts{
		Title:      "accent chair",
		Attributes: []string{"size: 32in", "color: navy blue"},
	})

	var found bool
	for _, q := range queries {
		if q.Text == "accent chair navy blue" {
			found = true
		}
	}
	assert.True(t, found, "color attribute should anchor a pass: %v", queries)
}

func TestIsBulkOrGeneric(t *testing.T) {
	b := NewBuilder(Config{})

	tests := []struct {
		title string
		want  bool
	}{
		{"assorted kitchen utensils", true},
		{"box of books", true},
		{"lamps", true},
		{"bath towels", true},
		{"KitchenAid KSM150 stand mixer", false},
		{"Samsung 55 inch TV", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, b.IsBulkOrGeneric(tt.title))
		})
	}
}

func TestSynonym(t *testing.T) {
	b := NewBuilder(Config{})

	s, ok := b.Synonym("  Iron and  Ironing Board ")
	require.True(t, ok)
	assert.Equal(t, "full size ironing board with iron rest", s)

	_, ok = b.Synonym("stand mixer")
	assert.False(t, ok)
}

func TestBuildInjectedTables(t *testing.T) {
	b := NewBuilder(Config{
		Synonyms:     map[string]string{"widget": "universal widget"},
		BulkPatterns: []string{"crate of"},
	})

	assert.True(t, b.IsBulkOrGeneric("crate of parts"))
	// Injected tables replace the defaults entirely.
	assert.False(t, b.IsBulkOrGeneric("assorted utensils"))

	s, ok := b.Synonym("widget")
	require.True(t, ok)
	assert.Equal(t, "universal widget", s)
}
