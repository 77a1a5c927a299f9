package category

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claimstack/pricing-service/internal/cache"
	"github.com/claimstack/pricing-service/internal/llm"
	"github.com/claimstack/pricing-service/internal/types"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.calls++
	return f.reply, f.err
}

func fallbackTable() *Table {
	return LoadTable("", zerolog.Nop())
}

func TestKeywordMatch(t *testing.T) {
	tests := []struct {
		description string
		want        string
	}{
		{"KitchenAid stand mixer", "KCW - KITCHEN (STORAGE)"},
		{"table lamp", "LGT - LIGHTING"},
		{"leather sofa", "FRN - FURNITURE"},
		{"Samsung 55 inch TV", "ELC - ELECTRONICS B"},
		{"mystery item", ""},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			assert.Equal(t, tt.want, keywordMatch(tt.description))
		})
	}
}

func TestKeywordMatchMostHitsWins(t *testing.T) {
	// Two cookware hits beat one storage hit.
	got := keywordMatch("pot and pan rack")
	assert.Equal(t, "KCW - KITCHEN (COOKWARE)", got)
}

func TestHeuristicMatch(t *testing.T) {
	assert.Equal(t, "ELC - ELECTRONICS B", heuristicMatch("small electronic gadget"))
	assert.Equal(t, "LIN - LINENS", heuristicMatch("bedding bundle"))
	assert.Equal(t, "", heuristicMatch("widget"))
}

func TestCategorizeKeywordTierSkipsLLM(t *testing.T) {
	fc := &fakeCompleter{reply: "should not be called"}
	c := New(fallbackTable(), fc, nil, zerolog.Nop())

	cat := c.Categorize(context.Background(), "stand mixer", "", "", 100)
	assert.Equal(t, "KCW - KITCHEN (STORAGE)", cat.Category)
	assert.Equal(t, types.MethodKeyword, cat.Method)
	assert.Equal(t, 0, fc.calls)
	assert.InDelta(t, 0.0667, cat.DepRate, 1e-9)
	assert.Equal(t, 6.67, cat.DepAmount)
}

func TestCategorizeLLMExact(t *testing.T) {
	fc := &fakeCompleter{reply: "SPG - SPORTING GOODS"}
	c := New(fallbackTable(), fc, nil, zerolog.Nop())

	cat := c.Categorize(context.Background(), "inflatable kayak", "", "", 200)
	assert.Equal(t, "SPG - SPORTING GOODS", cat.Category)
	assert.Equal(t, types.MethodLLM, cat.Method)
	assert.Equal(t, 20.0, cat.DepAmount)
}

func TestCategorizeLLMFuzzyRepair(t *testing.T) {
	fc := &fakeCompleter{reply: "Sporting Goods"}
	c := New(fallbackTable(), fc, nil, zerolog.Nop())

	cat := c.Categorize(context.Background(), "inflatable kayak", "", "", 200)
	assert.Equal(t, "SPG - SPORTING GOODS", cat.Category)
	assert.Equal(t, types.MethodFuzzy, cat.Method)
}

func TestCategorizeHeuristicTier(t *testing.T) {
	fc := &fakeCompleter{err: errors.New("down")}
	c := New(fallbackTable(), fc, nil, zerolog.Nop())

	cat := c.Categorize(context.Background(), "garden kneeler", "", "", 40)
	assert.Equal(t, "LWN - LAWN AND GARDEN", cat.Category)
	assert.Equal(t, types.MethodDefault, cat.Method)
}

func TestCategorizeUnknownIsEmpty(t *testing.T) {
	c := New(fallbackTable(), nil, nil, zerolog.Nop())

	cat := c.Categorize(context.Background(), "zzyzx", "", "", 500)
	assert.Equal(t, "", cat.Category)
	assert.Equal(t, 0.0, cat.DepRate)
	assert.Equal(t, 0.0, cat.DepAmount)
}

func TestCategorizeCachedEntryRecomputesAmount(t *testing.T) {
	fc := &fakeCompleter{reply: "SPG - SPORTING GOODS"}
	c := New(fallbackTable(), fc, cache.New(time.Minute, 10), zerolog.Nop())

	first := c.Categorize(context.Background(), "inflatable kayak", "", "", 100)
	second := c.Categorize(context.Background(), "inflatable kayak", "", "", 300)

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, first.Category, second.Category)
	assert.Equal(t, 10.0, first.DepAmount)
	assert.Equal(t, 30.0, second.DepAmount)
}

func TestCategorizeBatch(t *testing.T) {
	fc := &fakeCompleter{reply: "1. LGT - LIGHTING\n2. Furniture\n3. gibberish answer"}
	c := New(fallbackTable(), fc, nil, zerolog.Nop())

	cats := c.CategorizeBatch(context.Background(), []string{
		"table lamp",
		"oak dresser",
		"stand mixer",
	})

	require.Len(t, cats, 3)
	assert.Equal(t, "LGT - LIGHTING", cats[0].Category)
	assert.Equal(t, types.MethodLLM, cats[0].Method)
	assert.Equal(t, "FRN - FURNITURE", cats[1].Category)
	assert.Equal(t, types.MethodFuzzy, cats[1].Method)
	// The unrepairable line falls back to the keyword tier.
	assert.Equal(t, "KCW - KITCHEN (STORAGE)", cats[2].Category)
	assert.Equal(t, types.MethodKeyword, cats[2].Method)
	assert.Equal(t, 1, fc.calls)
}

func TestCategorizeBatchEmpty(t *testing.T) {
	c := New(fallbackTable(), nil, nil, zerolog.Nop())
	assert.Empty(t, c.CategorizeBatch(context.Background(), nil))
}

func TestTableCanonical(t *testing.T) {
	table := fallbackTable()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"LGT - LIGHTING", "LGT - LIGHTING", true},
		{"lighting", "LGT - LIGHTING", true},
		{"ELC - ELECTRONICS A", "ELC - ELECTRONICS A", true},
		// Ambiguous between the two electronics classes; the lower rate wins.
		{"Electronics", "ELC - ELECTRONICS B", true},
		{"Appliances", "APM - APPLIANCES (MAJOR)", true},
		{"nothing close", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := table.Canonical(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadTableFromFile(t *testing.T) {
	path := t.TempDir() + "/table.json"
	err := os.WriteFile(path, []byte(`[{"name": "ONE - CUSTOM", "dep_rate": 0.5}]`), 0o644)
	require.NoError(t, err)

	table := LoadTable(path, zerolog.Nop())
	assert.Equal(t, []string{"ONE - CUSTOM"}, table.Names())
	assert.Equal(t, 0.5, table.Rate("one - custom"))
}

func TestLoadTableBadFileFallsBack(t *testing.T) {
	table := LoadTable("/nonexistent/table.json", zerolog.Nop())
	assert.True(t, table.Contains("MSC - MISCELLANEOUS"))
}
