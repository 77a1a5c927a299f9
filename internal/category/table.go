// Package category assigns depreciation classes to priced items through
// three tiers: keyword dictionary, LLM classification with fuzzy repair,
// and heuristic defaults.
package category

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Entry is one depreciation class.
type Entry struct {
	Name string  `json:"name"`
	Rate float64 `json:"dep_rate"`
}

// Table is the fixed category set with annual depreciation rates.
type Table struct {
	entries []Entry
	rates   map[string]float64
}

// fallbackEntries is the compiled-in table used when no table file loads.
var fallbackEntries = []Entry{
	{"APM - APPLIANCES (MAJOR)", 0.0667},
	{"APS - APPLIANCES (SMALL)", 0.10},
	{"ELC - ELECTRONICS A", 0.20},
	{"ELC - ELECTRONICS B", 0.10},
	{"FRN - FURNITURE", 0.10},
	{"KCW - KITCHEN (STORAGE)", 0.0667},
	{"KCW - KITCHEN (COOKWARE)", 0.10},
	{"LIN - LINENS", 0.125},
	{"CLT - CLOTHING", 0.20},
	{"SHO - SHOES", 0.25},
	{"TOY - TOYS", 0.20},
	{"SPG - SPORTING GOODS", 0.10},
	{"TLS - TOOLS", 0.0667},
	{"LWN - LAWN AND GARDEN", 0.10},
	{"DEC - DECOR", 0.10},
	{"LGT - LIGHTING", 0.10},
	{"BKS - BOOKS AND MEDIA", 0.05},
	{"JWL - JEWELRY", 0.0},
	{"ART - ARTWORK", 0.0},
	{"OFF - OFFICE SUPPLIES", 0.20},
	{"HBA - HEALTH AND BEAUTY", 0.3333},
	{"CLN - CLEANING SUPPLIES", 0.3333},
	{"PET - PET SUPPLIES", 0.20},
	{"MSC - MISCELLANEOUS", 0.10},
}

// LoadTable reads a {name, dep_rate} JSON array from path. An empty path
// or any load error yields the compiled-in fallback.
func LoadTable(path string, log zerolog.Logger) *Table {
	if path != "" {
		raw, err := os.ReadFile(path)
		if err == nil {
			var entries []Entry
			if err = json.Unmarshal(raw, &entries); err == nil && len(entries) > 0 {
				return newTable(entries)
			}
		}
		log.Warn().Err(err).Str("path", path).Msg("category table load failed, using compiled fallback")
	}
	return newTable(fallbackEntries)
}

func newTable(entries []Entry) *Table {
	rates := make(map[string]float64, len(entries))
	for _, e := range entries {
		rates[normalizeName(e.Name)] = e.Rate
	}
	return &Table{entries: entries, rates: rates}
}

// Names returns the category names in table order.
func (t *Table) Names() []string {
	names := make([]string, len(t.entries))
	for i, e := range t.entries {
		names[i] = e.Name
	}
	return names
}

// Rate returns the annual depreciation rate for a category, zero when
// the category is unknown or empty.
func (t *Table) Rate(name string) float64 {
	return t.rates[normalizeName(name)]
}

// Contains reports whether name is an exact member of the table.
func (t *Table) Contains(name string) bool {
	_, ok := t.rates[normalizeName(name)]
	return ok && name != ""
}

// Canonical maps a near-miss onto the exact table spelling: exact match
// first, then token containment. An ambiguous label that matches several
// classes repairs onto the one with the lowest depreciation rate, so a
// bare "ELECTRONICS" lands on "ELC - ELECTRONICS B".
func (t *Table) Canonical(name string) (string, bool) {
	n := normalizeName(name)
	if n == "" {
		return "", false
	}
	for _, e := range t.entries {
		if normalizeName(e.Name) == n {
			return e.Name, true
		}
	}

	var best Entry
	found := false
	consider := func(e Entry) {
		if !found || e.Rate < best.Rate {
			best, found = e, true
		}
	}
	for _, e := range t.entries {
		en := normalizeName(e.Name)
		if strings.Contains(en, n) || strings.Contains(n, en) {
			consider(e)
			continue
		}
		if idx := strings.Index(en, " - "); idx > 0 {
			label := en[idx+3:]
			if strings.Contains(label, n) || strings.Contains(n, label) {
				consider(e)
			}
		}
	}
	return best.Name, found
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
