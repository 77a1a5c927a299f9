// Package textnorm holds the text normalization shared by cache keys, the
// query builder and the offer ranker.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spaceCollapser = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// Key normalizes a string for use as a cache key: lowercase, diacritics
// folded, whitespace collapsed to single spaces, trimmed.
func Key(s string) string {
	s = RemoveDiacritics(strings.ToLower(spaceCollapser.Replace(s)))
	return strings.Join(strings.Fields(s), " ")
}

// RemoveDiacritics folds accented characters to their ASCII base form.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// fillerWords are dropped from retail search queries; they never carry
// product signal.
var fillerWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "for": true,
	"with": true, "and": true, "or": true, "in": true, "on": true,
	"set": true, "misc": true, "miscellaneous": true, "assorted": true,
	"various": true, "item": true, "items": true, "lot": true,
	"new": true, "used": true, "old": true,
}

// Tokens splits a normalized string into lowercase word tokens.
func Tokens(s string) []string {
	return strings.Fields(Key(s))
}

// CoreNouns returns the product-bearing tokens of a title, filler removed,
// order preserved, duplicates dropped.
func CoreNouns(title string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokens(title) {
		tok = strings.Trim(tok, ".,;:!?()[]\"'")
		if tok == "" || fillerWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

// DedupeBrand collapses a duplicated leading brand token, e.g.
// "Bissell Bissell Vacuum" -> "Bissell Vacuum".
func DedupeBrand(description string) string {
	fields := strings.Fields(description)
	var out []string
	for i, f := range fields {
		if i > 0 && strings.EqualFold(f, fields[i-1]) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

// Truncate trims a query to at most max characters without splitting a word.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := s[:max]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

// TokenOverlap computes a symmetric token-set similarity in [0,1] between
// two strings. Used as the offer title similarity measure.
func TokenOverlap(a, b string) float64 {
	ta, tb := Tokens(a), Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	set := make(map[string]bool, len(ta))
	for _, t := range ta {
		set[t] = true
	}
	var hits int
	seen := make(map[string]bool, len(tb))
	for _, t := range tb {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			hits++
		}
	}
	union := len(set) + len(seen) - hits
	if union == 0 {
		return 0
	}
	return float64(hits) / float64(union)
}
