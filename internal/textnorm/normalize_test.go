package textnorm

import (
	"testing"
)

func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Lowercase", "KitchenAid Mixer", "kitchenaid mixer"},
		{"Collapse whitespace", "  stand   mixer \t 5qt ", "stand mixer 5qt"},
		{"Fold diacritics", "Café Crème", "cafe creme"},
		{"Newlines", "iron\nand board", "iron and board"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Key(tt.input)
			if result != tt.expected {
				t.Errorf("Key(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestKeyIdempotent(t *testing.T) {
	inputs := []string{"KitchenAid  Mixer", "café", "a  b\tc"}
	for _, in := range inputs {
		once := Key(in)
		if twice := Key(once); twice != once {
			t.Errorf("Key not idempotent for %q: %q != %q", in, once, twice)
		}
	}
}

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Crème brûlée", "Creme brulee"},
		{"naïve", "naive"},
		{"plain ascii", "plain ascii"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := RemoveDiacritics(tt.input)
			if result != tt.expected {
				t.Errorf("RemoveDiacritics(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCoreNouns(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"Drops filler", "a set of used kitchen knives", []string{"kitchen", "knives"}},
		{"Dedupes tokens", "vacuum vacuum cleaner", []string{"vacuum", "cleaner"}},
		{"Keeps order", "stainless steel stock pot", []string{"stainless", "steel", "stock", "pot"}},
		{"All filler", "misc assorted items", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CoreNouns(tt.input)
			if len(result) != len(tt.expected) {
				t.Fatalf("CoreNouns(%q) = %v, want %v", tt.input, result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("CoreNouns(%q)[%d] = %q, want %q", tt.input, i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDedupeBrand(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Bissell Bissell Vacuum", "Bissell Vacuum"},
		{"bissell Bissell vacuum", "bissell vacuum"},
		{"KitchenAid Stand Mixer", "KitchenAid Stand Mixer"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := DedupeBrand(tt.input)
			if result != tt.expected {
				t.Errorf("DedupeBrand(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"Under limit", "short query", 80, "short query"},
		{"Cuts on word boundary", "one two three four", 12, "one two"},
		{"Exact limit", "abcdef", 6, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Truncate(tt.input, tt.max)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, result, tt.expected)
			}
			if len(result) > tt.max {
				t.Errorf("Truncate(%q, %d) returned %d chars", tt.input, tt.max, len(result))
			}
		})
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"Identical", "stand mixer", "stand mixer", 1.0},
		{"Disjoint", "stand mixer", "garden hose", 0.0},
		{"Empty side", "", "stand mixer", 0.0},
		{"Half overlap", "red stand mixer", "stand mixer bowl", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenOverlap(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("TokenOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestTokenOverlapSymmetric(t *testing.T) {
	a, b := "KitchenAid 5qt stand mixer", "stand mixer 5qt bowl"
	if TokenOverlap(a, b) != TokenOverlap(b, a) {
		t.Error("TokenOverlap should be symmetric")
	}
}
