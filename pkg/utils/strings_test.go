package utils

import (
	"math"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected int
	}{
		{"identical", "sozialwerk", "sozialwerk", 0},
		{"empty vs word", "", "abc", 3},
		{"word vs empty", "abc", "", 3},
		{"both empty", "", "", 0},
		{"differing suffix", "sozialwerk ost", "sozialwerk west", 2},
		{"kitten sitting", "kitten", "sitting", 3},
		{"unicode runes", "größe", "grosse", 3},
		{"transposed chars", "ab", "ba", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Levenshtein(tt.a, tt.b); got != tt.expected {
				t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestLevenshtein_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"alpha", "alphabet"},
		{"kinderhilfe", "kinderhilfswerk"},
		{"", "x"},
	}
	for _, p := range pairs {
		if d1, d2 := Levenshtein(p[0], p[1]), Levenshtein(p[1], p[0]); d1 != d2 {
			t.Errorf("Levenshtein not symmetric for %q/%q: %d vs %d", p[0], p[1], d1, d2)
		}
	}
}

func TestCalculateStringSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected float64
	}{
		{"identical", "musterfirma", "musterfirma", 1.0},
		{"both empty", "", "", 1.0},
		{"completely different length one", "a", "z", 0.0},
		{"one empty", "abcd", "", 0.0},
		{"half overlap", "ab", "ax", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateStringSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("CalculateStringSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestCalculateStringSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"sozialwerk ost", "sozialwerk west"},
		{"kinderhilfe", "kinderhilfswerk"},
		{"alpha", "beta"},
	}
	for _, p := range pairs {
		got := CalculateStringSimilarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("similarity of %q/%q out of range: %v", p[0], p[1], got)
		}
		if inv := CalculateStringSimilarity(p[1], p[0]); math.Abs(inv-got) > 1e-9 {
			t.Errorf("similarity not symmetric for %q/%q: %v vs %v", p[0], p[1], got, inv)
		}
	}
}
