package catalog_test

import (
	"testing"

	"github.com/agrisetu/scheme-scraper/internal/catalog"
)

func TestSubcategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{"irrigation keyword", "drip irrigation system", "Irrigation & Water"},
		{"case insensitive", "SOIL Health Card testing", "Soil & Fertility"},
		{"seed", "distribution of certified seed", "Seeds & Fertilizers"},
		{"machinery", "subsidy on farm machinery", "Equipment & Machinery"},
		{"pmfby", "enrol under PMFBY today", "Insurance"},
		{"credit", "kisan credit card scheme", "Credit & Loans"},
		{"mandi", "sell produce at the mandi", "Market Access & MSP"},
		{"organic", "organic certification support", "Organic Farming"},
		{"dairy", "dairy entrepreneurship development", "Animal Husbandry"},
		{"training", "skill development training", "Training & Awareness"},
		{"startup", "agri startup incubation", "Agri-Tech & Innovation"},
		{"farmer", "assistance for small farmer families", "Farming Support"},
		{"fallback", "random unrelated text", "General Agriculture"},
		{"empty input", "", "General Agriculture"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := catalog.Subcategory(tc.text); got != tc.want {
				t.Fatalf("Subcategory(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}

// Earlier rules must win over later ones when several match; "crop insurance"
// contains both an Insurance keyword and the Farming Support "crop" keyword.
func TestSubcategoryFirstMatchWins(t *testing.T) {
	t.Parallel()

	if got := catalog.Subcategory("crop insurance against crop loss"); got != "Insurance" {
		t.Fatalf("expected Insurance, got %q", got)
	}
	// "water" (rule 1) appears after "loan" (rule 6) in the text; rule order,
	// not text order, decides.
	if got := catalog.Subcategory("loan for water pumps"); got != "Irrigation & Water" {
		t.Fatalf("expected Irrigation & Water, got %q", got)
	}
}

func TestSubcategoryPure(t *testing.T) {
	t.Parallel()

	const text = "subsidised fertilizer for cultivation"
	first := catalog.Subcategory(text)
	for i := 0; i < 100; i++ {
		if got := catalog.Subcategory(text); got != first {
			t.Fatalf("classification not deterministic: %q vs %q", got, first)
		}
	}
}

func TestSubcategoriesIncludesFallback(t *testing.T) {
	t.Parallel()

	labels := catalog.Subcategories()
	if len(labels) != 13 {
		t.Fatalf("expected 13 labels, got %d", len(labels))
	}
	if labels[len(labels)-1] != catalog.DefaultSubcategory {
		t.Fatalf("expected fallback last, got %q", labels[len(labels)-1])
	}
}
