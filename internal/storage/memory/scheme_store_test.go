package memory

import (
	"context"
	"testing"

	"github.com/agrisetu/scheme-scraper/internal/scheme"
)

func TestUpsertIdempotent(t *testing.T) {
	t.Parallel()

	store := NewSchemeStore()
	ctx := context.Background()

	rec := scheme.Scheme{
		Title:       "Soil Health Card",
		Link:        "https://services.india.gov.in/service/detail/soil",
		Description: "first pass",
		Category:    "Agriculture & Rural Development",
		SubCategory: "Soil & Fertility",
	}
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	rec.Description = "second pass"
	if err := store.Upsert(ctx, rec); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(got))
	}
	if got[0].Description != "second pass" {
		t.Fatalf("expected second write to win, got %q", got[0].Description)
	}
}

func TestListSorted(t *testing.T) {
	t.Parallel()

	store := NewSchemeStore()
	ctx := context.Background()

	records := []scheme.Scheme{
		{Title: "Zed Scheme", Link: "https://example.gov/z", Category: "B"},
		{Title: "Alpha Scheme", Link: "https://example.gov/a", Category: "B"},
		{Title: "Mid Scheme", Link: "https://example.gov/m", Category: "A"},
	}
	for _, rec := range records {
		if err := store.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert() error = %v", err)
		}
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Title != "Mid Scheme" || got[1].Title != "Alpha Scheme" || got[2].Title != "Zed Scheme" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestDistinctKeysCoexist(t *testing.T) {
	t.Parallel()

	store := NewSchemeStore()
	ctx := context.Background()

	a := scheme.Scheme{Title: "Same Title", Link: "https://example.gov/a"}
	b := scheme.Scheme{Title: "Same Title", Link: "https://example.gov/b"}
	if err := store.Upsert(ctx, a); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if err := store.Upsert(ctx, b); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, _ := store.List(ctx)
	if len(got) != 2 {
		t.Fatalf("expected link to participate in identity, got %d records", len(got))
	}
}
