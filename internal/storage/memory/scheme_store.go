// Package memory provides an in-memory scheme store for development/testing.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/agrisetu/scheme-scraper/internal/scheme"
)

// SchemeStore implements scheme.Store with an in-memory map keyed by the
// (title, link) natural key.
type SchemeStore struct {
	mu      sync.RWMutex
	records map[scheme.Key]scheme.Scheme
}

// NewSchemeStore constructs a SchemeStore.
func NewSchemeStore() *SchemeStore {
	return &SchemeStore{
		records: make(map[scheme.Key]scheme.Scheme),
	}
}

// Upsert inserts or overwrites the record for its natural key.
func (s *SchemeStore) Upsert(_ context.Context, record scheme.Scheme) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.Key()] = record
	return nil
}

// List returns all stored records sorted by category then title.
func (s *SchemeStore) List(_ context.Context) ([]scheme.Scheme, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]scheme.Scheme, 0, len(s.records))
	for _, record := range s.records {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Ping always succeeds for the in-memory store.
func (s *SchemeStore) Ping(context.Context) error {
	return nil
}

// Close implements scheme.Store; it performs no action.
func (s *SchemeStore) Close() {}
