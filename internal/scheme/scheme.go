// Package scheme defines core types shared across subsystems.
package scheme

import (
	"context"
	"time"
)

// Scheme is the unit of extraction and storage: one government offering
// scraped from the listing site. The JSON field names match the document
// shape served to listing clients.
type Scheme struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	Eligibility string `json:"eligibility"`
	Category    string `json:"category"`
	SubCategory string `json:"subCategory"`
}

// Key is the natural identity of a Scheme across runs. No other identity
// field exists; records are created once and overwritten in place on every
// later observation.
type Key struct {
	Title string
	Link  string
}

// Key returns the natural key for the record.
func (s Scheme) Key() Key {
	return Key{Title: s.Title, Link: s.Link}
}

// RunSummary captures the outcome of one service's scrape within a run.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	ServiceID    string    `json:"service_id"`
	Category     string    `json:"category"`
	Pages        int       `json:"pages"`
	Records      int       `json:"records"`
	Upserted     int       `json:"upserted"`
	FetchErrors  int       `json:"fetch_errors"`
	UpsertErrors int       `json:"upsert_errors"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Fetcher retrieves one listing page for a service identifier.
type Fetcher interface {
	Fetch(ctx context.Context, serviceID string, page int) ([]byte, error)
}

// Store persists schemes keyed by their natural key.
type Store interface {
	// Upsert inserts the record or overwrites all non-key fields of an
	// existing record with the same (title, link). Safe to call repeatedly
	// with identical input.
	Upsert(ctx context.Context, s Scheme) error
	// List returns every stored record.
	List(ctx context.Context) ([]Scheme, error)
	Ping(ctx context.Context) error
	Close()
}

// Archive stores raw page snapshots and returns a URI.
type Archive interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// Publisher pushes run summaries to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
