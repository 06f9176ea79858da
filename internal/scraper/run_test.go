package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	archivememory "github.com/agrisetu/scheme-scraper/internal/archive/memory"
	publishermemory "github.com/agrisetu/scheme-scraper/internal/publisher/memory"
	"github.com/agrisetu/scheme-scraper/internal/scheme"
	storagememory "github.com/agrisetu/scheme-scraper/internal/storage/memory"
)

type fetchResult struct {
	body []byte
	err  error
}

// fakeFetcher serves canned pages per (service, page) and records every
// call. Services or pages without an entry get an empty listing.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]map[int]fetchResult
	calls map[string][]int

	block   chan struct{}
	started chan struct{}
	once    sync.Once
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]map[int]fetchResult),
		calls: make(map[string][]int),
	}
}

func (f *fakeFetcher) set(serviceID string, page int, res fetchResult) {
	if f.pages[serviceID] == nil {
		f.pages[serviceID] = make(map[int]fetchResult)
	}
	f.pages[serviceID][page] = res
}

func (f *fakeFetcher) Fetch(ctx context.Context, serviceID string, page int) ([]byte, error) {
	if f.started != nil {
		f.once.Do(func() { close(f.started) })
	}
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[serviceID] = append(f.calls[serviceID], page)
	if res, ok := f.pages[serviceID][page]; ok {
		return res.body, res.err
	}
	return []byte("<html><body></body></html>"), nil
}

func (f *fakeFetcher) callsFor(serviceID string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls[serviceID]...)
}

func listingHTML(titles ...string) []byte {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, title := range titles {
		fmt.Fprintf(&b,
			`<div class="listing-service"><h3><a class="ext-link" href="/service/detail/%d">%s</a></h3>`+
				`<p>support for farmer families</p></div>`,
			i, title)
	}
	b.WriteString("</body></html>")
	return []byte(b.String())
}

type testClock struct{}

func (testClock) Now() time.Time { return time.Now().UTC() }

func TestRunAllPersistsAndPublishes(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.set("11", 1, fetchResult{body: listingHTML("Drip Irrigation Subsidy", "Soil Health Card")})

	store := storagememory.NewSchemeStore()
	archive := archivememory.NewBlobStore()
	publisher := publishermemory.New()

	runner := NewRunner(fetcher, store, archive, publisher, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
		Topic:    "scheme-runs",
	}, nil)

	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	records, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, record := range records {
		if record.Category != "Agriculture & Rural Development" {
			t.Fatalf("expected service-level category, got %q", record.Category)
		}
		if !strings.HasPrefix(record.Link, "https://services.india.gov.in/service/detail/") {
			t.Fatalf("expected absolute link, got %q", record.Link)
		}
	}

	msgs := publisher.Messages()
	if len(msgs) != 13 {
		t.Fatalf("expected one summary per service, got %d", len(msgs))
	}
	var found bool
	for _, msg := range msgs {
		summary, ok := msg.Payload.(scheme.RunSummary)
		if !ok {
			t.Fatalf("unexpected payload type %T", msg.Payload)
		}
		if summary.ServiceID != "11" {
			continue
		}
		found = true
		if summary.Pages != 2 || summary.Records != 2 || summary.Upserted != 2 {
			t.Fatalf("unexpected summary %+v", summary)
		}
		if summary.RunID == "" {
			t.Fatal("expected run id on summary")
		}
	}
	if !found {
		t.Fatal("expected a summary for service 11")
	}

	if archive.Len() == 0 {
		t.Fatal("expected page snapshots to be archived")
	}
}

func TestEmptyFirstPageTerminatesService(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	store := storagememory.NewSchemeStore()
	runner := NewRunner(fetcher, store, nil, nil, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
	}, nil)

	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	records, _ := store.List(context.Background())
	if len(records) != 0 {
		t.Fatalf("expected nothing persisted, got %d records", len(records))
	}
	if calls := fetcher.callsFor("11"); len(calls) != 1 || calls[0] != 1 {
		t.Fatalf("expected exactly one fetch for service 11, got %v", calls)
	}
}

func TestPaginationStopsAtBound(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	for page := 1; page <= 20; page++ {
		fetcher.set("11", page, fetchResult{body: listingHTML(fmt.Sprintf("Scheme %02d", page))})
	}

	store := storagememory.NewSchemeStore()
	runner := NewRunner(fetcher, store, nil, nil, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
	}, nil)

	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	calls := fetcher.callsFor("11")
	if len(calls) != 12 {
		t.Fatalf("expected 12 fetches, got %d (%v)", len(calls), calls)
	}
	if calls[len(calls)-1] != 12 {
		t.Fatalf("expected last fetched page to be 12, got %d", calls[len(calls)-1])
	}
}

func TestFetchFailureKeepsEarlierPages(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.set("11", 1, fetchResult{body: listingHTML("Scheme A")})
	fetcher.set("11", 2, fetchResult{body: listingHTML("Scheme B")})
	fetcher.set("11", 3, fetchResult{err: errors.New("connection timed out")})

	store := storagememory.NewSchemeStore()
	runner := NewRunner(fetcher, store, nil, nil, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
	}, nil)

	// A mid-service fetch failure must not surface as a run error.
	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}

	records, _ := store.List(context.Background())
	if len(records) != 2 {
		t.Fatalf("expected records from pages 1-2 persisted, got %d", len(records))
	}
	if calls := fetcher.callsFor("11"); len(calls) != 3 {
		t.Fatalf("expected pagination to stop after the failure, got %v", calls)
	}
}

func TestRunAllOverlapIsSkipped(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	fetcher.block = make(chan struct{})
	fetcher.started = make(chan struct{})

	store := storagememory.NewSchemeStore()
	runner := NewRunner(fetcher, store, nil, nil, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
	}, nil)

	done := make(chan error, 1)
	go func() {
		done <- runner.RunAll(context.Background())
	}()

	<-fetcher.started
	if err := runner.RunAll(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("expected ErrRunInProgress, got %v", err)
	}

	close(fetcher.block)
	if err := <-done; err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	// With the first run finished the guard must be released again.
	if err := runner.RunAll(context.Background()); err != nil {
		t.Fatalf("expected a fresh run to proceed, got %v", err)
	}
}

func TestRunAllCanceledContext(t *testing.T) {
	t.Parallel()

	fetcher := newFakeFetcher()
	store := storagememory.NewSchemeStore()
	runner := NewRunner(fetcher, store, nil, nil, testClock{}, Config{
		Origin:   "https://services.india.gov.in",
		MaxPages: 12,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := runner.RunAll(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}
