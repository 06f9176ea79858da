package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agrisetu/scheme-scraper/internal/catalog"
	"github.com/agrisetu/scheme-scraper/internal/metrics"
	"github.com/agrisetu/scheme-scraper/internal/scheme"
)

// ErrRunInProgress is returned when a run fires while another is still going.
var ErrRunInProgress = errors.New("scrape run already in progress")

// Config controls Runner behavior.
type Config struct {
	// Origin is the absolute URL prefix applied to relative scheme links.
	Origin string
	// MaxPages bounds pagination per service to stop runaway scraping.
	MaxPages int
	// ArchivePrefix is the path prefix for raw page snapshots.
	ArchivePrefix string
	// Topic names the Pub/Sub topic for run summaries; empty disables publishing.
	Topic string
}

// Runner drives the full scrape: every registered service, page by page,
// extracted and upserted. One Runner serves both the eager startup run and
// the scheduler callback.
type Runner struct {
	fetcher   scheme.Fetcher
	store     scheme.Store
	archive   scheme.Archive
	publisher scheme.Publisher
	clock     scheme.Clock
	cfg       Config
	logger    *zap.Logger

	// runMu closes the overlap hazard: a firing that catches a run still in
	// progress is skipped, not queued.
	runMu sync.Mutex
}

// NewRunner constructs a Runner. Archive and publisher may be nil.
func NewRunner(
	fetcher scheme.Fetcher,
	store scheme.Store,
	archive scheme.Archive,
	publisher scheme.Publisher,
	clock scheme.Clock,
	cfg Config,
	logger *zap.Logger,
) *Runner {
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 12
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	return &Runner{
		fetcher:   fetcher,
		store:     store,
		archive:   archive,
		publisher: publisher,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// RunAll scrapes every service in the registry sequentially. A failure in
// one service never blocks the others; the only errors returned are the
// overlap guard and context cancellation.
func (r *Runner) RunAll(ctx context.Context) error {
	if !r.runMu.TryLock() {
		r.logger.Warn("scrape run skipped, previous run still in progress")
		metrics.ObserveRun("skipped", 0)
		return ErrRunInProgress
	}
	defer r.runMu.Unlock()

	runID := uuid.NewString()
	started := r.clock.Now()
	r.logger.Info("scrape run started", zap.String("run_id", runID))

	for _, svc := range catalog.Services() {
		if ctx.Err() != nil {
			r.logger.Warn("scrape run canceled", zap.String("run_id", runID), zap.Error(ctx.Err()))
			return fmt.Errorf("scrape run canceled: %w", ctx.Err())
		}
		summary := r.scrapeService(ctx, runID, svc)
		r.publishSummary(ctx, summary)
	}

	duration := r.clock.Now().Sub(started)
	metrics.ObserveRun("success", duration)
	r.logger.Info("scrape run finished",
		zap.String("run_id", runID),
		zap.Duration("duration", duration),
	)
	return nil
}

// scrapeService paginates one service and upserts whatever it collected.
// Fetch or parse failures end pagination early but keep the records from the
// pages that did succeed.
func (r *Runner) scrapeService(ctx context.Context, runID string, svc catalog.Service) scheme.RunSummary {
	logger := r.logger.With(
		zap.String("run_id", runID),
		zap.String("service_id", svc.ID),
		zap.String("category", svc.Category),
	)

	summary := scheme.RunSummary{
		RunID:     runID,
		ServiceID: svc.ID,
		Category:  svc.Category,
	}

	var collected []scheme.Scheme
	for page := 1; page <= r.cfg.MaxPages; page++ {
		logger.Debug("fetching listing page", zap.Int("page", page))

		body, err := r.fetcher.Fetch(ctx, svc.ID, page)
		if err != nil {
			summary.FetchErrors++
			metrics.ObserveFetchError(svc.ID)
			logger.Warn("page fetch failed, ending service early",
				zap.Int("page", page), zap.Error(err))
			break
		}
		summary.Pages++
		metrics.ObservePageFetched(svc.ID)
		r.archivePage(ctx, logger, runID, svc.ID, page, body)

		records, dropped, err := extractPage(body, r.cfg.Origin, svc.Category)
		if err != nil {
			summary.FetchErrors++
			metrics.ObserveFetchError(svc.ID)
			logger.Warn("page parse failed, ending service early",
				zap.Int("page", page), zap.Error(err))
			break
		}
		metrics.ObserveRecordsExtracted(svc.ID, len(records), dropped)
		if dropped > 0 {
			logger.Warn("dropped records with empty titles",
				zap.Int("page", page), zap.Int("dropped", dropped))
		}
		if len(records) == 0 {
			logger.Debug("no records on page, end of listing", zap.Int("page", page))
			break
		}

		logger.Debug("page extracted", zap.Int("page", page), zap.Int("records", len(records)))
		collected = append(collected, records...)
	}

	summary.Records = len(collected)
	for _, record := range collected {
		if err := r.store.Upsert(ctx, record); err != nil {
			summary.UpsertErrors++
			metrics.ObserveUpsertError(svc.ID)
			logger.Error("record upsert failed",
				zap.String("title", record.Title),
				zap.String("link", record.Link),
				zap.Error(err))
			continue
		}
		summary.Upserted++
		metrics.ObserveUpsert(svc.ID)
	}

	metrics.SetServiceRecords(svc.ID, summary.Records)
	summary.FinishedAt = r.clock.Now()
	logger.Info("service scraped",
		zap.Int("pages", summary.Pages),
		zap.Int("records", summary.Records),
		zap.Int("upserted", summary.Upserted),
		zap.Int("fetch_errors", summary.FetchErrors),
		zap.Int("upsert_errors", summary.UpsertErrors),
	)
	return summary
}

func (r *Runner) archivePage(ctx context.Context, logger *zap.Logger, runID, serviceID string, page int, body []byte) {
	if r.archive == nil {
		return
	}
	path := fmt.Sprintf("%s/%s/page_%d.html", runID, serviceID, page)
	if prefix := strings.Trim(r.cfg.ArchivePrefix, "/"); prefix != "" {
		path = prefix + "/" + path
	}
	if _, err := r.archive.PutObject(ctx, path, "text/html; charset=utf-8", body); err != nil {
		logger.Warn("page snapshot failed", zap.Int("page", page), zap.Error(err))
	}
}

func (r *Runner) publishSummary(ctx context.Context, summary scheme.RunSummary) {
	if r.publisher == nil || r.cfg.Topic == "" {
		return
	}
	if _, err := r.publisher.Publish(ctx, r.cfg.Topic, summary); err != nil {
		r.logger.Warn("run summary publish failed",
			zap.String("service_id", summary.ServiceID),
			zap.Error(err))
	}
}
