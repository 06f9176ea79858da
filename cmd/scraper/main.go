// Package main wires together the scheme scraper service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gcpubsub "cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/agrisetu/scheme-scraper/internal/api"
	archivegcs "github.com/agrisetu/scheme-scraper/internal/archive/gcs"
	archivelocal "github.com/agrisetu/scheme-scraper/internal/archive/local"
	archivememory "github.com/agrisetu/scheme-scraper/internal/archive/memory"
	"github.com/agrisetu/scheme-scraper/internal/clock/system"
	"github.com/agrisetu/scheme-scraper/internal/config"
	collyfetcher "github.com/agrisetu/scheme-scraper/internal/fetcher/colly"
	"github.com/agrisetu/scheme-scraper/internal/logging"
	publisherpubsub "github.com/agrisetu/scheme-scraper/internal/publisher/pubsub"
	"github.com/agrisetu/scheme-scraper/internal/scheduler"
	"github.com/agrisetu/scheme-scraper/internal/scheme"
	"github.com/agrisetu/scheme-scraper/internal/scraper"
	storagememory "github.com/agrisetu/scheme-scraper/internal/storage/memory"
	"github.com/agrisetu/scheme-scraper/internal/storage/postgres"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := system.New()

	store, err := newStore(ctx, cfg, clock, logger)
	if err != nil {
		logger.Fatal("store init failed", zap.Error(err))
	}
	defer store.Close()

	archive, err := newArchive(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("archive init failed", zap.Error(err))
	}

	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("publisher init failed", zap.Error(err))
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		BaseURL:   cfg.Scraper.BaseURL,
		UserAgent: cfg.Scraper.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	runner := scraper.NewRunner(fetcher, store, archive, publisher, clock, scraper.Config{
		Origin:        cfg.Scraper.BaseURL,
		MaxPages:      cfg.Scraper.MaxPages,
		ArchivePrefix: cfg.Archive.Prefix,
		Topic:         cfg.PubSub.TopicName,
	}, logger.Named("scraper"))

	sched := scheduler.New(logger.Named("scheduler"))
	if err := sched.Schedule(cfg.Scraper.Schedule, func() {
		if err := runner.RunAll(ctx); err != nil && !errors.Is(err, scraper.ErrRunInProgress) {
			logger.Error("scheduled scrape run failed", zap.Error(err))
		}
	}); err != nil {
		logger.Fatal("schedule scrape run failed", zap.Error(err))
	}

	apiServer := api.NewServer(store, logger.Named("api"))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.Scraper.RunOnStart {
		go func() {
			logger.Info("startup scrape run started")
			if err := runner.RunAll(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("startup scrape run failed", zap.Error(err))
			}
		}()
	}

	sched.Start()

	go func() {
		logger.Info("http server started", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	select {
	case <-sched.Stop().Done():
	case <-shutdownCtx.Done():
		logger.Warn("scheduled run did not finish before shutdown deadline")
	}
	logger.Info("shutdown complete")
}

// newStore selects Postgres when a DSN is configured and falls back to the
// in-memory store otherwise. A Postgres store that cannot be reached at
// startup is fatal rather than silently degraded.
func newStore(ctx context.Context, cfg config.Config, clock scheme.Clock, logger *zap.Logger) (scheme.Store, error) {
	if cfg.DB.DSN == "" {
		logger.Warn("no database configured, using in-memory store")
		return storagememory.NewSchemeStore(), nil
	}

	store, err := postgres.NewSchemeStore(ctx, postgres.SchemeStoreConfig{
		DSN:      cfg.DB.DSN,
		Table:    cfg.DB.Table,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	}, clock)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		store.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return store, nil
}

func newArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (scheme.Archive, error) {
	switch cfg.Archive.Backend {
	case "":
		logger.Info("page archiving disabled")
		return nil, nil
	case "memory":
		return archivememory.NewBlobStore(), nil
	case "local":
		return archivelocal.New(archivelocal.Config{BaseDir: cfg.Archive.BaseDir})
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("create storage client: %w", err)
		}
		return archivegcs.New(client, archivegcs.Config{Bucket: cfg.Archive.GCSBucket})
	default:
		return nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (scheme.Publisher, error) {
	if cfg.PubSub.TopicName == "" {
		logger.Info("run summary publishing disabled")
		return nil, nil
	}
	client, err := gcpubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return publisherpubsub.New(client)
}
