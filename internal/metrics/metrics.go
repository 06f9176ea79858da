// Package metrics exposes Prometheus collectors for the scraper service.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal     *prometheus.CounterVec
	fetchErrorsTotal      *prometheus.CounterVec
	recordsExtractedTotal *prometheus.CounterVec
	recordsDroppedTotal   *prometheus.CounterVec
	upsertsTotal          *prometheus.CounterVec
	upsertErrorsTotal     *prometheus.CounterVec
	serviceRecords        *prometheus.GaugeVec
	runsTotal             *prometheus.CounterVec
	runDurationSeconds    prometheus.Histogram

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_pages_fetched_total",
				Help: "Total listing pages fetched successfully, labeled by service id.",
			},
			[]string{"service"},
		)

		fetchErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_fetch_errors_total",
				Help: "Total page fetch failures, labeled by service id.",
			},
			[]string{"service"},
		)

		recordsExtractedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_records_extracted_total",
				Help: "Total scheme records extracted, labeled by service id.",
			},
			[]string{"service"},
		)

		recordsDroppedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_records_dropped_total",
				Help: "Total extracted records dropped for having no title, labeled by service id.",
			},
			[]string{"service"},
		)

		upsertsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_upserts_total",
				Help: "Total successful record upserts, labeled by service id.",
			},
			[]string{"service"},
		)

		upsertErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_upsert_errors_total",
				Help: "Total per-record persistence failures, labeled by service id.",
			},
			[]string{"service"},
		)

		serviceRecords = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scraper_service_records",
				Help: "Records collected for each service on the most recent run. A sudden drop signals silent truncation.",
			},
			[]string{"service"},
		)

		runsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scraper_runs_total",
				Help: "Total scrape runs, labeled by result (success, skipped).",
			},
			[]string{"result"},
		)

		runDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scraper_run_duration_seconds",
				Help:    "Wall time per completed scrape run.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePageFetched increments the per-service page counter.
func ObservePageFetched(service string) {
	pagesFetchedTotal.WithLabelValues(service).Inc()
}

// ObserveFetchError increments the per-service fetch failure counter.
func ObserveFetchError(service string) {
	fetchErrorsTotal.WithLabelValues(service).Inc()
}

// ObserveRecordsExtracted adds extracted and dropped record counts for a service.
func ObserveRecordsExtracted(service string, extracted, dropped int) {
	recordsExtractedTotal.WithLabelValues(service).Add(float64(extracted))
	if dropped > 0 {
		recordsDroppedTotal.WithLabelValues(service).Add(float64(dropped))
	}
}

// ObserveUpsert increments the per-service upsert counter.
func ObserveUpsert(service string) {
	upsertsTotal.WithLabelValues(service).Inc()
}

// ObserveUpsertError increments the per-service upsert failure counter.
func ObserveUpsertError(service string) {
	upsertErrorsTotal.WithLabelValues(service).Inc()
}

// SetServiceRecords records the per-service collection size for the last run.
func SetServiceRecords(service string, count int) {
	serviceRecords.WithLabelValues(service).Set(float64(count))
}

// ObserveRun records a completed run with its duration.
func ObserveRun(result string, duration time.Duration) {
	runsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		runDurationSeconds.Observe(duration.Seconds())
	}
}
