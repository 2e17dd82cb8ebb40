// Package metrics exposes Prometheus collectors for the ingestion service.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal *prometheus.CounterVec
	rowsTotal         *prometheus.CounterVec
	taskRunsTotal     *prometheus.CounterVec
	sourceAttempts    *prometheus.CounterVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufcranker_pages_fetched_total",
				Help: "Total pages fetched, labeled by scraper and cache outcome.",
			},
			[]string{"scraper", "cache"},
		)

		rowsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufcranker_rows_total",
				Help: "Total rows processed by the store, labeled by entity and outcome.",
			},
			[]string{"entity", "outcome"},
		)

		taskRunsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufcranker_task_runs_total",
				Help: "Total task executions, labeled by task and status.",
			},
			[]string{"task", "status"},
		)

		sourceAttempts = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ufcranker_source_attempts_total",
				Help: "Source fetch attempts, labeled by source and result.",
			},
			[]string{"source", "result"},
		)
	})
}

// PageFetched records one fetch; cache is "hit" or "miss".
func PageFetched(scraper, cache string) {
	if pagesFetchedTotal != nil {
		pagesFetchedTotal.WithLabelValues(scraper, cache).Inc()
	}
}

// RowProcessed records a store outcome: insert, update, skip or fail.
func RowProcessed(entity, outcome string) {
	if rowsTotal != nil {
		rowsTotal.WithLabelValues(entity, outcome).Inc()
	}
}

// TaskRun records a runner execution with its final status.
func TaskRun(task, status string) {
	if taskRunsTotal != nil {
		taskRunsTotal.WithLabelValues(task, status).Inc()
	}
}

// SourceAttempt records one SourceManager attempt: success, empty or error.
func SourceAttempt(source, result string) {
	if sourceAttempts != nil {
		sourceAttempts.WithLabelValues(source, result).Inc()
	}
}

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
