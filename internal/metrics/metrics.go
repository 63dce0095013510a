// Package metrics defines the Prometheus collectors for bundle rebuilds,
// searches and snapshots, and exposes an HTTP handler for scraping.
//
// All recording methods are safe to call on a nil *Metrics, so components
// can take an optional collector without nil checks.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for scorecache
type Metrics struct {
	JobsTotal           *prometheus.CounterVec
	CacheHitsTotal      prometheus.Counter
	EntriesRemovedTotal prometheus.Counter
	SnapshotWritesTotal *prometheus.CounterVec
	SearchQueriesTotal  *prometheus.CounterVec
	RebuildDuration     prometheus.Histogram
	BundleEntries       *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
// A nil reg registers with the Prometheus default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		JobsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecache_rebuild_jobs_total",
				Help: "Rebuild jobs completed, by outcome (ok, failed).",
			},
			[]string{"outcome"},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scorecache_cache_hits_total",
				Help: "Source paths skipped because their entry was newer than the source.",
			},
		),
		EntriesRemovedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scorecache_validation_removed_total",
				Help: "Entries removed by validation because their source vanished.",
			},
		),
		SnapshotWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecache_snapshot_writes_total",
				Help: "Snapshot writes, by result (ok, error).",
			},
			[]string{"result"},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecache_search_queries_total",
				Help: "Bundle searches, by result type (hit, zero_result, error).",
			},
			[]string{"result_type"},
		),
		RebuildDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scorecache_rebuild_duration_seconds",
				Help:    "Wall time of AddFromPaths calls.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
		),
		BundleEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scorecache_bundle_entries",
				Help: "Entries held by a named bundle after its last rebuild.",
			},
			[]string{"namespace"},
		),
	}

	reg.MustRegister(
		m.JobsTotal,
		m.CacheHitsTotal,
		m.EntriesRemovedTotal,
		m.SnapshotWritesTotal,
		m.SearchQueriesTotal,
		m.RebuildDuration,
		m.BundleEntries,
	)

	return m
}

// ObserveJob counts one completed rebuild job
func (m *Metrics) ObserveJob(failed bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.JobsTotal.WithLabelValues(outcome).Inc()
}

// AddCacheHits counts skipped, still-fresh source paths
func (m *Metrics) AddCacheHits(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CacheHitsTotal.Add(float64(n))
}

// AddRemoved counts entries removed by validation
func (m *Metrics) AddRemoved(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.EntriesRemovedTotal.Add(float64(n))
}

// ObserveSnapshotWrite counts one snapshot write
func (m *Metrics) ObserveSnapshotWrite(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SnapshotWritesTotal.WithLabelValues(result).Inc()
}

// ObserveSearch counts one search by its outcome
func (m *Metrics) ObserveSearch(results int, err error) {
	if m == nil {
		return
	}
	switch {
	case err != nil:
		m.SearchQueriesTotal.WithLabelValues("error").Inc()
	case results == 0:
		m.SearchQueriesTotal.WithLabelValues("zero_result").Inc()
	default:
		m.SearchQueriesTotal.WithLabelValues("hit").Inc()
	}
}

// ObserveRebuild records the duration of one rebuild
func (m *Metrics) ObserveRebuild(d time.Duration) {
	if m == nil {
		return
	}
	m.RebuildDuration.Observe(d.Seconds())
}

// SetEntries records the size of a named bundle
func (m *Metrics) SetEntries(namespace string, n int) {
	if m == nil || namespace == "" {
		return
	}
	m.BundleEntries.WithLabelValues(namespace).Set(float64(n))
}

// Handler returns the Prometheus scrape HTTP handler for g
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in the background
func StartServer(addr string, g prometheus.Gatherer) (shutdown func(context.Context) error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("metrics server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", "error", err)
		}
	}()

	return server.Shutdown
}
