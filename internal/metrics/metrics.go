// Package metrics exports cache, search and store activity to Prometheus.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "catalog"

// Metrics implements cache.Recorder and search.Recorder.
type Metrics struct {
	CacheHits   *prometheus.CounterVec
	CacheMisses *prometheus.CounterVec
	CacheErrors *prometheus.CounterVec

	SearchRequests *prometheus.CounterVec
	SearchDuration *prometheus.HistogramVec

	StoreQueries  *prometheus.CounterVec
	StoreDuration *prometheus.HistogramVec
}

// New creates and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{}

	// Cache layer
	m.CacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Cache hits by key namespace",
		},
		[]string{"namespace"},
	)
	m.CacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Cache misses by key namespace",
		},
		[]string{"namespace"},
	)
	m.CacheErrors = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_errors_total",
			Help:      "Cache backend failures by operation",
		},
		[]string{"operation"},
	)

	// Search engine
	m.SearchRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Search engine calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	m.SearchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "Search engine call latency, cache hits included",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Store
	m.StoreQueries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_total",
			Help:      "Catalog store calls by operation and outcome",
		},
		[]string{"operation", "status"},
	)
	m.StoreDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Catalog store call latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	return m
}

func (m *Metrics) CacheHit(ns string)  { m.CacheHits.WithLabelValues(ns).Inc() }
func (m *Metrics) CacheMiss(ns string) { m.CacheMisses.WithLabelValues(ns).Inc() }
func (m *Metrics) CacheError(op string) {
	m.CacheErrors.WithLabelValues(toSnake(op)).Inc()
}

// SearchCompleted records one engine call.
func (m *Metrics) SearchCompleted(operation, status string, elapsed time.Duration) {
	op := toSnake(operation)
	m.SearchRequests.WithLabelValues(op, status).Inc()
	m.SearchDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) storeCompleted(operation string, err error, elapsed time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	op := toSnake(operation)
	m.StoreQueries.WithLabelValues(op, status).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}
