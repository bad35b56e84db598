// Package observability holds Prometheus metrics and OpenTelemetry tracing setup.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penloft_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result (hit, miss).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penloft_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "penloft_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SearchQueries counts live search queries by whether results were shown.
	SearchQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penloft_search_queries_total",
		Help: "Live search queries by outcome",
	}, []string{"outcome"})

	// PostsPublished counts successfully published posts by category.
	PostsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penloft_posts_published_total",
		Help: "Published posts by category",
	}, []string{"category"})

	// AISuggestions counts suggestion requests by kind (tags, content) and outcome.
	AISuggestions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "penloft_ai_suggestions_total",
		Help: "AI suggestion requests by kind and outcome",
	}, []string{"kind", "outcome"})

	// AISuggestionLatency records model round-trip latency.
	AISuggestionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "penloft_ai_suggestion_latency_seconds",
		Help:    "AI suggestion latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16},
	}, []string{"kind"})

	// FeedSubscribers is the number of connected live feed sockets.
	FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "penloft_feed_subscribers",
		Help: "Number of connected live feed WebSocket clients",
	})

	// FeedDrops counts live feed messages dropped because a client was slow.
	FeedDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "penloft_feed_drops_total",
		Help: "Live feed messages dropped due to backpressure",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveSuggestion records the outcome and latency of a model call.
func ObserveSuggestion(kind string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	AISuggestions.WithLabelValues(kind, outcome).Inc()
	AISuggestionLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
