package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// PageCacheResults counts page cache lookups by result (hit, miss, reset).
	PageCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "yatube_page_cache_results_total",
		Help: "Page cache lookups by result",
	}, []string{"result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "yatube_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PostsCreated counts successfully created posts.
	PostsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "yatube_posts_created_total",
		Help: "Total number of posts created",
	})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
