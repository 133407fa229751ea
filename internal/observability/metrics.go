package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronicle_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chronicle_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// BlogPostViews counts successful view increments.
	BlogPostViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chronicle_blog_post_views_total",
		Help: "Total number of recorded blog post views",
	})

	// BlogPostWrites counts create/update/delete calls by outcome.
	BlogPostWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronicle_blog_post_writes_total",
		Help: "Blog post writes by operation and outcome",
	}, []string{"operation", "outcome"})

	// BlogPublishTransitions counts visibility changes applied by updates.
	BlogPublishTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronicle_blog_publish_transitions_total",
		Help: "Publish state transitions applied to blog posts",
	}, []string{"transition"})

	// BlogReadDegradations counts read paths that answered empty because storage failed.
	BlogReadDegradations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronicle_blog_read_degradations_total",
		Help: "Read operations that degraded to an empty result",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by cache name and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chronicle_cache_lookups_total",
		Help: "Cache lookups by cache and result (hit, miss, error)",
	}, []string{"cache", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
