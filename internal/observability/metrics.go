// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// SitesCreated counts successfully created sites.
	SitesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_sites_created_total",
		Help: "Total number of sites created",
	})

	// QuotaDenials counts site creations refused by the quota gate.
	QuotaDenials = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_site_quota_denials_total",
		Help: "Total number of site creations denied by the quota gate",
	})

	// ValidationFailures counts rejected form submissions by form.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_validation_failures_total",
		Help: "Total number of form submissions rejected by validation",
	}, []string{"form"})

	// PostMutations counts post writes by operation and result.
	PostMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_post_mutations_total",
		Help: "Total number of post mutations by operation and result",
	}, []string{"operation", "result"})

	// UsersProvisioned counts users created on first sight.
	UsersProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkwell_users_provisioned_total",
		Help: "Total number of users auto-provisioned from identity sessions",
	})

	// CheckoutSessions counts checkout session attempts by result.
	CheckoutSessions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_checkout_sessions_total",
		Help: "Total number of billing checkout sessions by result",
	}, []string{"result"})

	// WebhookEvents counts billing webhook events by type and result.
	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_webhook_events_total",
		Help: "Total number of billing webhook events by type and result",
	}, []string{"type", "result"})

	// CacheResults counts cache-aside lookups by result (hit, miss, error).
	CacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_results_total",
		Help: "Total number of cache-aside lookups by result",
	}, []string{"result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
