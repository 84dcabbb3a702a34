// Package metrics holds the Prometheus collectors for the triage pipeline.
//
// Labels are limited to closed sets (intent, language, component, storage
// operation, registered route) so cardinality stays bounded regardless of
// traffic.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// MessagesProcessed counts pipeline results by intent and language.
	MessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "messages_processed_total",
			Help:      "Messages processed by the triage pipeline.",
		},
		[]string{"intent", "language"},
	)

	// ProcessingDuration observes end-to-end pipeline latency.
	ProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Name:      "processing_duration_seconds",
			Help:      "Duration of one pipeline run in seconds.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"outcome"},
	)

	// PipelineFailures counts runs answered with the generic apology.
	PipelineFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "pipeline_failures_total",
			Help:      "Pipeline runs that fell back to the error result.",
		},
		[]string{"reason"},
	)

	// Degraded counts analyzer results produced by a fallback path.
	Degraded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "degraded_total",
			Help:      "Analyzer results produced by a degraded fallback.",
		},
		[]string{"component"},
	)

	// StorageFailures counts failed durable-storage calls by operation.
	StorageFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "storage_failures_total",
			Help:      "Durable storage calls that failed or timed out.",
		},
		[]string{"op"},
	)

	// CacheEntries reports the size of the in-memory caches.
	CacheEntries = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "triage",
			Name:      "cache_entries",
			Help:      "Entries held in the in-memory context and profile caches.",
		},
		[]string{"cache"},
	)

	// Escalations counts turns that recommended a human hand-off.
	Escalations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "escalations_total",
			Help:      "Turns whose recommended actions include escalate_to_human.",
		},
	)

	// EventPublishFailures counts events that could not be published.
	EventPublishFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Name:      "event_publish_failures_total",
			Help:      "Triage events that failed to publish.",
		},
		[]string{"subject"},
	)
)

// HTTP collectors. The path label is the registered Gin route.
var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "requests_inflight",
			Help:      "HTTP requests currently being served.",
		},
	)

	// RateLimited counts requests rejected by the limiter.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429.",
		},
	)

	// IdempotentReplays counts responses served from the idempotency store.
	IdempotentReplays = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "triage",
			Subsystem: "http",
			Name:      "idempotent_replays_total",
			Help:      "POST requests answered from a stored idempotent response.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MessagesProcessed, ProcessingDuration, PipelineFailures, Degraded,
		StorageFailures, CacheEntries, Escalations, EventPublishFailures,
		HTTPRequests, HTTPDuration, HTTPInflight, RateLimited, IdempotentReplays,
	)
}
