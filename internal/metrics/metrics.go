// Package metrics defines the Prometheus metrics exported by the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chat surface metrics
	ChatRequestsTotal   *prometheus.CounterVec
	ChatDurationSeconds *prometheus.HistogramVec

	// Collaborator (embedding/generation API) metrics
	CollaboratorTotal         *prometheus.CounterVec
	CollaboratorDuration      *prometheus.HistogramVec
	CollaboratorFallbackTotal *prometheus.CounterVec

	// Embedding cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Singleflight metrics
	SingleflightDedupTotal prometheus.Counter

	// Engine metrics
	RecommendResults *prometheus.HistogramVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ChatRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumrec_chat_requests_total",
				Help: "Total chat turns by routed intent and status",
			},
			[]string{"intent", "status"}, // intent: recommend, question; status: success, error
		),

		ChatDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kumrec_chat_duration_seconds",
				Help:    "Chat turn processing duration in seconds by intent",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"intent"},
		),

		CollaboratorTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumrec_collaborator_requests_total",
				Help: "Total collaborator API calls by provider, operation and status",
			},
			[]string{"provider", "operation", "status"}, // operation: embed, generate
		),

		CollaboratorDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kumrec_collaborator_duration_seconds",
				Help:    "Collaborator API call duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider", "operation"},
		),

		CollaboratorFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumrec_collaborator_fallback_total",
				Help: "Provider fallbacks by source, target and operation",
			},
			[]string{"from", "to", "operation"},
		),

		CacheHitsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumrec_embedding_cache_hits_total",
				Help: "Embedding cache hits by layer",
			},
			[]string{"layer"}, // layer: memory, sqlite
		),

		CacheMissesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kumrec_embedding_cache_misses_total",
				Help: "Embedding cache misses by layer",
			},
			[]string{"layer"},
		),

		SingleflightDedupTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "kumrec_singleflight_dedup_total",
				Help: "Embedding requests coalesced into an in-flight call",
			},
		),

		RecommendResults: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kumrec_recommend_results",
				Help:    "Number of programs returned per recommendation by path",
				Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
			},
			[]string{"path"}, // path: preferred, fallback
		),
	}
}
