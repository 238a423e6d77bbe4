package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbuddy_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airbuddy_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	APIRateLimitHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airbuddy_api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
	)

	// Upstream provider metrics
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbuddy_upstream_requests_total",
			Help: "Total number of upstream provider requests",
		},
		[]string{"provider", "outcome"}, // "success", "error", "rejected"
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airbuddy_upstream_request_duration_seconds",
			Help:    "Upstream provider request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "airbuddy_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Cache metrics
	CacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbuddy_cache_results_total",
			Help: "Cache lookups by backend and result",
		},
		[]string{"backend", "result"}, // "hit", "miss", "error"
	)

	// Batch metrics
	BatchPointsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airbuddy_batch_points_dropped_total",
			Help: "Custom map locations dropped because their lookup failed",
		},
	)

	WarmerRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airbuddy_cache_warmer_runs_total",
			Help: "Cache warmer job runs by outcome",
		},
		[]string{"outcome"},
	)
)
