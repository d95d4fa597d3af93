// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ScenarioGenerations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_generations_total",
			Help: "Scenarios produced, by kind (generate|refine) and source (model|demo)",
		},
		[]string{"kind", "source"},
	)

	ScenarioFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_fallbacks_total",
			Help: "Demo fallbacks served, by reason",
		},
		[]string{"reason"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scenario_gateway_request_duration_seconds",
			Help:    "Latency of text generation calls",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 90},
		},
		[]string{"status"},
	)

	UnsafeInputs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_unsafe_inputs_total",
			Help: "Safety issues detected in user text, by category",
		},
		[]string{"category"},
	)

	SanitizerModifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_sanitizer_modifications_total",
			Help: "Sanitizer warnings emitted, by category",
		},
		[]string{"category"},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scenario_rate_limit_rejections_total",
			Help: "Requests rejected by the rate limiter, by backend",
		},
		[]string{"backend"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by route and status",
		},
		[]string{"route", "method", "status"},
	)
)
