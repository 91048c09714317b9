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

	KnowledgeFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "knowledge_fetch_total",
			Help: "Domain fetches by outcome (ok, error, timeout)",
		},
		[]string{"domain", "outcome"},
	)

	KnowledgeFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "knowledge_fetch_duration_seconds",
			Help:    "Duration of one domain fetch including extraction",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"domain"},
	)

	RouterDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "router_decisions_total",
			Help: "Intent router decisions per domain",
		},
		[]string{"domain", "call"},
	)

	GeoResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geo_resolutions_total",
			Help: "Location resolutions by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	ExtractionEmpty = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extraction_empty_total",
			Help: "Extractions that produced no record",
		},
		[]string{"kind"},
	)
)

// Outcome labels for KnowledgeFetches and GeoResolutions.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeTimeout  = "timeout"
	OutcomeNotFound = "not_found"
)
