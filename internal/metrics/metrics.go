// Package metrics holds the Prometheus instrumentation for conversion jobs.
// All metrics are prefixed with "audioconv_" and registered on the default
// registry through promauto; mount promhttp.Handler() to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job outcome label values.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

var (
	JobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audioconv_jobs_total",
			Help: "Total number of conversion jobs by target format and outcome",
		},
		[]string{"format", "outcome"},
	)

	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audioconv_job_duration_seconds",
			Help:    "Wall time from engine start to job settlement",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"format"},
	)

	JobsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audioconv_jobs_in_flight",
			Help: "Number of engine processes currently running",
		},
	)

	EngineAvailable = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audioconv_engine_available",
			Help: "Result of the last engine probe (1 = available, 0 = unavailable)",
		},
	)

	CleanupFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audioconv_cleanup_failures_total",
			Help: "Partial output files that could not be removed",
		},
	)
)

// InitializeMetrics pre-populates label combinations so every series is
// exported from the first scrape.
func InitializeMetrics() {
	for _, f := range []string{"wav", "mp3"} {
		for _, o := range []string{OutcomeCompleted, OutcomeFailed, OutcomeCancelled, OutcomeRejected} {
			JobsTotal.WithLabelValues(f, o)
		}
		JobDuration.WithLabelValues(f)
	}
}
