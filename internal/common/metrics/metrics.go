// internal/common/metrics/metrics.go
package metrics

import (
	"context"
	"sync/atomic"
	"time"

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

	LeaseDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_decisions_total",
			Help: "Lease risk decisions by final tier",
		},
		[]string{"final_tier"},
	)

	RuleOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lease_rule_outcomes_total",
			Help: "Rule results by rule and tier",
		},
		[]string{"rule_id", "tier"},
	)

	EnrichmentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_source_duration_seconds",
			Help:    "Latency of each external data source including retries",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"source"},
	)

	EnrichmentFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "enrichment_source_failures_total",
			Help: "External data source lookups that ended in failure",
		},
		[]string{"source"},
	)

	VATRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrichment_vat_retries_total",
			Help: "VAT registry attempts beyond the first",
		},
	)
)

// JobRecorder receives job outcomes in addition to the Prometheus
// collectors above.
type JobRecorder interface {
	RecordJobProcessed(ctx context.Context, taskType, status string)
	RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string)
}

var recorder atomic.Value // holds recorderBox

type recorderBox struct{ r JobRecorder }

func SetJobRecorder(r JobRecorder) {
	recorder.Store(recorderBox{r: r})
}

// ObserveJob marks one job of taskType active and returns a func that
// records its outcome. An empty errorCode counts as completed.
func ObserveJob(taskType string) func(errorCode string) {
	start := time.Now()
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return func(errorCode string) {
		elapsed := time.Since(start)
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())

		status := "completed"
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		} else {
			status = "failed"
			WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
		}

		if box, ok := recorder.Load().(recorderBox); ok && box.r != nil {
			ctx := context.Background()
			box.r.RecordJobProcessed(ctx, taskType, status)
			box.r.RecordJobDuration(ctx, taskType, elapsed, status)
		}
	}
}
