package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	JobsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seen_jobs_processed_total",
		Help: "Total number of jobs that finished a stage, by stage and outcome",
	}, []string{"stage", "outcome"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seen_stage_duration_seconds",
		Help:    "Duration of workflow stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
	}, []string{"stage"})

	FramesProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seen_frames_processed_total",
		Help: "Total number of frames written by redaction runs, by mode",
	}, []string{"mode"})

	RegionsBlurredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seen_regions_blurred_total",
		Help: "Total number of regions blurred across all frames, by mode",
	}, []string{"mode"})

	FramesSampledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seen_frames_sampled_total",
		Help: "Total number of workbench frames written",
	})

	ActiveJobs = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "seen_active_jobs",
		Help: "Number of jobs currently being processed, by lane",
	}, []string{"lane"})

	UploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seen_uploads_total",
		Help: "Total number of accepted uploads",
	})
)

// Outcome labels for JobsProcessedTotal.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)

// ObserveStage records a finished stage.
func ObserveStage(stage, outcome string, elapsed time.Duration) {
	JobsProcessedTotal.WithLabelValues(stage, outcome).Inc()
	StageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// RecordRedaction adds the totals of one redaction run.
func RecordRedaction(mode string, frames, regions int) {
	FramesProcessedTotal.WithLabelValues(mode).Add(float64(frames))
	RegionsBlurredTotal.WithLabelValues(mode).Add(float64(regions))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
