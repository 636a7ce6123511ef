package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictions  *prometheus.CounterVec
	trainingRuns *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	cachedModels prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadpulse_predictions_total",
				Help: "Total number of fatigue forecasts produced",
			},
			[]string{"user"},
		),
		trainingRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadpulse_training_runs_total",
				Help: "Training runs by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "loadpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		cachedModels: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "loadpulse_cached_models",
				Help: "Model instances currently held in memory",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "loadpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPrediction records a produced forecast.
func (r *Recorder) RecordPrediction(userID string) {
	r.predictions.WithLabelValues(userID).Inc()
}

// RecordTrainingRun records a training run outcome.
func (r *Recorder) RecordTrainingRun(outcome string) {
	r.trainingRuns.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetCachedModels records the number of live model instances.
func (r *Recorder) SetCachedModels(n int) {
	r.cachedModels.Set(float64(n))
}
