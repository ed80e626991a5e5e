package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	solves      *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	successRate *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		solves: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfectratio_solves_total",
				Help: "Completed curve solves by model and outcome (met, unmet, override)",
			},
			[]string{"model", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "perfectratio_errors_total",
				Help: "Errors by kind",
			},
			[]string{"kind"},
		),
		successRate: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "perfectratio_last_success_rate_percent",
				Help: "Success rate of the most recent solve per model",
			},
			[]string{"model"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "perfectratio_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"operation"},
		),
	}
}

// RecordSolve counts a completed solve.
func (r *Recorder) RecordSolve(model, outcome string) {
	r.solves.WithLabelValues(model, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordSuccessRate sets the last success rate for a model.
func (r *Recorder) RecordSuccessRate(model string, rate float64) {
	r.successRate.WithLabelValues(model).Set(rate)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
