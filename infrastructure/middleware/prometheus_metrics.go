// Package middleware provides cross-cutting concerns for tuners: metrics,
// tracing and request throttling, each as a ports.Tuner decorator or a
// ports.MetricsCollector implementation.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-configspace/internal/ports"
)

// Metric names understood by PrometheusMetrics. Other names fall back to
// the generic operation counter and system gauge.
const (
	MetricConfigurationsAsked = "configurations_asked"
	MetricEvaluationsTold     = "evaluations_told"
	MetricRateLimited         = "rate_limited_total"
	MetricOptimums            = "optimums"
	MetricHistory             = "history"
	MetricObjectiveValue      = "objective_value"
)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks how many configurations tuners hand out, how many
// evaluations come back, the size of each tuner's optimal subset and the
// distribution of objective values.
type PrometheusMetrics struct {
	configurationsAsked *prometheus.CounterVec
	evaluationsTold     *prometheus.CounterVec
	optimums            *prometheus.GaugeVec
	objectiveValues     *prometheus.HistogramVec
	operationLatency    *prometheus.HistogramVec
	operationCounter    *prometheus.CounterVec
	systemGauges        *prometheus.GaugeVec
}

// NewPrometheusMetrics creates the metrics and registers them with reg. A
// nil reg selects the global default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		// Tuning loop metrics.
		configurationsAsked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "configspace_configurations_asked_total",
				Help: "Total number of configurations proposed by tuners.",
			},
			[]string{"tuner", "tuner_type"},
		),
		evaluationsTold: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "configspace_evaluations_told_total",
				Help: "Total number of evaluations reported to tuners, by outcome.",
			},
			[]string{"tuner", "tuner_type", "status"},
		),
		optimums: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "configspace_tuner_optimums",
				Help: "Current size of each tuner's optimal subset.",
			},
			[]string{"tuner", "tuner_type"},
		),
		objectiveValues: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "configspace_objective_value",
				Help:    "Objective values of successful evaluations.",
				Buckets: prometheus.ExponentialBucketsRange(1e-3, 1e6, 19),
			},
			[]string{"tuner", "objective"},
		),

		// General execution metrics.
		operationLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "configspace_tuner_operation_duration_seconds",
				Help:    "Execution time of tuner operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "tuner"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "configspace_tuner_operations_total",
				Help: "Total number of tuner operations, by outcome.",
			},
			[]string{"operation", "status", "tuner"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "configspace_tuner_state",
				Help: "Current state values reported by tuners.",
			},
			[]string{"metric", "tuner"},
		),
	}
}

func tunerLabel(labels map[string]string) string {
	if tuner := labels["tuner"]; tuner != "" {
		return tuner
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.operationLatency.WithLabelValues(operation, tunerLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	tuner := tunerLabel(labels)

	switch metric {
	case MetricConfigurationsAsked:
		pm.configurationsAsked.WithLabelValues(tuner, labels["tuner_type"]).Add(value)
	case MetricEvaluationsTold:
		status := labels["status"]
		if status == "" {
			status = "success"
		}
		pm.evaluationsTold.WithLabelValues(tuner, labels["tuner_type"], status).Add(value)
	case MetricRateLimited:
		pm.operationCounter.WithLabelValues(labels["operation"], "rate_limited", tuner).Add(value)
	default:
		status := labels["status"]
		if status == "" {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status, tuner).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	tuner := tunerLabel(labels)

	switch metric {
	case MetricOptimums:
		pm.optimums.WithLabelValues(tuner, labels["tuner_type"]).Set(value)
	default:
		pm.systemGauges.WithLabelValues(metric, tuner).Set(value)
	}
}

// RecordHistogram implements the MetricsCollector interface by recording
// values in a Prometheus histogram. Objective values go to their own
// histogram; everything else is treated as a duration in seconds.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	tuner := tunerLabel(labels)

	switch metric {
	case MetricObjectiveValue:
		pm.objectiveValues.WithLabelValues(tuner, labels["objective"]).Observe(value)
	default:
		pm.operationLatency.WithLabelValues(metric, tuner).Observe(value)
	}
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
