package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-configspace/internal/ports"
)

// newTestMetrics registers against a private registry so tests never
// collide on metric names.
func newTestMetrics(t *testing.T) (*PrometheusMetrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return NewPrometheusMetrics(reg), reg
}

func TestNewPrometheusMetrics(t *testing.T) {
	pm, reg := newTestMetrics(t)

	assert.NotNil(t, pm.configurationsAsked)
	assert.NotNil(t, pm.evaluationsTold)
	assert.NotNil(t, pm.optimums)
	assert.NotNil(t, pm.objectiveValues)
	assert.NotNil(t, pm.operationLatency)
	assert.NotNil(t, pm.operationCounter)
	assert.NotNil(t, pm.systemGauges)

	var _ ports.MetricsCollector = pm

	// A second registration against the same registry must panic.
	assert.Panics(t, func() { NewPrometheusMetrics(reg) })
}

func TestPrometheusMetrics_RecordLatency(t *testing.T) {
	tests := []struct {
		name      string
		labels    map[string]string
		wantTuner string
	}{
		{name: "with tuner label", labels: map[string]string{"tuner": "baseline"}, wantTuner: "baseline"},
		{name: "without tuner label", labels: map[string]string{"other": "value"}, wantTuner: "unknown"},
		{name: "with empty tuner label", labels: map[string]string{"tuner": ""}, wantTuner: "unknown"},
		{name: "nil labels", labels: nil, wantTuner: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm, _ := newTestMetrics(t)
			pm.RecordLatency("ask", 100*time.Millisecond, tt.labels)

			assert.Equal(t, 1, testutil.CollectAndCount(pm.operationLatency))
			h, err := pm.operationLatency.GetMetricWithLabelValues("ask", tt.wantTuner)
			require.NoError(t, err)
			assert.NotNil(t, h)
		})
	}
}

func TestPrometheusMetrics_RecordCounter(t *testing.T) {
	pm, _ := newTestMetrics(t)
	labels := map[string]string{"tuner": "baseline", "tuner_type": "random"}

	pm.RecordCounter(MetricConfigurationsAsked, 4, labels)
	pm.RecordCounter(MetricConfigurationsAsked, 2, labels)
	assert.Equal(t, 6.0, testutil.ToFloat64(pm.configurationsAsked.WithLabelValues("baseline", "random")))

	pm.RecordCounter(MetricEvaluationsTold, 3, labels)
	pm.RecordCounter(MetricEvaluationsTold, 1, map[string]string{"tuner": "baseline", "tuner_type": "random", "status": "failed"})
	assert.Equal(t, 3.0, testutil.ToFloat64(pm.evaluationsTold.WithLabelValues("baseline", "random", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.evaluationsTold.WithLabelValues("baseline", "random", "failed")))

	pm.RecordCounter(MetricRateLimited, 2, map[string]string{"tuner": "baseline", "operation": "ask"})
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("ask", "rate_limited", "baseline")))

	pm.RecordCounter("tell", 1, map[string]string{"tuner": "baseline", "status": "error"})
	pm.RecordCounter("tell", 1, map[string]string{"tuner": "baseline"})
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("tell", "error", "baseline")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.operationCounter.WithLabelValues("tell", "success", "baseline")))
}

func TestPrometheusMetrics_RecordGauge(t *testing.T) {
	pm, _ := newTestMetrics(t)
	labels := map[string]string{"tuner": "baseline", "tuner_type": "random"}

	pm.RecordGauge(MetricOptimums, 3, labels)
	pm.RecordGauge(MetricOptimums, 2, labels)
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.optimums.WithLabelValues("baseline", "random")))

	pm.RecordGauge(MetricHistory, 10, labels)
	assert.Equal(t, 10.0, testutil.ToFloat64(pm.systemGauges.WithLabelValues(MetricHistory, "baseline")))
}

func TestPrometheusMetrics_RecordHistogram(t *testing.T) {
	pm, _ := newTestMetrics(t)

	pm.RecordHistogram(MetricObjectiveValue, 0.25, map[string]string{"tuner": "baseline", "objective": "0"})
	pm.RecordHistogram(MetricObjectiveValue, 0.75, map[string]string{"tuner": "baseline", "objective": "1"})
	assert.Equal(t, 2, testutil.CollectAndCount(pm.objectiveValues))

	pm.RecordHistogram("evaluation_seconds", 1.5, map[string]string{"tuner": "baseline"})
	assert.Equal(t, 1, testutil.CollectAndCount(pm.operationLatency))
}

func TestPrometheusMetrics_TracingTunerIntegration(t *testing.T) {
	pm, _ := newTestMetrics(t)
	tuner := newRandomTuner(t)
	traced := NewTracingTuner(tuner, WithMetrics(pm))

	configs, err := traced.Ask(t.Context(), 5)
	require.NoError(t, err)
	require.NoError(t, traced.Tell(t.Context(), evaluate(t, tuner.ObjectiveSpace(), configs)))

	assert.Equal(t, 5.0, testutil.ToFloat64(pm.configurationsAsked.WithLabelValues("baseline", "random")))
	assert.Equal(t, 5.0, testutil.ToFloat64(pm.evaluationsTold.WithLabelValues("baseline", "random", "success")))
	// A single minimized objective always has exactly one optimum.
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.optimums.WithLabelValues("baseline", "random")))
	assert.Equal(t, 1, testutil.CollectAndCount(pm.objectiveValues))
}
