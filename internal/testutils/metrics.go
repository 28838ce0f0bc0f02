package testutils

import (
	"sync"
	"time"
)

// MockMetricsCollector records every metric call in memory. It satisfies
// ports.MetricsCollector without importing it so that domain tests can use
// this package too.
type MockMetricsCollector struct {
	mu         sync.Mutex
	Latencies  map[string][]time.Duration
	Counters   map[string]float64
	Gauges     map[string]float64
	Histograms map[string][]float64
	Labels     []map[string]string
}

// NewMockMetricsCollector creates an empty collector.
func NewMockMetricsCollector() *MockMetricsCollector {
	return &MockMetricsCollector{
		Latencies:  make(map[string][]time.Duration),
		Counters:   make(map[string]float64),
		Gauges:     make(map[string]float64),
		Histograms: make(map[string][]float64),
	}
}

func (m *MockMetricsCollector) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Latencies[operation] = append(m.Latencies[operation], duration)
	m.Labels = append(m.Labels, labels)
}

func (m *MockMetricsCollector) RecordCounter(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Counters[metric] += value
	m.Labels = append(m.Labels, labels)
}

func (m *MockMetricsCollector) RecordGauge(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gauges[metric] = value
	m.Labels = append(m.Labels, labels)
}

func (m *MockMetricsCollector) RecordHistogram(metric string, value float64, labels map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Histograms[metric] = append(m.Histograms[metric], value)
	m.Labels = append(m.Labels, labels)
}

// Counter returns the accumulated value of a counter.
func (m *MockMetricsCollector) Counter(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counters[metric]
}

// Gauge returns the last value of a gauge.
func (m *MockMetricsCollector) Gauge(metric string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Gauges[metric]
}
