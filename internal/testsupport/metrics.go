package testsupport

import (
	"slices"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// GetMetricValue reads a metric from the default gatherer. Counters and
// gauges report their value, histograms their sample count. Missing series
// read as zero so deltas work before the first observation.
func GetMetricValue(t *testing.T, metricName string, labels map[string]string) float64 {
	t.Helper()

	m := findMetric(t, metricName, labels)
	switch {
	case m == nil:
		return 0
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	default:
		return 0
	}
}

// findMetric returns the first series of metricName carrying every label in
// labels, or nil.
func findMetric(t *testing.T, metricName string, labels map[string]string) *dto.Metric {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err, "failed to gather metrics")

	// Gather sorts families by name.
	idx, found := slices.BinarySearchFunc(families, metricName, func(mf *dto.MetricFamily, name string) int {
		switch {
		case mf.GetName() < name:
			return -1
		case mf.GetName() > name:
			return 1
		}
		return 0
	})
	if !found {
		return nil
	}

	for _, m := range families[idx].GetMetric() {
		if hasLabels(m, labels) {
			return m
		}
	}
	return nil
}

func hasLabels(m *dto.Metric, want map[string]string) bool {
	matched := 0
	for _, pair := range m.GetLabel() {
		if v, ok := want[pair.GetName()]; ok {
			if v != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

// AssertMetricDelta runs fn and asserts the metric moved by exactly expectedDelta.
func AssertMetricDelta(t *testing.T, metricName string, labels map[string]string, expectedDelta float64, fn func()) {
	t.Helper()

	before := GetMetricValue(t, metricName, labels)
	fn()
	after := GetMetricValue(t, metricName, labels)

	assert.Equal(t, expectedDelta, after-before, "metric %s%v delta mismatch", metricName, labels)
}

// AssertMetricDeltaAsync is AssertMetricDelta for effects that land on a
// background goroutine, such as the syncer loop.
func AssertMetricDeltaAsync(t *testing.T, metricName string, labels map[string]string, expectedDelta float64, fn func()) {
	t.Helper()

	before := GetMetricValue(t, metricName, labels)
	fn()

	require.Eventually(t, func() bool {
		return GetMetricValue(t, metricName, labels) == before+expectedDelta
	}, 2*time.Second, 50*time.Millisecond, "metric %s%v never moved by %+.0f", metricName, labels, expectedDelta)
}

// AssertHistogramRecorded asserts the histogram holds at least one sample.
func AssertHistogramRecorded(t *testing.T, metricName string, labels map[string]string) {
	t.Helper()

	assert.Greater(t, GetMetricValue(t, metricName, labels), 0.0, "histogram %s%v has no samples", metricName, labels)
}
