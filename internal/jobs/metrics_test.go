package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// counterValue sums a counter family for samples carrying every given label.
func counterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	var total float64
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] == pair.GetValue() {
					matched++
				}
			}
			if matched == len(labels) {
				total += metric.GetCounter().GetValue()
			}
		}
	}
	return total
}

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	require.NoError(t, metrics.Track("warmup").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, metrics.Track("warmup").End(boom), boom)

	require.Equal(t, 1.0, counterValue(t, registry, "realty_jobs_total", map[string]string{"job": "warmup", "status": "success"}))
	require.Equal(t, 1.0, counterValue(t, registry, "realty_jobs_total", map[string]string{"job": "warmup", "status": "failure"}))
	require.Equal(t, 1.0, counterValue(t, registry, "realty_jobs_failures_total", map[string]string{"job": "warmup"}))
}

func TestNilTrackerPassesErrorThrough(t *testing.T) {
	var metrics *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, metrics.Track("warmup").End(boom), boom)
}
