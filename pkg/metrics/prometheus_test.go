package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderExportsSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordSolve("hypergeometric", "met")
	r.RecordSolve("hypergeometric", "met")
	r.RecordError("empty_deck")
	r.RecordSuccessRate("binomial", 86.97)
	r.RecordLatency("solve", 0.0002)

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, mf := range families {
		m := mf.GetMetric()[0]
		switch {
		case m.GetCounter() != nil:
			byName[mf.GetName()] = m.GetCounter().GetValue()
		case m.GetGauge() != nil:
			byName[mf.GetName()] = m.GetGauge().GetValue()
		case m.GetHistogram() != nil:
			byName[mf.GetName()] = float64(m.GetHistogram().GetSampleCount())
		}
	}

	assert.Equal(t, 2.0, byName["perfectratio_solves_total"])
	assert.Equal(t, 1.0, byName["perfectratio_errors_total"])
	assert.InDelta(t, 86.97, byName["perfectratio_last_success_rate_percent"], 1e-9)
	assert.Equal(t, 1.0, byName["perfectratio_operation_duration_seconds"])
}
