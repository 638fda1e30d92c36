package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// NewShell registers its collectors on the package-level Registry, so a
// second call from another test would panic on duplicate registration;
// every assertion here runs against the one Shell built below.
func TestShell_ObserveCommandAndPipeline(t *testing.T) {
	m := NewShell()

	m.ObserveCommand(0)
	m.ObserveCommand(1)
	m.ObserveCommand(1)

	okCount := counterValue(t, m.CommandsTotal.WithLabelValues("ok"))
	errCount := counterValue(t, m.CommandsTotal.WithLabelValues("error"))
	assert.Equal(t, float64(1), okCount)
	assert.Equal(t, float64(2), errCount)

	m.ObservePipeline(50*time.Millisecond, false)
	m.ObservePipeline(2*time.Second, true)

	fgCount := histogramCount(t, m.PipelineSeconds.WithLabelValues("false"))
	bgCount := histogramCount(t, m.PipelineSeconds.WithLabelValues("true"))
	assert.Equal(t, uint64(1), fgCount)
	assert.Equal(t, uint64(1), bgCount)

	m.JobsStarted.Inc()
	m.JobsActive.Set(3)
	m.BuiltinErrors.WithLabelValues("kill").Inc()

	assert.Equal(t, float64(1), counterValue(t, m.JobsStarted))
	assert.Equal(t, float64(3), gaugeValue(t, m.JobsActive))
	assert.Equal(t, float64(1), counterValue(t, m.BuiltinErrors.WithLabelValues("kill")))
}

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, c.Write(&metric))
	return metric.GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var metric dto.Metric
	require.NoError(t, g.Write(&metric))
	return metric.GetGauge().GetValue()
}

func histogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	h, ok := o.(interface{ Write(*dto.Metric) error })
	require.True(t, ok, "observer does not implement Write")
	var metric dto.Metric
	require.NoError(t, h.Write(&metric))
	return metric.GetHistogram().GetSampleCount()
}
