package app

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"math"
	"testing"
)

func TestMetricWindow_Empty(t *testing.T) {
	w := NewMetricWindow(3)
	assert.Equal(t, int64(0), w.Max(CpuField))
	assert.Equal(t, int64(math.MaxInt64), w.Min(CpuField))
	assert.Equal(t, int64(0), w.Mean(CpuField, 0))
	assert.Equal(t, int64(-1), w.Mean(RequestsField, -1))
	assert.Nil(t, w.Last())
	assert.Equal(t, InvalidValue, w.Reduce("median", CpuField, 0))
}

func TestMetricWindow_Bounded(t *testing.T) {
	w := NewMetricWindow(3)
	for i := 1; i <= 5; i++ {
		w.Add(snapshot(int64(i*10), 0, 0, 0, i))
	}
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 5, w.Last().InstanceCount)
	assert.Equal(t, int64(30), w.Metrics()[0].Cpu)

	assert.Equal(t, int64(50), w.Reduce(core.PolicyMax, CpuField, 0))
	assert.Equal(t, int64(30), w.Reduce(core.PolicyMin, CpuField, 0))
	assert.Equal(t, int64(40), w.Reduce(core.PolicyMean, CpuField, 0))

	w.Reset()
	assert.Equal(t, 0, w.Len())
}

func TestMetricWindow_MeanTruncates(t *testing.T) {
	w := NewMetricWindow(10)
	w.Add(snapshot(1, 0, 10, 0, 1))
	w.Add(snapshot(2, 0, 11, 0, 1))
	assert.Equal(t, int64(1), w.Mean(CpuField, 0))
	// (-1 + 10 + 11) / 2
	assert.Equal(t, int64(10), w.Mean(RequestsField, -1))
}

func TestComponentPolicy_Value(t *testing.T) {
	a := newTestApp(t)
	a.History().Add(snapshot(95, 100, 0, 200, 2))
	a.History().Add(snapshot(85, 300, 0, 100, 2))

	a.Cpu.Policy = core.PolicyMean
	assert.Equal(t, int64(90), a.Cpu.Value())
	a.Ram.Policy = core.PolicyMax
	assert.Equal(t, int64(300), a.Ram.Value())
	a.Latency.Policy = core.PolicyMin
	assert.Equal(t, int64(100), a.Latency.Value())

	a.Cpu.Policy = "unknown"
	assert.Equal(t, InvalidValue, a.Cpu.Value())
}
