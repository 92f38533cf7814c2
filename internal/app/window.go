package app

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"math"
)

// Field 从快照中取出参与计算的某一项数值
type Field func(m *core.ApplicationMetric) int64

var (
	CpuField      Field = func(m *core.ApplicationMetric) int64 { return m.Cpu }
	RamField      Field = func(m *core.ApplicationMetric) int64 { return m.Ram }
	LatencyField  Field = func(m *core.ApplicationMetric) int64 { return m.Latency }
	RequestsField Field = func(m *core.ApplicationMetric) int64 { return m.Requests }
)

// MetricWindow 有界的快照队列，超出长度后丢弃最旧的快照
type MetricWindow struct {
	maxLen  int
	metrics []*core.ApplicationMetric
}

func NewMetricWindow(maxLen int) *MetricWindow {
	if maxLen < 1 {
		maxLen = 1
	}
	return &MetricWindow{
		maxLen:  maxLen,
		metrics: make([]*core.ApplicationMetric, 0, maxLen),
	}
}

func (w *MetricWindow) Add(m *core.ApplicationMetric) {
	if len(w.metrics) >= w.maxLen {
		copy(w.metrics, w.metrics[1:])
		w.metrics = w.metrics[:len(w.metrics)-1]
	}
	w.metrics = append(w.metrics, m)
}

func (w *MetricWindow) Len() int {
	return len(w.metrics)
}

// Last 返回最新的快照，队列为空时返回nil
func (w *MetricWindow) Last() *core.ApplicationMetric {
	if len(w.metrics) == 0 {
		return nil
	}
	return w.metrics[len(w.metrics)-1]
}

func (w *MetricWindow) Reset() {
	w.metrics = w.metrics[:0]
}

func (w *MetricWindow) Metrics() []*core.ApplicationMetric {
	result := make([]*core.ApplicationMetric, len(w.metrics))
	copy(result, w.metrics)
	return result
}

// Max 为空时返回0
func (w *MetricWindow) Max(f Field) int64 {
	result := int64(0)
	for _, m := range w.metrics {
		if v := f(m); v > result {
			result = v
		}
	}
	return result
}

// Min 为空时返回math.MaxInt64，调用方需要自行处理
func (w *MetricWindow) Min(f Field) int64 {
	result := int64(math.MaxInt64)
	for _, m := range w.metrics {
		if v := f(m); v < result {
			result = v
		}
	}
	return result
}

// Mean 以seed为初始累加值求整数平均值。为空时返回seed
func (w *MetricWindow) Mean(f Field, seed int64) int64 {
	if len(w.metrics) == 0 {
		return seed
	}
	sum := seed
	for _, m := range w.metrics {
		sum += f(m)
	}
	return sum / int64(len(w.metrics))
}

// Reduce 按照阈值策略将窗口归约为一个值，未知策略返回InvalidValue
func (w *MetricWindow) Reduce(policy core.ThresholdPolicy, f Field, meanSeed int64) int64 {
	switch policy {
	case core.PolicyMax:
		return w.Max(f)
	case core.PolicyMin:
		return w.Min(f)
	case core.PolicyMean:
		return w.Mean(f, meanSeed)
	default:
		return InvalidValue
	}
}
