package scaling

import (
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
)

// Aggregate 将应用尚未聚合的原始数据折叠为一个快照并加入快照历史，随后清空原始数据。
// CPU与内存都至少有一个有效数据时才生成快照，否则返回nil
func Aggregate(a *app.Application, now int64) *core.ApplicationMetric {
	containers := a.ContainerMetrics()
	requests := a.HttpMetrics()
	instances := a.CurrentInstanceCount()
	a.ResetRawBuffers()

	if len(containers) == 0 {
		return nil
	}

	var cpuSum, cpuCount, ramSum, ramCount int64
	for _, m := range containers {
		if a.IsTooOld(m.Timestamp, now) {
			continue
		}
		if m.Cpu >= 0 {
			cpuSum += m.Cpu
			cpuCount++
		}
		if m.Ram >= 0 {
			ramSum += m.Ram
			ramCount++
		}
	}
	if cpuCount == 0 || ramCount == 0 {
		return nil
	}

	var requestSum, latencySum, latencyCount int64
	for _, m := range requests {
		if a.IsTooOld(m.Timestamp, now) || m.Requests <= 0 {
			continue
		}
		requestSum += m.Requests
		if m.Latency >= 0 {
			latencySum += m.Latency
			latencyCount++
		}
	}
	latency := int64(0)
	if latencyCount > 0 {
		latency = latencySum / latencyCount
	}

	binding := a.Binding()
	metric := &core.ApplicationMetric{
		Timestamp:     now,
		AppId:         binding.Id,
		ResourceId:    binding.ResourceId,
		ResourceName:  binding.ResourceName,
		Cpu:           cpuSum / cpuCount,
		Ram:           ramSum / ramCount,
		Requests:      requestSum,
		Latency:       latency,
		Quotient:      a.Requests.Quotient(),
		InstanceCount: instances,
	}
	if !a.AddApplicationMetric(metric, now) {
		return nil
	}
	return metric
}
