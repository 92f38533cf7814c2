package app

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
)

// Update 将部分更新应用到蓝图副本上并校验，校验通过后才修改应用，否则应用保持不变
func (a *Application) Update(req *server.UpdateRequest, now int64) error {
	bp := a.Blueprint()
	applyRequest(bp, req)
	if err := bp.Validate(); err != nil {
		return err
	}

	a.ScalingEnabled = bp.ScalingEnabled
	a.PredictionScalingEnabled = bp.PredictionScalingEnabled
	a.BillingIntervalConsidered = bp.BillingIntervalConsidered
	a.SetLearningEnabled(bp.LearningEnabled, now)
	a.SetScalingIntervalMultiplier(bp.ScalingIntervalMultiplier)
	a.MinInstances = bp.MinInstances
	a.MaxInstances = bp.MaxInstances
	a.CooldownTime = bp.CooldownTime
	a.LearningTimeMultiplier = bp.LearningTimeMultiplier

	a.Cpu.UpperLimit, a.Cpu.LowerLimit = bp.CpuUpperLimit, bp.CpuLowerLimit
	a.Cpu.Policy, a.Cpu.Enabled = bp.CpuThresholdPolicy, bp.CpuScalingEnabled
	a.Ram.UpperLimit, a.Ram.LowerLimit = bp.RamUpperLimit, bp.RamLowerLimit
	a.Ram.Policy, a.Ram.Enabled = bp.RamThresholdPolicy, bp.RamScalingEnabled
	a.Latency.UpperLimit, a.Latency.LowerLimit = bp.LatencyUpperLimit, bp.LatencyLowerLimit
	a.Latency.Policy, a.Latency.Enabled = bp.LatencyThresholdPolicy, bp.LatencyScalingEnabled

	a.Requests.SetMinQuotient(bp.MinQuotient)
	a.Requests.Policy = bp.RequestThresholdPolicy
	a.Requests.Enabled = bp.QuotientScalingEnabled
	return nil
}

func applyRequest(bp *core.Blueprint, req *server.UpdateRequest) {
	setBool := func(dst *bool, src *bool) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setInt64 := func(dst *int64, src *int64) {
		if src != nil {
			*dst = *src
		}
	}
	setPolicy := func(dst *core.ThresholdPolicy, src *core.ThresholdPolicy) {
		if src != nil {
			*dst = *src
		}
	}

	setBool(&bp.ScalingEnabled, req.ScalingEnabled)
	setBool(&bp.PredictionScalingEnabled, req.PredictionScalingEnabled)
	setBool(&bp.LearningEnabled, req.LearningEnabled)
	setBool(&bp.BillingIntervalConsidered, req.BillingIntervalConsidered)

	if req.ScalingIntervalMultiplier != nil {
		bp.ScalingIntervalMultiplier = *req.ScalingIntervalMultiplier
		if bp.CurrentIntervalState >= bp.ScalingIntervalMultiplier {
			bp.CurrentIntervalState = bp.ScalingIntervalMultiplier - 1
		}
	}
	setInt(&bp.MinInstances, req.MinInstances)
	setInt(&bp.MaxInstances, req.MaxInstances)
	setInt64(&bp.CooldownTime, req.CooldownTime)
	setInt(&bp.LearningTimeMultiplier, req.LearningTimeMultiplier)

	setInt64(&bp.CpuUpperLimit, req.CpuUpperLimit)
	setInt64(&bp.CpuLowerLimit, req.CpuLowerLimit)
	setPolicy(&bp.CpuThresholdPolicy, req.CpuThresholdPolicy)
	setBool(&bp.CpuScalingEnabled, req.CpuScalingEnabled)

	setInt64(&bp.RamUpperLimit, req.RamUpperLimit)
	setInt64(&bp.RamLowerLimit, req.RamLowerLimit)
	setPolicy(&bp.RamThresholdPolicy, req.RamThresholdPolicy)
	setBool(&bp.RamScalingEnabled, req.RamScalingEnabled)

	setInt64(&bp.LatencyUpperLimit, req.LatencyUpperLimit)
	setInt64(&bp.LatencyLowerLimit, req.LatencyLowerLimit)
	setPolicy(&bp.LatencyThresholdPolicy, req.LatencyThresholdPolicy)
	setBool(&bp.LatencyScalingEnabled, req.LatencyScalingEnabled)

	if req.MinQuotient != nil {
		bp.MinQuotient = *req.MinQuotient
		if bp.Quotient < bp.MinQuotient {
			bp.Quotient = bp.MinQuotient
		}
	}
	setPolicy(&bp.RequestThresholdPolicy, req.RequestThresholdPolicy)
	setBool(&bp.QuotientScalingEnabled, req.QuotientScalingEnabled)
}
