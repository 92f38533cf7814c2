package app

import "github.com/packagewjx/app-autoscaler/pkg/core"

// New 校验蓝图并构造应用
func New(bp *core.Blueprint, settings Settings) (*Application, error) {
	if err := bp.Validate(); err != nil {
		return nil, err
	}
	a := newApplication(&bp.Binding, settings)
	a.apply(bp)
	return a, nil
}

func (a *Application) apply(bp *core.Blueprint) {
	a.ScalingEnabled = bp.ScalingEnabled
	a.PredictionScalingEnabled = bp.PredictionScalingEnabled
	a.learningEnabled = bp.LearningEnabled
	a.BillingIntervalConsidered = bp.BillingIntervalConsidered

	a.scalingIntervalMultiplier = bp.ScalingIntervalMultiplier
	a.currentIntervalState = bp.CurrentIntervalState

	a.MinInstances = bp.MinInstances
	a.MaxInstances = bp.MaxInstances

	a.CooldownTime = bp.CooldownTime
	a.LastScalingTime = bp.LastScalingTime
	a.LearningTimeMultiplier = bp.LearningTimeMultiplier
	a.LearningStartTime = bp.LearningStartTime

	a.Cpu.UpperLimit, a.Cpu.LowerLimit = bp.CpuUpperLimit, bp.CpuLowerLimit
	a.Cpu.Policy, a.Cpu.Enabled = bp.CpuThresholdPolicy, bp.CpuScalingEnabled
	a.Ram.UpperLimit, a.Ram.LowerLimit = bp.RamUpperLimit, bp.RamLowerLimit
	a.Ram.Policy, a.Ram.Enabled = bp.RamThresholdPolicy, bp.RamScalingEnabled
	a.Latency.UpperLimit, a.Latency.LowerLimit = bp.LatencyUpperLimit, bp.LatencyLowerLimit
	a.Latency.Policy, a.Latency.Enabled = bp.LatencyThresholdPolicy, bp.LatencyScalingEnabled

	a.Requests.minQuotient = bp.MinQuotient
	a.Requests.quotient = bp.Quotient
	a.Requests.Policy = bp.RequestThresholdPolicy
	a.Requests.Enabled = bp.QuotientScalingEnabled
}

func (a *Application) Blueprint() *core.Blueprint {
	return &core.Blueprint{
		Binding:                   *a.binding.Copy(),
		ScalingEnabled:            a.ScalingEnabled,
		PredictionScalingEnabled:  a.PredictionScalingEnabled,
		LearningEnabled:           a.learningEnabled,
		BillingIntervalConsidered: a.BillingIntervalConsidered,
		ScalingIntervalMultiplier: a.scalingIntervalMultiplier,
		CurrentIntervalState:      a.currentIntervalState,
		MinInstances:              a.MinInstances,
		MaxInstances:              a.MaxInstances,
		CooldownTime:              a.CooldownTime,
		LastScalingTime:           a.LastScalingTime,
		LearningTimeMultiplier:    a.LearningTimeMultiplier,
		LearningStartTime:         a.LearningStartTime,
		CpuUpperLimit:             a.Cpu.UpperLimit,
		CpuLowerLimit:             a.Cpu.LowerLimit,
		CpuThresholdPolicy:        a.Cpu.Policy,
		CpuScalingEnabled:         a.Cpu.Enabled,
		RamUpperLimit:             a.Ram.UpperLimit,
		RamLowerLimit:             a.Ram.LowerLimit,
		RamThresholdPolicy:        a.Ram.Policy,
		RamScalingEnabled:         a.Ram.Enabled,
		LatencyUpperLimit:         a.Latency.UpperLimit,
		LatencyLowerLimit:         a.Latency.LowerLimit,
		LatencyThresholdPolicy:    a.Latency.Policy,
		LatencyScalingEnabled:     a.Latency.Enabled,
		Quotient:                  a.Requests.quotient,
		MinQuotient:               a.Requests.minQuotient,
		RequestThresholdPolicy:    a.Requests.Policy,
		QuotientScalingEnabled:    a.Requests.Enabled,
	}
}
