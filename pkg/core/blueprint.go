package core

import (
	"encoding/json"
	"github.com/pkg/errors"
)

const (
	CpuUpperLimitMax             = 100
	ScalingIntervalMultiplierMin = 1
	LearningTimeMultiplierMin    = 1
)

// Blueprint 应用全部可持久化字段的扁平快照，用于保存与恢复应用
type Blueprint struct {
	Binding Binding `json:"binding"`

	ScalingEnabled            bool `json:"scalingEnabled"`
	PredictionScalingEnabled  bool `json:"predictionScalingEnabled"`
	LearningEnabled           bool `json:"learningEnabled"`
	BillingIntervalConsidered bool `json:"billingIntervalConsidered"`

	ScalingIntervalMultiplier int `json:"scalingIntervalMultiplier"`
	CurrentIntervalState      int `json:"currentIntervalState"`

	MinInstances int `json:"minInstances"`
	MaxInstances int `json:"maxInstances"`

	CooldownTime           int64 `json:"cooldownTime"`
	LastScalingTime        int64 `json:"lastScalingTime"`
	LearningTimeMultiplier int   `json:"learningTimeMultiplier"`
	LearningStartTime      int64 `json:"learningStartTime"`

	CpuUpperLimit      int64           `json:"cpuUpperLimit"`
	CpuLowerLimit      int64           `json:"cpuLowerLimit"`
	CpuThresholdPolicy ThresholdPolicy `json:"cpuThresholdPolicy"`
	CpuScalingEnabled  bool            `json:"cpuScalingEnabled"`

	RamUpperLimit      int64           `json:"ramUpperLimit"`
	RamLowerLimit      int64           `json:"ramLowerLimit"`
	RamThresholdPolicy ThresholdPolicy `json:"ramThresholdPolicy"`
	RamScalingEnabled  bool            `json:"ramScalingEnabled"`

	LatencyUpperLimit      int64           `json:"latencyUpperLimit"`
	LatencyLowerLimit      int64           `json:"latencyLowerLimit"`
	LatencyThresholdPolicy ThresholdPolicy `json:"latencyThresholdPolicy"`
	LatencyScalingEnabled  bool            `json:"latencyScalingEnabled"`

	Quotient               int64           `json:"quotient"`
	MinQuotient            int64           `json:"minQuotient"`
	RequestThresholdPolicy ThresholdPolicy `json:"requestThresholdPolicy"`
	QuotientScalingEnabled bool            `json:"quotientScalingEnabled"`
}

func (bp *Blueprint) String() string {
	marshal, _ := json.Marshal(bp)
	return string(marshal)
}

func (bp *Blueprint) Copy() *Blueprint {
	c := *bp
	c.Binding = *bp.Binding.Copy()
	return &c
}

// Validate 检查所有字段，返回第一个发现的错误
func (bp *Blueprint) Validate() error {
	if err := bp.Binding.Validate(); err != nil {
		return err
	}

	policies := []struct {
		name   string
		policy ThresholdPolicy
	}{
		{"cpu", bp.CpuThresholdPolicy},
		{"ram", bp.RamThresholdPolicy},
		{"latency", bp.LatencyThresholdPolicy},
		{"request", bp.RequestThresholdPolicy},
	}
	for _, p := range policies {
		if !p.policy.Valid() {
			return errors.Wrapf(ErrPolicy, "%s的阈值策略%q不是max、min或mean", p.name, p.policy)
		}
	}

	if bp.CpuUpperLimit <= bp.CpuLowerLimit {
		return errors.Wrapf(ErrLimit, "CPU上限%d不大于下限%d", bp.CpuUpperLimit, bp.CpuLowerLimit)
	}
	if bp.CpuUpperLimit > CpuUpperLimitMax {
		return errors.Wrapf(ErrLimit, "CPU上限%d大于%d", bp.CpuUpperLimit, CpuUpperLimitMax)
	}
	if bp.CpuLowerLimit < 0 {
		return errors.Wrapf(ErrLimit, "CPU下限%d为负数", bp.CpuLowerLimit)
	}
	if bp.RamUpperLimit <= bp.RamLowerLimit {
		return errors.Wrapf(ErrLimit, "内存上限%d不大于下限%d", bp.RamUpperLimit, bp.RamLowerLimit)
	}
	if bp.RamLowerLimit < 0 {
		return errors.Wrapf(ErrLimit, "内存下限%d为负数", bp.RamLowerLimit)
	}
	if bp.LatencyUpperLimit <= bp.LatencyLowerLimit {
		return errors.Wrapf(ErrLimit, "延迟上限%d不大于下限%d", bp.LatencyUpperLimit, bp.LatencyLowerLimit)
	}
	if bp.LatencyLowerLimit < 0 {
		return errors.Wrapf(ErrLimit, "延迟下限%d为负数", bp.LatencyLowerLimit)
	}
	if bp.MinQuotient < 0 {
		return errors.Wrapf(ErrLimit, "minQuotient %d为负数", bp.MinQuotient)
	}
	if bp.Quotient < bp.MinQuotient {
		return errors.Wrapf(ErrLimit, "quotient %d小于minQuotient %d", bp.Quotient, bp.MinQuotient)
	}
	if bp.MinInstances < 0 {
		return errors.Wrapf(ErrLimit, "最小实例数%d为负数", bp.MinInstances)
	}
	if bp.MaxInstances < bp.MinInstances {
		return errors.Wrapf(ErrLimit, "最大实例数%d小于最小实例数%d", bp.MaxInstances, bp.MinInstances)
	}
	if bp.CooldownTime < 0 {
		return errors.Wrapf(ErrTime, "冷却时间%d为负数", bp.CooldownTime)
	}
	if bp.LearningTimeMultiplier < LearningTimeMultiplierMin {
		return errors.Wrapf(ErrTime, "learningTimeMultiplier %d小于%d", bp.LearningTimeMultiplier, LearningTimeMultiplierMin)
	}
	if bp.ScalingIntervalMultiplier < ScalingIntervalMultiplierMin {
		return errors.Wrapf(ErrTime, "scalingIntervalMultiplier %d小于%d", bp.ScalingIntervalMultiplier, ScalingIntervalMultiplierMin)
	}
	if bp.LastScalingTime < 0 || bp.LearningStartTime < 0 {
		return errors.Wrapf(ErrTime, "时间戳为负数，lastScalingTime为%d，learningStartTime为%d",
			bp.LastScalingTime, bp.LearningStartTime)
	}

	if bp.CurrentIntervalState < 0 || bp.CurrentIntervalState >= bp.ScalingIntervalMultiplier {
		return errors.Wrapf(ErrWorkingSet, "currentIntervalState %d不在[0, %d)之间",
			bp.CurrentIntervalState, bp.ScalingIntervalMultiplier)
	}
	if bp.LastScalingTime < bp.Binding.CreationTime {
		return errors.Wrapf(ErrWorkingSet, "lastScalingTime %d早于创建时间%d", bp.LastScalingTime, bp.Binding.CreationTime)
	}
	if bp.LearningStartTime < bp.Binding.CreationTime {
		return errors.Wrapf(ErrWorkingSet, "learningStartTime %d早于创建时间%d", bp.LearningStartTime, bp.Binding.CreationTime)
	}

	return nil
}
