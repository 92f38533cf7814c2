package app

import "github.com/packagewjx/app-autoscaler/pkg/core"

// Defaults 新绑定应用的初始配置
type Defaults struct {
	ScalingEnabled            bool `mapstructure:"scaling-enabled"`
	PredictionScalingEnabled  bool `mapstructure:"prediction-scaling-enabled"`
	LearningEnabled           bool `mapstructure:"learning-enabled"`
	BillingIntervalConsidered bool `mapstructure:"billing-interval-considered"`

	ScalingIntervalMultiplier int   `mapstructure:"scaling-interval-multiplier"`
	MinInstances              int   `mapstructure:"min-instances"`
	MaxInstances              int   `mapstructure:"max-instances"`
	CooldownTime              int64 `mapstructure:"cooldown-time"`
	LearningTimeMultiplier    int   `mapstructure:"learning-time-multiplier"`

	CpuUpperLimit      int64  `mapstructure:"cpu-upper-limit"`
	CpuLowerLimit      int64  `mapstructure:"cpu-lower-limit"`
	CpuThresholdPolicy string `mapstructure:"cpu-threshold-policy"`
	CpuScalingEnabled  bool   `mapstructure:"cpu-scaling-enabled"`

	RamUpperLimit      int64  `mapstructure:"ram-upper-limit"`
	RamLowerLimit      int64  `mapstructure:"ram-lower-limit"`
	RamThresholdPolicy string `mapstructure:"ram-threshold-policy"`
	RamScalingEnabled  bool   `mapstructure:"ram-scaling-enabled"`

	LatencyUpperLimit      int64  `mapstructure:"latency-upper-limit"`
	LatencyLowerLimit      int64  `mapstructure:"latency-lower-limit"`
	LatencyThresholdPolicy string `mapstructure:"latency-threshold-policy"`
	LatencyScalingEnabled  bool   `mapstructure:"latency-scaling-enabled"`

	MinQuotient            int64  `mapstructure:"min-quotient"`
	RequestThresholdPolicy string `mapstructure:"request-threshold-policy"`
	QuotientScalingEnabled bool   `mapstructure:"quotient-scaling-enabled"`
}

// DefaultDefaults 未配置时使用的初始值
func DefaultDefaults() *Defaults {
	return &Defaults{
		ScalingEnabled:            true,
		LearningEnabled:           true,
		ScalingIntervalMultiplier: 1,
		MinInstances:              1,
		MaxInstances:              10,
		CooldownTime:              60 * 1000,
		LearningTimeMultiplier:    1,
		CpuUpperLimit:             80,
		CpuLowerLimit:             20,
		CpuThresholdPolicy:        string(core.PolicyMean),
		CpuScalingEnabled:         true,
		RamUpperLimit:             1 << 30,
		RamLowerLimit:             0,
		RamThresholdPolicy:        string(core.PolicyMean),
		LatencyUpperLimit:         1000,
		LatencyLowerLimit:         0,
		LatencyThresholdPolicy:    string(core.PolicyMean),
		RequestThresholdPolicy:    string(core.PolicyMean),
	}
}

// Blueprint 由默认值与绑定生成的蓝图。quotient初始为minQuotient，
// 最后扩缩容时间与学习开始时间都为绑定的创建时间
func (d *Defaults) Blueprint(binding *core.Binding) *core.Blueprint {
	return &core.Blueprint{
		Binding:                   *binding.Copy(),
		ScalingEnabled:            d.ScalingEnabled,
		PredictionScalingEnabled:  d.PredictionScalingEnabled,
		LearningEnabled:           d.LearningEnabled,
		BillingIntervalConsidered: d.BillingIntervalConsidered,
		ScalingIntervalMultiplier: d.ScalingIntervalMultiplier,
		CurrentIntervalState:      0,
		MinInstances:              d.MinInstances,
		MaxInstances:              d.MaxInstances,
		CooldownTime:              d.CooldownTime,
		LastScalingTime:           binding.CreationTime,
		LearningTimeMultiplier:    d.LearningTimeMultiplier,
		LearningStartTime:         binding.CreationTime,
		CpuUpperLimit:             d.CpuUpperLimit,
		CpuLowerLimit:             d.CpuLowerLimit,
		CpuThresholdPolicy:        core.ThresholdPolicy(d.CpuThresholdPolicy),
		CpuScalingEnabled:         d.CpuScalingEnabled,
		RamUpperLimit:             d.RamUpperLimit,
		RamLowerLimit:             d.RamLowerLimit,
		RamThresholdPolicy:        core.ThresholdPolicy(d.RamThresholdPolicy),
		RamScalingEnabled:         d.RamScalingEnabled,
		LatencyUpperLimit:         d.LatencyUpperLimit,
		LatencyLowerLimit:         d.LatencyLowerLimit,
		LatencyThresholdPolicy:    core.ThresholdPolicy(d.LatencyThresholdPolicy),
		LatencyScalingEnabled:     d.LatencyScalingEnabled,
		Quotient:                  d.MinQuotient,
		MinQuotient:               d.MinQuotient,
		RequestThresholdPolicy:    core.ThresholdPolicy(d.RequestThresholdPolicy),
		QuotientScalingEnabled:    d.QuotientScalingEnabled,
	}
}

// Validate 用一个示例绑定检查默认值能否生成合法的应用
func (d *Defaults) Validate() error {
	return d.Blueprint(&core.Binding{
		Id:         "defaults",
		ResourceId: "defaults",
		ScalerId:   "defaults",
		ServiceId:  "defaults",
	}).Validate()
}

// NewFromBinding 根据默认值为新绑定创建应用。创建时间为0时使用now
func NewFromBinding(binding *core.Binding, defaults *Defaults, settings Settings, now int64) (*Application, error) {
	b := binding.Copy()
	if b.CreationTime == 0 {
		b.CreationTime = now
	}
	return New(defaults.Blueprint(b), settings)
}
