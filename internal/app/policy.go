package app

import "github.com/packagewjx/app-autoscaler/pkg/core"

// Component 参与扩缩容决策的资源种类
type Component int

const (
	ComponentCpu Component = iota
	ComponentRam
	ComponentLatency
)

func (c Component) Reason() core.Reason {
	switch c {
	case ComponentCpu:
		return core.ReasonCpu
	case ComponentRam:
		return core.ReasonRam
	case ComponentLatency:
		return core.ReasonLatency
	default:
		return core.ReasonUndefined
	}
}

// Description 用于填充扩缩容描述
func (c Component) Description() string {
	switch c {
	case ComponentCpu:
		return "cpu load"
	case ComponentRam:
		return "ram load"
	case ComponentLatency:
		return "latency"
	default:
		return "unknown component"
	}
}

func (c Component) Field() Field {
	switch c {
	case ComponentCpu:
		return CpuField
	case ComponentRam:
		return RamField
	default:
		return LatencyField
	}
}

func (c Component) String() string {
	return c.Reason().String()
}

// ComponentPolicy 某一项资源的上下限、阈值策略与开关
type ComponentPolicy struct {
	Component  Component
	UpperLimit int64
	LowerLimit int64
	Policy     core.ThresholdPolicy
	Enabled    bool

	history *MetricWindow
}

// Value 按照阈值策略从快照历史中计算当前值。未知策略返回InvalidValue
func (p *ComponentPolicy) Value() int64 {
	return p.history.Reduce(p.Policy, p.Component.Field(), 0)
}

func (p *ComponentPolicy) AboveUpperLimit() bool {
	return p.Value() > p.UpperLimit
}
