package scaling

import (
	"fmt"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
)

// Action 一次扩缩容决策
type Action struct {
	App          *app.Application
	OldInstances int
	NewInstances int
	NeedToScale  bool
	Reason       core.Reason
	Description  string
}

// IsValid 目标实例数在应用的上下限之内且依据已知
func (a *Action) IsValid() bool {
	return a != nil && a.App != nil &&
		a.NewInstances >= a.App.MinInstances && a.NewInstances <= a.App.MaxInstances &&
		a.Reason.Known()
}

func (a *Action) IsUpscale() bool {
	return a.OldInstances < a.NewInstances
}

func (a *Action) IsDownscale() bool {
	return a.OldInstances > a.NewInstances
}

// Executable 需要真正调用外部扩缩容接口
func (a *Action) Executable() bool {
	return a != nil && a.NeedToScale && a.NewInstances != a.OldInstances && a.IsValid()
}

func (a *Action) String() string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %d -> %d, needToScale=%t, reason=%s, %s",
		a.App, a.OldInstances, a.NewInstances, a.NeedToScale, a.Reason, a.Description)
}

// ScalingLog 生成发布用的扩缩容记录
func (a *Action) ScalingLog(timestamp int64, statusCode int) *core.ScalingLog {
	binding := a.App.Binding()
	return &core.ScalingLog{
		Timestamp:         timestamp,
		AppId:             binding.Id,
		ResourceId:        binding.ResourceId,
		ResourceName:      binding.ResourceName,
		Reason:            a.Reason,
		OldInstances:      a.OldInstances,
		NewInstances:      a.NewInstances,
		MinInstances:      a.App.MinInstances,
		MaxInstances:      a.App.MaxInstances,
		Cpu:               a.App.Cpu.Value(),
		CpuUpperLimit:     a.App.Cpu.UpperLimit,
		CpuLowerLimit:     a.App.Cpu.LowerLimit,
		Ram:               a.App.Ram.Value(),
		RamUpperLimit:     a.App.Ram.UpperLimit,
		RamLowerLimit:     a.App.Ram.LowerLimit,
		Requests:          a.App.Requests.Value(),
		Latency:           a.App.Latency.Value(),
		LatencyUpperLimit: a.App.Latency.UpperLimit,
		LatencyLowerLimit: a.App.Latency.LowerLimit,
		Quotient:          a.App.Requests.Quotient(),
		Description:       a.Description,
		StatusCode:        statusCode,
	}
}
