package server

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
)

var ErrAppNotFound = fmt.Errorf("不存在本应用")

var ErrInterrupted = fmt.Errorf("等待应用锁时被中断")

var ErrBindingConflict = fmt.Errorf("已存在ID相同但内容不同的绑定")

var ErrBindingNotFound = fmt.Errorf("不存在该绑定")

var ErrBadRequest = fmt.Errorf("请求格式错误")

// UpdateRequest 部分更新请求，为nil的字段不修改
type UpdateRequest struct {
	ScalingEnabled            *bool `json:"scalingEnabled,omitempty"`
	PredictionScalingEnabled  *bool `json:"predictionScalingEnabled,omitempty"`
	LearningEnabled           *bool `json:"learningEnabled,omitempty"`
	BillingIntervalConsidered *bool `json:"billingIntervalConsidered,omitempty"`

	ScalingIntervalMultiplier *int   `json:"scalingIntervalMultiplier,omitempty"`
	MinInstances              *int   `json:"minInstances,omitempty"`
	MaxInstances              *int   `json:"maxInstances,omitempty"`
	CooldownTime              *int64 `json:"cooldownTime,omitempty"`
	LearningTimeMultiplier    *int   `json:"learningTimeMultiplier,omitempty"`

	CpuUpperLimit      *int64                `json:"cpuUpperLimit,omitempty"`
	CpuLowerLimit      *int64                `json:"cpuLowerLimit,omitempty"`
	CpuThresholdPolicy *core.ThresholdPolicy `json:"cpuThresholdPolicy,omitempty"`
	CpuScalingEnabled  *bool                 `json:"cpuScalingEnabled,omitempty"`

	RamUpperLimit      *int64                `json:"ramUpperLimit,omitempty"`
	RamLowerLimit      *int64                `json:"ramLowerLimit,omitempty"`
	RamThresholdPolicy *core.ThresholdPolicy `json:"ramThresholdPolicy,omitempty"`
	RamScalingEnabled  *bool                 `json:"ramScalingEnabled,omitempty"`

	LatencyUpperLimit      *int64                `json:"latencyUpperLimit,omitempty"`
	LatencyLowerLimit      *int64                `json:"latencyLowerLimit,omitempty"`
	LatencyThresholdPolicy *core.ThresholdPolicy `json:"latencyThresholdPolicy,omitempty"`
	LatencyScalingEnabled  *bool                 `json:"latencyScalingEnabled,omitempty"`

	MinQuotient            *int64                `json:"minQuotient,omitempty"`
	RequestThresholdPolicy *core.ThresholdPolicy `json:"requestThresholdPolicy,omitempty"`
	QuotientScalingEnabled *bool                 `json:"quotientScalingEnabled,omitempty"`
}

// API 管理与数据接入接口。管理操作在等待应用锁时可通过ctx中断，此时返回ErrInterrupted
type API interface {
	// Bind 返回的bool表示是否新建了应用。ID相同且内容相同的绑定不会重复创建
	Bind(ctx context.Context, binding *core.Binding) (*core.Blueprint, bool, error)
	Unbind(ctx context.Context, bindingId string) error
	BindingsOfService(ctx context.Context, serviceId string) ([]*core.Binding, error)

	GetApplication(ctx context.Context, bindingId string) (*core.Blueprint, error)
	UpdateApplication(ctx context.Context, bindingId string, request *UpdateRequest) (*core.Blueprint, error)
	ResetQuotient(ctx context.Context, bindingId string) (*core.Blueprint, error)
	ResetLearningStartTime(ctx context.Context, bindingId string) (*core.Blueprint, error)
	UpdateResourceName(ctx context.Context, bindingId string) (*core.Blueprint, error)

	// 数据接入是尽力而为的，不合法或过期的数据仅被丢弃，不会返回错误
	AddContainerMetric(ctx context.Context, metric *core.ContainerMetric) error
	AddHttpMetric(ctx context.Context, metric *core.HttpMetric) error
	AddPrediction(ctx context.Context, prediction *core.Prediction) error

	// Trigger 立即追加一次扩缩容检查
	Trigger()
}
