package core

import (
	"fmt"
	"github.com/pkg/errors"
	"reflect"
	"regexp"
)

// 时间戳统一使用毫秒级的Unix时间

type ThresholdPolicy string

const (
	PolicyMax  ThresholdPolicy = "max"
	PolicyMin  ThresholdPolicy = "min"
	PolicyMean ThresholdPolicy = "mean"
)

func (p ThresholdPolicy) Valid() bool {
	switch p {
	case PolicyMax, PolicyMin, PolicyMean:
		return true
	default:
		return false
	}
}

// Reason 扩缩容动作的依据
type Reason int

const (
	ReasonUndefined Reason = iota
	ReasonCpu
	ReasonRam
	ReasonLatency
	ReasonPredictor
	ReasonLimit
)

var reasonNames = map[Reason]string{
	ReasonUndefined: "undefined",
	ReasonCpu:       "cpu",
	ReasonRam:       "ram",
	ReasonLatency:   "latency",
	ReasonPredictor: "predictor",
	ReasonLimit:     "limit",
}

func (r Reason) Known() bool {
	return r >= ReasonUndefined && r <= ReasonLimit
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

var idPattern = regexp.MustCompile("^[A-Za-z0-9-]+$")

// ValidId 标识符只能由字母、数字与连字符组成，且不能为空
func ValidId(id string) bool {
	return idPattern.MatchString(id)
}

// Binding 应用与平台资源、所属Scaler之间的绑定记录
type Binding struct {
	Id           string            `json:"id"`
	ResourceId   string            `json:"resourceId"`
	ResourceName string            `json:"resourceName,omitempty"`
	ScalerId     string            `json:"scalerId"`
	ServiceId    string            `json:"serviceId"`
	Context      map[string]string `json:"context,omitempty"`
	CreationTime int64             `json:"creationTime"`
}

func (b *Binding) Validate() error {
	if b == nil {
		return errors.Wrap(ErrBinding, "binding为空")
	}
	fields := []struct {
		name  string
		value string
	}{
		{"id", b.Id},
		{"resourceId", b.ResourceId},
		{"scalerId", b.ScalerId},
		{"serviceId", b.ServiceId},
	}
	for _, field := range fields {
		if field.value == "" {
			return errors.Wrapf(ErrBinding, "%s不能为空", field.name)
		}
		if !ValidId(field.value) {
			return errors.Wrapf(ErrCharacter, "%s含有非法字符：%s", field.name, field.value)
		}
	}
	if b.CreationTime < 0 {
		return errors.Wrapf(ErrTime, "binding创建时间为负数：%d", b.CreationTime)
	}
	return nil
}

// SameBinding 比较两个绑定的身份信息，资源名称与创建时间不参与比较
func (b *Binding) SameBinding(o *Binding) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.Id != o.Id || b.ResourceId != o.ResourceId || b.ScalerId != o.ScalerId || b.ServiceId != o.ServiceId {
		return false
	}
	if len(b.Context) == 0 && len(o.Context) == 0 {
		return true
	}
	return reflect.DeepEqual(b.Context, o.Context)
}

func (b *Binding) Copy() *Binding {
	c := *b
	if b.Context != nil {
		c.Context = make(map[string]string, len(b.Context))
		for k, v := range b.Context {
			c.Context[k] = v
		}
	}
	return &c
}

// ContainerMetric 单个实例的资源使用量。Cpu为百分比，Ram为字节数，负数表示该字段缺失
type ContainerMetric struct {
	Timestamp     int64  `json:"timestamp"`
	ResourceId    string `json:"resourceId"`
	InstanceIndex int    `json:"instanceIndex"`
	Cpu           int64  `json:"cpu"`
	Ram           int64  `json:"ram"`
	Description   string `json:"description,omitempty"`
}

// HttpMetric 一段时间窗口内的请求数与平均延迟（毫秒）
type HttpMetric struct {
	Timestamp   int64  `json:"timestamp"`
	ResourceId  string `json:"resourceId"`
	Requests    int64  `json:"requests"`
	Latency     int64  `json:"latency"`
	Description string `json:"description,omitempty"`
}

// ApplicationMetric 聚合后的应用快照
type ApplicationMetric struct {
	Timestamp     int64  `json:"timestamp"`
	AppId         string `json:"appId"`
	ResourceId    string `json:"resourceId"`
	ResourceName  string `json:"resourceName,omitempty"`
	Cpu           int64  `json:"cpu"`
	Ram           int64  `json:"ram"`
	Requests      int64  `json:"requests"`
	Latency       int64  `json:"latency"`
	Quotient      int64  `json:"quotient"`
	InstanceCount int    `json:"instanceCount"`
}

// Prediction 外部预测器给出的某一时间段[IntervalStart, IntervalEnd)内的目标实例数
type Prediction struct {
	Timestamp     int64  `json:"timestamp"`
	AppId         string `json:"appId"`
	PredictorId   string `json:"predictorId"`
	InstanceCount int    `json:"instanceCount"`
	IntervalStart int64  `json:"intervalStart"`
	IntervalEnd   int64  `json:"intervalEnd"`
	Description   string `json:"description,omitempty"`
}

func (p *Prediction) Validate() error {
	if !ValidId(p.AppId) {
		return errors.Wrapf(ErrCharacter, "非法的应用ID：%q", p.AppId)
	}
	if !ValidId(p.PredictorId) {
		return errors.Wrapf(ErrCharacter, "非法的预测器ID：%q", p.PredictorId)
	}
	if p.InstanceCount <= 0 {
		return errors.Wrapf(ErrLimit, "预测实例数必须为正数，现在为%d", p.InstanceCount)
	}
	if p.Timestamp < 0 || p.IntervalStart < 0 || p.IntervalEnd < 0 {
		return errors.Wrap(ErrTime, "预测时间戳不能为负数")
	}
	if p.IntervalStart >= p.IntervalEnd {
		return errors.Wrapf(ErrTime, "预测区间开始时间%d不早于结束时间%d", p.IntervalStart, p.IntervalEnd)
	}
	return nil
}

// ScalingLog 每次执行扩缩容后发布的记录
type ScalingLog struct {
	Timestamp         int64  `json:"timestamp"`
	AppId             string `json:"appId"`
	ResourceId        string `json:"resourceId"`
	ResourceName      string `json:"resourceName,omitempty"`
	Reason            Reason `json:"reason"`
	OldInstances      int    `json:"oldInstances"`
	NewInstances      int    `json:"newInstances"`
	MinInstances      int    `json:"minInstances"`
	MaxInstances      int    `json:"maxInstances"`
	Cpu               int64  `json:"cpu"`
	CpuUpperLimit     int64  `json:"cpuUpperLimit"`
	CpuLowerLimit     int64  `json:"cpuLowerLimit"`
	Ram               int64  `json:"ram"`
	RamUpperLimit     int64  `json:"ramUpperLimit"`
	RamLowerLimit     int64  `json:"ramLowerLimit"`
	Requests          int64  `json:"requests"`
	Latency           int64  `json:"latency"`
	LatencyUpperLimit int64  `json:"latencyUpperLimit"`
	LatencyLowerLimit int64  `json:"latencyLowerLimit"`
	Quotient          int64  `json:"quotient"`
	Description       string `json:"description"`
	StatusCode        int    `json:"statusCode"`
}
