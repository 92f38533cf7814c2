package app

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

const (
	// NoMetricInstanceCount 无法得知当前实例数时的返回值
	NoMetricInstanceCount = -666

	// InvalidValue 未知阈值策略时的计算结果
	InvalidValue int64 = -1

	// LearningStandardTime 学习时间的基本单位，毫秒
	LearningStandardTime int64 = 60 * 1000
)

const (
	DefaultMaxMetricAge    int64 = 60 * 1000
	DefaultMaxMetricListSize     = 30
)

// Settings 进程范围的设置，不随应用保存
type Settings struct {
	MaxMetricAge      int64 // 原始数据的最大年龄，毫秒
	MaxMetricListSize int   // 原始数据与快照队列的最大长度
}

func (s Settings) complete() Settings {
	if s.MaxMetricAge <= 0 {
		s.MaxMetricAge = DefaultMaxMetricAge
	}
	if s.MaxMetricListSize <= 0 {
		s.MaxMetricListSize = DefaultMaxMetricListSize
	}
	return s
}

// Application 一个被绑定的应用的全部扩缩容状态。除Id与Acquire/Release外，
// 所有方法都要求调用方已经持有本应用的锁
type Application struct {
	binding *core.Binding
	lock    *semaphore.Weighted

	ScalingEnabled            bool
	PredictionScalingEnabled  bool
	BillingIntervalConsidered bool
	learningEnabled           bool

	scalingIntervalMultiplier int
	currentIntervalState      int

	MinInstances int
	MaxInstances int

	CooldownTime           int64
	LastScalingTime        int64
	LearningTimeMultiplier int
	LearningStartTime      int64

	Cpu      *ComponentPolicy
	Ram      *ComponentPolicy
	Latency  *ComponentPolicy
	Requests *QuotientController

	containerMetrics []*core.ContainerMetric
	httpMetrics      []*core.HttpMetric
	history          *MetricWindow
	prediction       *core.Prediction

	settings Settings
	detached bool
}

func newApplication(binding *core.Binding, settings Settings) *Application {
	settings = settings.complete()
	history := NewMetricWindow(settings.MaxMetricListSize)
	return &Application{
		binding:                   binding.Copy(),
		lock:                      semaphore.NewWeighted(1),
		scalingIntervalMultiplier: 1,
		LearningTimeMultiplier:    1,
		Cpu:                       &ComponentPolicy{Component: ComponentCpu, history: history},
		Ram:                       &ComponentPolicy{Component: ComponentRam, history: history},
		Latency:                   &ComponentPolicy{Component: ComponentLatency, history: history},
		Requests:                  &QuotientController{history: history},
		containerMetrics:          make([]*core.ContainerMetric, 0, settings.MaxMetricListSize),
		httpMetrics:               make([]*core.HttpMetric, 0, settings.MaxMetricListSize),
		history:                   history,
		settings:                  settings,
	}
}

func (a *Application) Id() string {
	return a.binding.Id
}

// Binding 返回绑定记录的副本
func (a *Application) Binding() *core.Binding {
	return a.binding.Copy()
}

func (a *Application) ResourceId() string {
	return a.binding.ResourceId
}

func (a *Application) SetResourceName(name string) {
	a.binding.ResourceName = name
}

func (a *Application) String() string {
	return fmt.Sprintf("%s(%s)", a.binding.Id, a.binding.ResourceId)
}

// Acquire 获取本应用的锁，ctx取消时返回server.ErrInterrupted且不持有锁
func (a *Application) Acquire(ctx context.Context) error {
	if err := a.lock.Acquire(ctx, 1); err != nil {
		return errors.Wrap(server.ErrInterrupted, err.Error())
	}
	return nil
}

func (a *Application) Release() {
	a.lock.Release(1)
}

// Detach 标记应用已被解绑，此后扫描线程不再处理本应用
func (a *Application) Detach() {
	a.detached = true
}

func (a *Application) Detached() bool {
	return a.detached
}

func (a *Application) Components() []*ComponentPolicy {
	return []*ComponentPolicy{a.Cpu, a.Ram, a.Latency}
}

func (a *Application) LearningEnabled() bool {
	return a.learningEnabled
}

// SetLearningEnabled 从关闭切换到开启时，重新开始学习时间
func (a *Application) SetLearningEnabled(enabled bool, now int64) {
	if enabled && !a.learningEnabled {
		a.LearningStartTime = now
	}
	a.learningEnabled = enabled
}

func (a *Application) ScalingIntervalMultiplier() int {
	return a.scalingIntervalMultiplier
}

// SetScalingIntervalMultiplier 保证currentIntervalState始终小于multiplier
func (a *Application) SetScalingIntervalMultiplier(multiplier int) {
	a.scalingIntervalMultiplier = multiplier
	if a.currentIntervalState >= multiplier {
		a.currentIntervalState = multiplier - 1
	}
}

func (a *Application) CurrentIntervalState() int {
	return a.currentIntervalState
}

// TimeToCheck 推进一个时钟周期，返回本周期是否需要进行扩缩容判断
func (a *Application) TimeToCheck() bool {
	a.currentIntervalState = (a.currentIntervalState + 1) % a.scalingIntervalMultiplier
	return a.currentIntervalState == 0
}

func (a *Application) InCooldown(now int64) bool {
	return now-a.LastScalingTime < a.CooldownTime
}

func (a *Application) InLearningTime(now int64) bool {
	return now-a.LearningStartTime < int64(a.LearningTimeMultiplier)*LearningStandardTime
}

func (a *Application) ResetLearningStartTime(now int64) {
	a.LearningStartTime = now
}

// IsTooOld 判断时间戳为timestamp的数据是否已过期
func (a *Application) IsTooOld(timestamp, now int64) bool {
	return now-timestamp > a.settings.MaxMetricAge
}

// AddContainerMetric 过期数据不会加入，返回是否加入
func (a *Application) AddContainerMetric(m *core.ContainerMetric, now int64) bool {
	if m == nil || a.IsTooOld(m.Timestamp, now) {
		return false
	}
	if len(a.containerMetrics) >= a.settings.MaxMetricListSize {
		copy(a.containerMetrics, a.containerMetrics[1:])
		a.containerMetrics = a.containerMetrics[:len(a.containerMetrics)-1]
	}
	a.containerMetrics = append(a.containerMetrics, m)
	return true
}

func (a *Application) AddHttpMetric(m *core.HttpMetric, now int64) bool {
	if m == nil || a.IsTooOld(m.Timestamp, now) {
		return false
	}
	if len(a.httpMetrics) >= a.settings.MaxMetricListSize {
		copy(a.httpMetrics, a.httpMetrics[1:])
		a.httpMetrics = a.httpMetrics[:len(a.httpMetrics)-1]
	}
	a.httpMetrics = append(a.httpMetrics, m)
	return true
}

func (a *Application) ContainerMetrics() []*core.ContainerMetric {
	result := make([]*core.ContainerMetric, len(a.containerMetrics))
	copy(result, a.containerMetrics)
	return result
}

func (a *Application) HttpMetrics() []*core.HttpMetric {
	result := make([]*core.HttpMetric, len(a.httpMetrics))
	copy(result, a.httpMetrics)
	return result
}

// ResetRawBuffers 清空尚未聚合的原始数据
func (a *Application) ResetRawBuffers() {
	a.containerMetrics = a.containerMetrics[:0]
	a.httpMetrics = a.httpMetrics[:0]
}

// AddApplicationMetric 冷却期内不记录快照，返回是否记录
func (a *Application) AddApplicationMetric(m *core.ApplicationMetric, now int64) bool {
	if m == nil || a.InCooldown(now) {
		return false
	}
	a.history.Add(m)
	return true
}

func (a *Application) History() *MetricWindow {
	return a.history
}

func (a *Application) ResetHistory() {
	a.history.Reset()
}

// CurrentInstanceCount 有原始实例数据时为最大实例序号加一，否则取最近快照记录的实例数，
// 都没有时返回NoMetricInstanceCount
func (a *Application) CurrentInstanceCount() int {
	if len(a.containerMetrics) > 0 {
		maxIndex := -1
		for _, m := range a.containerMetrics {
			if m.InstanceIndex > maxIndex {
				maxIndex = m.InstanceIndex
			}
		}
		return maxIndex + 1
	}
	if last := a.history.Last(); last != nil {
		return last.InstanceCount
	}
	return NoMetricInstanceCount
}

func (a *Application) Prediction() *core.Prediction {
	return a.prediction
}

// SetPrediction 替换之前的预测
func (a *Application) SetPrediction(p *core.Prediction) {
	a.prediction = p
}

func (a *Application) ClearPrediction() {
	a.prediction = nil
}

func (a *Application) Settings() Settings {
	return a.settings
}
