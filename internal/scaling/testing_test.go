package scaling

import (
	"context"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"sync"
	"testing"
)

const (
	testCreationTime int64 = 1
	testNow          int64 = 10000000
)

// newTestApp CPU阈值为[50, 90]、mean策略，实例数范围[1, 30]，没有冷却时间，已过学习期
func newTestApp(t *testing.T, modify func(bp *core.Blueprint)) *app.Application {
	defaults := app.DefaultDefaults()
	defaults.MinInstances = 1
	defaults.MaxInstances = 30
	defaults.CooldownTime = 0
	defaults.CpuUpperLimit = 90
	defaults.CpuLowerLimit = 50
	defaults.CpuScalingEnabled = true
	defaults.RamScalingEnabled = false
	defaults.LatencyScalingEnabled = false
	defaults.LearningEnabled = false
	bp := defaults.Blueprint(&core.Binding{
		Id:           "app-1",
		ResourceId:   "resource-1",
		ScalerId:     "scaler-1",
		ServiceId:    "service-1",
		CreationTime: testCreationTime,
	})
	if modify != nil {
		modify(bp)
	}
	a, err := app.New(bp, app.Settings{MaxMetricAge: 60000, MaxMetricListSize: 10})
	if !assert.NoError(t, err) {
		assert.FailNow(t, "创建应用失败")
	}
	return a
}

func addSnapshot(a *app.Application, cpu, ram, requests, latency int64, instances int) {
	a.History().Add(&core.ApplicationMetric{
		Cpu:           cpu,
		Ram:           ram,
		Requests:      requests,
		Latency:       latency,
		InstanceCount: instances,
	})
}

type fakeExecutor struct {
	mu     sync.Mutex
	status int
	err    error
	calls  []int
}

func (f *fakeExecutor) Scale(_ context.Context, _ *core.Binding, instances int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, instances)
	return f.status, f.err
}

type fakePublisher struct {
	mu      sync.Mutex
	metrics []*core.ApplicationMetric
	logs    []*core.ScalingLog
}

func (f *fakePublisher) PublishApplicationMetric(metric *core.ApplicationMetric) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metrics = append(f.metrics, metric)
}

func (f *fakePublisher) PublishScalingLog(log *core.ScalingLog) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, log)
}

type fakeStore struct {
	mu    sync.Mutex
	saved []*core.Blueprint
}

func (f *fakeStore) SaveBlueprint(bp *core.Blueprint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, bp)
	return nil
}

type staticSource []*app.Application

func (s staticSource) Applications() []*app.Application {
	return s
}
