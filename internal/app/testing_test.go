package app

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"testing"
)

const testCreationTime int64 = 1000000

func testBlueprint() *core.Blueprint {
	defaults := DefaultDefaults()
	defaults.MinInstances = 1
	defaults.MaxInstances = 30
	defaults.CooldownTime = 0
	return defaults.Blueprint(&core.Binding{
		Id:           "app-1",
		ResourceId:   "resource-1",
		ScalerId:     "scaler-1",
		ServiceId:    "service-1",
		Context:      map[string]string{"platform": "test"},
		CreationTime: testCreationTime,
	})
}

func newTestApp(t *testing.T) *Application {
	a, err := New(testBlueprint(), Settings{MaxMetricAge: 60000, MaxMetricListSize: 5})
	if !assert.NoError(t, err) {
		assert.FailNow(t, "创建应用失败")
	}
	return a
}

func snapshot(cpu, ram, requests, latency int64, instances int) *core.ApplicationMetric {
	return &core.ApplicationMetric{
		Cpu:           cpu,
		Ram:           ram,
		Requests:      requests,
		Latency:       latency,
		InstanceCount: instances,
	}
}
