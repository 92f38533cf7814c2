package server

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/internal/scaling"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"net/http"
	"sync"
	"testing"
	"time"
)

const testNow int64 = 10000000

func testClock() time.Time {
	return time.Unix(0, testNow*int64(time.Millisecond))
}

type fakeExecutor struct {
	mu      sync.Mutex
	name    string
	nameErr error
	scaled  []int
}

func (f *fakeExecutor) Scale(_ context.Context, _ *core.Binding, instances int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scaled = append(f.scaled, instances)
	return http.StatusOK, nil
}

func (f *fakeExecutor) ResourceName(_ context.Context, binding *core.Binding) (string, error) {
	if f.nameErr != nil {
		return "", f.nameErr
	}
	return f.name, nil
}

func newTestDao(t *testing.T) Dao {
	dao, err := NewDaoWithDialector(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())))
	if !assert.NoError(t, err) {
		assert.FailNow(t, "创建数据库失败")
	}
	return dao
}

func testConfig() *ServerConfig {
	defaults := app.DefaultDefaults()
	defaults.CooldownTime = 0
	return &ServerConfig{
		Port:              DefaultPort,
		TickInterval:      DefaultTickInterval,
		MaxMetricAge:      DefaultMaxMetricAge,
		MaxMetricListSize: DefaultMaxMetricListSize,
		StaticScalingSize: 1,
		SqlitePath:        "unused",
		Defaults:          defaults,
	}
}

func newTestServer(t *testing.T, dao Dao, exec *fakeExecutor) *serverImpl {
	config := testConfig()
	if !assert.NoError(t, config.Complete()) {
		assert.FailNow(t, "配置非法")
	}
	s, err := newServer(config, dao, exec, nil, testClock)
	if !assert.NoError(t, err) {
		assert.FailNow(t, "创建服务器失败")
	}
	return s
}

func testBinding(id, resourceId string) *core.Binding {
	return &core.Binding{
		Id:         id,
		ResourceId: resourceId,
		ScalerId:   "scaler-1",
		ServiceId:  "service-1",
		Context:    map[string]string{"namespace": "shop"},
	}
}

func millisOf(t time.Time) int64 {
	return scaling.Millis(t)
}
