package server

import (
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/stretchr/testify/assert"
	"testing"
	"time"
)

func TestServerConfig_Complete(t *testing.T) {
	config := ServerConfig{
		Port:              DefaultPort,
		TickInterval:      DefaultTickInterval,
		MaxMetricAge:      DefaultMaxMetricAge,
		MaxMetricListSize: DefaultMaxMetricListSize,
		ScrapeEnabled:     true,
		ScrapeInterval:    30 * time.Second,
	}
	configCopy := config
	assert.NoError(t, configCopy.Complete())
	assert.Equal(t, 1, configCopy.StaticScalingSize)
	assert.NotNil(t, configCopy.Defaults)
	assert.Equal(t, DefaultMysqlUser, configCopy.MysqlUser)
	assert.Equal(t, DefaultMysqlDatabase, configCopy.MysqlDatabase)

	configCopy = config
	configCopy.Port = 80
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.TickInterval = 100 * time.Millisecond
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.MaxMetricAge = 0
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.MaxMetricListSize = 0
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.ScrapeInterval = time.Second
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.ScrapeEnabled = false
	configCopy.ScrapeInterval = 0
	assert.NoError(t, configCopy.Complete())

	configCopy = config
	defaults := app.DefaultDefaults()
	defaults.MinInstances = 20
	configCopy.Defaults = defaults
	assert.Error(t, configCopy.Complete())

	configCopy = config
	configCopy.SqlitePath = "autoscaler.db"
	assert.NoError(t, configCopy.Complete())
	assert.Empty(t, configCopy.MysqlUser)
}

func TestNewServer(t *testing.T) {
	config := &ServerConfig{
		Port:                  DefaultPort,
		TickInterval:          DefaultTickInterval,
		MaxMetricAge:          DefaultMaxMetricAge,
		MaxMetricListSize:     DefaultMaxMetricListSize,
		SqlitePath:            "file:TestNewServer?mode=memory&cache=shared",
		ScalingEngineEndpoint: "http://localhost:8080",
	}
	s, err := NewServer(config)
	assert.NoError(t, err)
	assert.NotNil(t, s)

	configCopy := *config
	configCopy.ScalingEngineEndpoint = ""
	_, err = NewServer(&configCopy)
	assert.Error(t, err)

	configCopy = *config
	configCopy.ExecutorKind = "unknown"
	_, err = NewServer(&configCopy)
	assert.Error(t, err)

	configCopy = *config
	configCopy.Port = 0
	_, err = NewServer(&configCopy)
	assert.Error(t, err)
}
