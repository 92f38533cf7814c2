package executor

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"time"
)

const (
	KindScalingEngine = "scaling-engine"
	KindKubernetes    = "kubernetes"
)

const DefaultTimeout = 10 * time.Second

// Executor 调用外部平台修改应用的实例数，并可查询资源的可读名称
type Executor interface {
	// Scale 返回平台响应的状态码。状态码不小于400时error仍可能为nil
	Scale(ctx context.Context, binding *core.Binding, instances int) (int, error)

	ResourceName(ctx context.Context, binding *core.Binding) (string, error)
}

type Config struct {
	Kind       string
	Endpoint   string // scaling engine地址
	Secret     string // scaling engine的X-Auth-Token
	Kubeconfig string // 为空时使用集群内配置
	Timeout    time.Duration
}

func NewExecutor(config *Config) (Executor, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	switch config.Kind {
	case KindScalingEngine, "":
		if config.Endpoint == "" {
			return nil, fmt.Errorf("scaling engine地址不能为空")
		}
		return NewScalingEngine(config.Endpoint, config.Secret, config.Timeout), nil
	case KindKubernetes:
		clientset, err := NewClientset(config.Kubeconfig)
		if err != nil {
			return nil, err
		}
		return NewKubernetesExecutor(clientset, config.Timeout), nil
	default:
		return nil, fmt.Errorf("不支持的执行器类型%s", config.Kind)
	}
}
