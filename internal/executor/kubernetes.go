package executor

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/metricsclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"net/http"
	"time"
)

const (
	ContextKeyNamespace = "namespace"
	DefaultNamespace    = "default"
)

// NewClientset kubeconfig为空时使用集群内配置
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
	config, err := metricsclient.RestConfig(kubeconfig)
	if err != nil {
		return nil, err
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "创建Kubernetes客户端失败")
	}
	return clientset, nil
}

// kubernetesExecutor 资源ID为Deployment名称，名称空间取自绑定上下文
type kubernetesExecutor struct {
	clientset kubernetes.Interface
	timeout   time.Duration
	logger    *logrus.Entry
}

var _ Executor = &kubernetesExecutor{}

func NewKubernetesExecutor(clientset kubernetes.Interface, timeout time.Duration) Executor {
	return &kubernetesExecutor{
		clientset: clientset,
		timeout:   timeout,
		logger:    logrus.WithField("component", "kubernetes-executor"),
	}
}

func namespaceOf(binding *core.Binding) string {
	if ns, ok := binding.Context[ContextKeyNamespace]; ok && ns != "" {
		return ns
	}
	return DefaultNamespace
}

func (k *kubernetesExecutor) Scale(ctx context.Context, binding *core.Binding, instances int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	namespace := namespaceOf(binding)
	deployments := k.clientset.AppsV1().Deployments(namespace)
	deployment, err := deployments.Get(ctx, binding.ResourceId, metav1.GetOptions{})
	if err != nil {
		return statusOf(err)
	}

	replicas := int32(instances)
	deployment.Spec.Replicas = &replicas
	if _, err = deployments.Update(ctx, deployment, metav1.UpdateOptions{}); err != nil {
		return statusOf(err)
	}

	k.logger.Debugf("Deployment %s/%s的副本数修改为%d", namespace, binding.ResourceId, instances)
	return http.StatusOK, nil
}

func (k *kubernetesExecutor) ResourceName(ctx context.Context, binding *core.Binding) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	namespace := namespaceOf(binding)
	deployment, err := k.clientset.AppsV1().Deployments(namespace).Get(ctx, binding.ResourceId, metav1.GetOptions{})
	if err != nil {
		return "", errors.Wrap(err, fmt.Sprintf("查询Deployment %s/%s失败", namespace, binding.ResourceId))
	}
	return fmt.Sprintf("%s/%s", deployment.Namespace, deployment.Name), nil
}

// statusOf API Server返回的错误转换为状态码，其他错误原样返回
func statusOf(err error) (int, error) {
	if status, ok := err.(apierrors.APIStatus); ok {
		return int(status.Status().Code), nil
	}
	return 0, errors.Wrap(err, "请求API Server失败")
}
