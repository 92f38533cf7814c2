package metricsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"io/ioutil"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	metrics "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	"k8s.io/metrics/pkg/client/clientset/versioned"
	"net/http"
	"net/url"
	"strings"
)

// DefaultKubeApiServerBaseUrl kubectl proxy的默认地址
const DefaultKubeApiServerBaseUrl = "http://localhost:8001"

// Client 查询带有某个标签的Pod及其监控数据。namespace为空时查询所有名称空间
type Client interface {
	QueryPodMetrics(ctx context.Context, namespace, labelSelector string) (*metrics.PodMetricsList, error)

	QueryPods(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error)
}

// RestConfig kubeconfig为空时使用集群内配置
func RestConfig(kubeconfig string) (*rest.Config, error) {
	var config *rest.Config
	var err error
	if kubeconfig == "" {
		config, err = rest.InClusterConfig()
	} else {
		config, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	}
	if err != nil {
		return nil, errors.Wrap(err, "读取Kubernetes配置失败")
	}
	return config, nil
}

type httpClient struct {
	baseUrl string
	client  *http.Client
}

var _ Client = &httpClient{}

// NewHttpMetricsClient 通过kubectl proxy等无需认证的地址访问API Server
func NewHttpMetricsClient(baseUrl string) Client {
	return &httpClient{
		baseUrl: strings.TrimSuffix(baseUrl, "/"),
		client:  http.DefaultClient,
	}
}

func (h *httpClient) QueryPodMetrics(ctx context.Context, namespace, labelSelector string) (*metrics.PodMetricsList, error) {
	dest := &metrics.PodMetricsList{}
	err := h.get(ctx, h.url("/apis/metrics.k8s.io/v1beta1", namespace, labelSelector), dest)
	if err != nil {
		return nil, errors.Wrap(err, "请求PodMetricsList出错")
	}
	return dest, nil
}

func (h *httpClient) QueryPods(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error) {
	dest := &corev1.PodList{}
	err := h.get(ctx, h.url("/api/v1", namespace, labelSelector), dest)
	if err != nil {
		return nil, errors.Wrap(err, "请求PodList出错")
	}
	return dest, nil
}

func (h *httpClient) url(prefix, namespace, labelSelector string) string {
	u := h.baseUrl + prefix
	if namespace != "" {
		u += "/namespaces/" + namespace
	}
	u += "/pods"
	if labelSelector != "" {
		u += "?labelSelector=" + url.QueryEscape(labelSelector)
	}
	return u
}

func (h *httpClient) get(ctx context.Context, url string, dest interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	response, err := h.client.Do(request)
	if err != nil {
		return errors.Wrap(err, "请求时出现异常")
	}
	defer response.Body.Close()

	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return errors.Wrap(err, "读取出现异常")
	}
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("请求%s失败，状态码为%d", url, response.StatusCode)
	}

	err = json.Unmarshal(body, dest)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("反序列化异常，值为%s", string(body)))
	}
	return nil
}

type clientsetClient struct {
	kube    kubernetes.Interface
	metrics versioned.Interface
}

var _ Client = &clientsetClient{}

func NewClientsetMetricsClient(kube kubernetes.Interface, metrics versioned.Interface) Client {
	return &clientsetClient{kube: kube, metrics: metrics}
}

func NewClientsetMetricsClientForConfig(config *rest.Config) (Client, error) {
	kube, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "创建Kubernetes客户端失败")
	}
	metricsClientset, err := versioned.NewForConfig(config)
	if err != nil {
		return nil, errors.Wrap(err, "创建metrics客户端失败")
	}
	return NewClientsetMetricsClient(kube, metricsClientset), nil
}

func (c *clientsetClient) QueryPodMetrics(ctx context.Context, namespace, labelSelector string) (*metrics.PodMetricsList, error) {
	list, err := c.metrics.MetricsV1beta1().PodMetricses(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, errors.Wrap(err, "请求PodMetricsList出错")
	}
	return list, nil
}

func (c *clientsetClient) QueryPods(ctx context.Context, namespace, labelSelector string) (*corev1.PodList, error) {
	list, err := c.kube.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{LabelSelector: labelSelector})
	if err != nil {
		return nil, errors.Wrap(err, "请求PodList出错")
	}
	return list, nil
}
