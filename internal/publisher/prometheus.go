package publisher

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"strconv"
)

const namespace = "app_autoscaler"

var appLabels = []string{"app", "resource"}

// PrometheusPublisher 将最近一次快照与扩缩容记录暴露为Prometheus指标
type PrometheusPublisher struct {
	registry *prometheus.Registry

	cpu       *prometheus.GaugeVec
	ram       *prometheus.GaugeVec
	requests  *prometheus.GaugeVec
	latency   *prometheus.GaugeVec
	quotient  *prometheus.GaugeVec
	instances *prometheus.GaugeVec

	desiredInstances *prometheus.GaugeVec
	scalingTotal     *prometheus.CounterVec
}

var _ Publisher = &PrometheusPublisher{}

func newGaugeVec(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, appLabels)
}

func NewPrometheusPublisher() *PrometheusPublisher {
	p := &PrometheusPublisher{
		registry:         prometheus.NewRegistry(),
		cpu:              newGaugeVec("cpu_percent", "最近一次快照的平均CPU使用率"),
		ram:              newGaugeVec("ram_bytes", "最近一次快照的平均内存使用量"),
		requests:         newGaugeVec("requests", "最近一次快照的请求总数"),
		latency:          newGaugeVec("latency_milliseconds", "最近一次快照的平均延迟"),
		quotient:         newGaugeVec("quotient", "当前每实例请求数目标"),
		instances:        newGaugeVec("instances", "最近一次快照的实例数"),
		desiredInstances: newGaugeVec("desired_instances", "最近一次扩缩容的目标实例数"),
		scalingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scaling_total",
			Help:      "扩缩容请求次数",
		}, append(append([]string{}, appLabels...), "reason", "status")),
	}
	p.registry.MustRegister(p.cpu, p.ram, p.requests, p.latency, p.quotient, p.instances,
		p.desiredInstances, p.scalingTotal)
	return p
}

func (p *PrometheusPublisher) PublishApplicationMetric(metric *core.ApplicationMetric) {
	labels := prometheus.Labels{"app": metric.AppId, "resource": metric.ResourceId}
	p.cpu.With(labels).Set(float64(metric.Cpu))
	p.ram.With(labels).Set(float64(metric.Ram))
	p.requests.With(labels).Set(float64(metric.Requests))
	p.latency.With(labels).Set(float64(metric.Latency))
	p.quotient.With(labels).Set(float64(metric.Quotient))
	p.instances.With(labels).Set(float64(metric.InstanceCount))
}

func (p *PrometheusPublisher) PublishScalingLog(log *core.ScalingLog) {
	p.desiredInstances.WithLabelValues(log.AppId, log.ResourceId).Set(float64(log.NewInstances))
	p.scalingTotal.WithLabelValues(log.AppId, log.ResourceId, log.Reason.String(), strconv.Itoa(log.StatusCode)).Inc()
}

// Forget 应用解绑后删除其仪表盘指标，扩缩容计数保留
func (p *PrometheusPublisher) Forget(appId, resourceId string) {
	labels := prometheus.Labels{"app": appId, "resource": resourceId}
	for _, vec := range []*prometheus.GaugeVec{p.cpu, p.ram, p.requests, p.latency, p.quotient, p.instances,
		p.desiredInstances} {
		vec.Delete(labels)
	}
}

func (p *PrometheusPublisher) Registry() *prometheus.Registry {
	return p.registry
}

func (p *PrometheusPublisher) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
