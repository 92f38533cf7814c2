package server

import (
	"context"
	"fmt"
	"github.com/packagewjx/app-autoscaler/internal/scaling"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/metricsclient"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	metrics "k8s.io/metrics/pkg/apis/metrics/v1beta1"
	"sort"
	"time"
)

// ResourceIdLabel 带有该标签的Pod属于标签值对应的资源
const ResourceIdLabel = "app-autoscaler/resource-id"

// 定期从metrics server获取Pod监控数据并作为容器数据接入的goroutine主函数
func (s *serverImpl) scrapper(ctx context.Context) error {
	s.logger.Printf("监控数据获取线程启动，周期为%s", s.config.ScrapeInterval)
	ticker := time.NewTicker(s.config.ScrapeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			containerMetrics, err := scrapeContainerMetrics(ctx, s.metricsClient, s.config.ScrapeNamespace)
			if err != nil {
				s.logger.Errorf("获取监控数据失败：%v", err)
				continue
			}
			s.logger.Debugf("获取了%d条容器数据", len(containerMetrics))
			for _, m := range containerMetrics {
				if err = s.AddContainerMetric(ctx, m); err != nil {
					s.logger.Debugf("接入容器数据被中断：%v", err)
				}
			}
		case <-ctx.Done():
			s.logger.Println("监控数据获取线程结束")
			return nil
		}
	}
}

func scrapeContainerMetrics(ctx context.Context, client metricsclient.Client, namespace string) ([]*core.ContainerMetric, error) {
	podList, err := client.QueryPods(ctx, namespace, ResourceIdLabel)
	if err != nil {
		return nil, errors.Wrap(err, "获取PodList出错")
	}
	podMetricsList, err := client.QueryPodMetrics(ctx, namespace, ResourceIdLabel)
	if err != nil {
		return nil, errors.Wrap(err, "获取PodMetricsList出错")
	}
	return containerMetricsFrom(podList, podMetricsList), nil
}

func podKey(namespace, name string) string {
	return namespace + "/" + name
}

// containerMetricsFrom 每个Pod生成一条容器数据。实例序号为Pod在同一资源内按名称的排名，
// CPU为使用量占limit（没有limit时为request）的百分比，两者都没有时为-1，内存为使用量字节数
func containerMetricsFrom(podList *corev1.PodList, podMetricsList *metrics.PodMetricsList) []*core.ContainerMetric {
	pods := make(map[string]*corev1.Pod)
	keys := make(map[string][]string)
	for i := range podList.Items {
		pod := &podList.Items[i]
		resourceId, ok := pod.Labels[ResourceIdLabel]
		if !ok || resourceId == "" {
			continue
		}
		key := podKey(pod.Namespace, pod.Name)
		pods[key] = pod
		keys[resourceId] = append(keys[resourceId], key)
	}

	index := make(map[string]int)
	for _, podKeys := range keys {
		sort.Strings(podKeys)
		for i, key := range podKeys {
			index[key] = i
		}
	}

	result := make([]*core.ContainerMetric, 0, len(podMetricsList.Items))
	for _, podMetrics := range podMetricsList.Items {
		key := podKey(podMetrics.Namespace, podMetrics.Name)
		pod, ok := pods[key]
		if !ok {
			continue
		}

		var cpuUsage, ramUsage int64
		for _, container := range podMetrics.Containers {
			cpuUsage += container.Usage.Cpu().MilliValue()
			ramUsage += container.Usage.Memory().Value()
		}

		var cpuLimit, cpuRequest int64
		for _, container := range pod.Spec.Containers {
			cpuLimit += container.Resources.Limits.Cpu().MilliValue()
			cpuRequest += container.Resources.Requests.Cpu().MilliValue()
		}
		if cpuLimit == 0 {
			cpuLimit = cpuRequest
		}
		cpu := int64(-1)
		if cpuLimit > 0 {
			cpu = cpuUsage * 100 / cpuLimit
		}

		result = append(result, &core.ContainerMetric{
			Timestamp:     scaling.Millis(podMetrics.Timestamp.Time),
			ResourceId:    pod.Labels[ResourceIdLabel],
			InstanceIndex: index[key],
			Cpu:           cpu,
			Ram:           ramUsage,
			Description:   fmt.Sprintf("pod %s", key),
		})
	}
	return result
}
