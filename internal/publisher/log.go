package publisher

import (
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/sirupsen/logrus"
)

type logPublisher struct {
	logger *logrus.Entry
}

// NewLogPublisher 以结构化日志的形式输出快照与扩缩容记录
func NewLogPublisher(logger *logrus.Logger) Publisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &logPublisher{logger: logger.WithField("component", "publisher")}
}

func (l *logPublisher) PublishApplicationMetric(metric *core.ApplicationMetric) {
	l.logger.WithFields(logrus.Fields{
		"app":       metric.AppId,
		"resource":  metric.ResourceId,
		"cpu":       metric.Cpu,
		"ram":       metric.Ram,
		"requests":  metric.Requests,
		"latency":   metric.Latency,
		"quotient":  metric.Quotient,
		"instances": metric.InstanceCount,
	}).Debug("应用快照")
}

func (l *logPublisher) PublishScalingLog(log *core.ScalingLog) {
	l.logger.WithFields(logrus.Fields{
		"app":      log.AppId,
		"resource": log.ResourceId,
		"reason":   log.Reason.String(),
		"old":      log.OldInstances,
		"new":      log.NewInstances,
		"status":   log.StatusCode,
	}).Info(log.Description)
}
