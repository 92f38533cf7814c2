package publisher

import "github.com/packagewjx/app-autoscaler/pkg/core"

// Publisher 发布聚合快照与扩缩容记录。发布是尽力而为的，不返回错误
type Publisher interface {
	PublishApplicationMetric(metric *core.ApplicationMetric)
	PublishScalingLog(log *core.ScalingLog)
}

type multiPublisher []Publisher

var _ Publisher = multiPublisher{}

// Multi 按顺序发布到所有publisher
func Multi(publishers ...Publisher) Publisher {
	return multiPublisher(publishers)
}

func (m multiPublisher) PublishApplicationMetric(metric *core.ApplicationMetric) {
	for _, p := range m {
		p.PublishApplicationMetric(metric)
	}
}

func (m multiPublisher) PublishScalingLog(log *core.ScalingLog) {
	for _, p := range m {
		p.PublishScalingLog(log)
	}
}
