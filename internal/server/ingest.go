package server

import (
	"context"
	"github.com/packagewjx/app-autoscaler/pkg/core"
)

func (s *serverImpl) AddContainerMetric(ctx context.Context, metric *core.ContainerMetric) error {
	a := s.apps.getByResourceId(metric.ResourceId)
	if a == nil {
		s.logger.Debugf("没有资源ID为%s的应用，丢弃容器数据", metric.ResourceId)
		return nil
	}
	if err := a.Acquire(ctx); err != nil {
		s.logger.Debugf("等待应用%s的锁时被中断，丢弃容器数据：%v", a, err)
		return nil
	}
	defer a.Release()

	if !a.AddContainerMetric(metric, s.millis()) {
		s.logger.Debugf("应用%s的容器数据已过期，时间戳为%d", a, metric.Timestamp)
	}
	return nil
}

func (s *serverImpl) AddHttpMetric(ctx context.Context, metric *core.HttpMetric) error {
	a := s.apps.getByResourceId(metric.ResourceId)
	if a == nil {
		s.logger.Debugf("没有资源ID为%s的应用，丢弃请求数据", metric.ResourceId)
		return nil
	}
	if err := a.Acquire(ctx); err != nil {
		s.logger.Debugf("等待应用%s的锁时被中断，丢弃请求数据：%v", a, err)
		return nil
	}
	defer a.Release()

	if !a.AddHttpMetric(metric, s.millis()) {
		s.logger.Debugf("应用%s的请求数据已过期，时间戳为%d", a, metric.Timestamp)
	}
	return nil
}

// AddPrediction 非法的预测被丢弃，合法的预测替换该应用之前的预测
func (s *serverImpl) AddPrediction(ctx context.Context, prediction *core.Prediction) error {
	if err := prediction.Validate(); err != nil {
		s.logger.Warnf("丢弃非法的预测：%v", err)
		return nil
	}
	a := s.apps.get(prediction.AppId)
	if a == nil {
		s.logger.Debugf("没有ID为%s的应用，丢弃预测", prediction.AppId)
		return nil
	}
	if err := a.Acquire(ctx); err != nil {
		s.logger.Debugf("等待应用%s的锁时被中断，丢弃预测：%v", a, err)
		return nil
	}
	defer a.Release()

	a.SetPrediction(prediction)
	s.logger.Debugf("应用%s收到来自%s的预测，实例数为%d", a, prediction.PredictorId, prediction.InstanceCount)
	return nil
}
