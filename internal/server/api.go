package server

import (
	"context"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
)

func (s *serverImpl) Bind(ctx context.Context, binding *core.Binding) (*core.Blueprint, bool, error) {
	if err := binding.Validate(); err != nil {
		return nil, false, err
	}
	s.logger.Printf("接收到绑定请求，绑定ID为%s，资源ID为%s", binding.Id, binding.ResourceId)

	if existing := s.apps.get(binding.Id); existing != nil {
		return s.sameBinding(ctx, existing, binding)
	}

	a, err := app.NewFromBinding(binding, s.config.Defaults, s.config.settings(), s.millis())
	if err != nil {
		return nil, false, err
	}
	if s.config.UpdateAppNameAtBinding {
		s.updateResourceName(ctx, a)
	}

	// 保存完成前一直持有新应用的锁
	if err = a.Acquire(ctx); err != nil {
		return nil, false, err
	}
	if !s.apps.add(a) {
		a.Release()
		// 并发绑定了同一个ID
		existing := s.apps.get(binding.Id)
		if existing == nil {
			return nil, false, server.ErrBindingConflict
		}
		return s.sameBinding(ctx, existing, binding)
	}

	bp := a.Blueprint()
	if err = s.dao.SaveBlueprint(bp); err != nil {
		s.apps.remove(a.Id())
		a.Detach()
		a.Release()
		return nil, false, err
	}
	a.Release()

	s.logger.Infof("绑定了应用%s", a)
	return bp, true, nil
}

func (s *serverImpl) sameBinding(ctx context.Context, existing *app.Application, binding *core.Binding) (*core.Blueprint, bool, error) {
	if err := existing.Acquire(ctx); err != nil {
		return nil, false, err
	}
	defer existing.Release()

	if !existing.Binding().SameBinding(binding) {
		return nil, false, server.ErrBindingConflict
	}
	return existing.Blueprint(), false, nil
}

func (s *serverImpl) Unbind(ctx context.Context, bindingId string) error {
	a := s.apps.get(bindingId)
	if a == nil {
		return server.ErrBindingNotFound
	}
	if err := a.Acquire(ctx); err != nil {
		return err
	}
	defer a.Release()

	if s.apps.remove(bindingId) != a {
		return server.ErrBindingNotFound
	}
	a.Detach()
	s.prometheus.Forget(a.Id(), a.ResourceId())
	if err := s.dao.DeleteBlueprint(bindingId); err != nil {
		return err
	}

	s.logger.Infof("解绑了应用%s", a)
	return nil
}

func (s *serverImpl) BindingsOfService(ctx context.Context, serviceId string) ([]*core.Binding, error) {
	result := make([]*core.Binding, 0)
	for _, a := range s.apps.Applications() {
		if err := a.Acquire(ctx); err != nil {
			return nil, err
		}
		binding := a.Binding()
		a.Release()
		if binding.ServiceId == serviceId {
			result = append(result, binding)
		}
	}
	return result, nil
}

// withApplication 持有应用锁执行f，f返回nil时保存并返回最新的蓝图
func (s *serverImpl) withApplication(ctx context.Context, bindingId string, persist bool,
	f func(a *app.Application) error) (*core.Blueprint, error) {
	a := s.apps.get(bindingId)
	if a == nil {
		return nil, server.ErrAppNotFound
	}
	if err := a.Acquire(ctx); err != nil {
		return nil, err
	}
	defer a.Release()
	if a.Detached() {
		return nil, server.ErrAppNotFound
	}

	if err := f(a); err != nil {
		return nil, err
	}

	bp := a.Blueprint()
	if persist {
		if err := s.dao.SaveBlueprint(bp); err != nil {
			return nil, errors.Wrap(err, "保存蓝图失败")
		}
	}
	return bp, nil
}

func (s *serverImpl) GetApplication(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return s.withApplication(ctx, bindingId, false, func(a *app.Application) error {
		return nil
	})
}

func (s *serverImpl) UpdateApplication(ctx context.Context, bindingId string, request *server.UpdateRequest) (*core.Blueprint, error) {
	return s.withApplication(ctx, bindingId, true, func(a *app.Application) error {
		if err := a.Update(request, s.millis()); err != nil {
			return err
		}
		s.logger.Infof("更新了应用%s的配置", a)
		return nil
	})
}

func (s *serverImpl) ResetQuotient(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return s.withApplication(ctx, bindingId, true, func(a *app.Application) error {
		a.Requests.Reset()
		s.logger.Infof("重置了应用%s的quotient", a)
		return nil
	})
}

func (s *serverImpl) ResetLearningStartTime(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return s.withApplication(ctx, bindingId, true, func(a *app.Application) error {
		a.ResetLearningStartTime(s.millis())
		s.logger.Infof("重置了应用%s的学习开始时间", a)
		return nil
	})
}

func (s *serverImpl) UpdateResourceName(ctx context.Context, bindingId string) (*core.Blueprint, error) {
	return s.withApplication(ctx, bindingId, true, func(a *app.Application) error {
		s.updateResourceName(ctx, a)
		return nil
	})
}

// updateResourceName 查询失败时保留原名称
func (s *serverImpl) updateResourceName(ctx context.Context, a *app.Application) {
	name, err := s.executor.ResourceName(ctx, a.Binding())
	if err != nil {
		s.logger.Warnf("查询应用%s的资源名称失败：%v", a, err)
		return
	}
	a.SetResourceName(name)
}

func (s *serverImpl) Trigger() {
	s.logger.Debugf("手动追加一次扩缩容检查")
	s.scaler.Tick()
}
