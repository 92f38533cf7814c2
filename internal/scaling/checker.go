package scaling

import (
	"fmt"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/sirupsen/logrus"
)

const DefaultStaticScalingSize = 1

const descNotAllowed = "Not allowed to scale, because it would break an instance count limit."

// Checker 根据应用当前状态计算扩缩容动作
type Checker struct {
	StaticScalingSize int
	logger            *logrus.Entry
}

func NewChecker(staticScalingSize int) *Checker {
	if staticScalingSize <= 0 {
		staticScalingSize = DefaultStaticScalingSize
	}
	return &Checker{
		StaticScalingSize: staticScalingSize,
		logger:            logrus.WithField("component", "checker"),
	}
}

// Decide 计算应用本周期的最终动作：各资源的动作按优先级合并，再依次经过实例数上下限修正与预测覆盖。
// 可能返回nil，表示本周期无法决策
func (c *Checker) Decide(a *app.Application, now int64) *Action {
	instances := a.CurrentInstanceCount()

	var act *Action
	for _, policy := range a.Components() {
		if !policy.Enabled {
			continue
		}
		act = HigherPriority(act, c.ForComponent(a, policy, instances, now))
	}

	if limitAct := c.ForLimits(a, instances); limitAct != nil {
		act = limitAct
	}

	if predictionAct := c.ForPrediction(a, instances, now); predictionAct != nil {
		act = predictionAct
	}

	return act
}

// ForComponent 计算某一项资源的扩缩容动作。实例数未知或阈值策略非法时返回nil
func (c *Checker) ForComponent(a *app.Application, policy *app.ComponentPolicy, instances int, now int64) *Action {
	if instances == app.NoMetricInstanceCount {
		c.logger.Warnf("应用%s没有监控数据，无法得知实例数", a)
		return nil
	}
	value := policy.Value()
	if value == app.InvalidValue {
		c.logger.Warnf("应用%s的%s阈值策略%q非法", a, policy.Component, policy.Policy)
		return nil
	}

	var act *Action
	if a.Requests.Enabled && a.Requests.Quotient() > 0 && !a.InLearningTime(now) {
		act = c.withQuotient(a, policy, value, instances)
	} else {
		act = c.withoutQuotient(a, policy, value, instances)
	}
	return checkForLimits(act)
}

func (c *Checker) withQuotient(a *app.Application, policy *app.ComponentPolicy, value int64, instances int) *Action {
	filler := policy.Component.Description()
	act := basedOnQuotient(a, policy.Component.Reason(), instances)

	switch {
	case value > policy.UpperLimit:
		act.Description = fmt.Sprintf("Upscaled - %s over %d - with quotient", filler, policy.UpperLimit)
		if act.NewInstances <= act.OldInstances {
			act = c.withoutQuotient(a, policy, value, instances)
			act.Description = fmt.Sprintf("Upscaled - %s over %d - despite quotient", filler, policy.UpperLimit)
		}
	case value < policy.LowerLimit:
		act.Description = fmt.Sprintf("Downscaled - %s below %d - with quotient", filler, policy.LowerLimit)
		if act.NewInstances >= act.OldInstances {
			act = c.withoutQuotient(a, policy, value, instances)
			act.Description = fmt.Sprintf("Downscaled - %s below %d - despite quotient", filler, policy.LowerLimit)
		}
	default:
		act = noScaling(a, policy, instances)
	}
	return act
}

// basedOnQuotient 目标实例数为ceil(requests / quotient)，并限制在上下限之内
func basedOnQuotient(a *app.Application, reason core.Reason, instances int) *Action {
	quotient := a.Requests.Quotient()
	requests := a.Requests.Value()
	newInstances := requests / quotient
	if newInstances < 0 {
		newInstances = -newInstances
	}
	if requests > newInstances*quotient {
		newInstances++
	}

	target := int(newInstances)
	if target < a.MinInstances {
		target = a.MinInstances
	}
	if target > a.MaxInstances {
		target = a.MaxInstances
	}

	return &Action{
		App:          a,
		OldInstances: instances,
		NewInstances: target,
		NeedToScale:  target != instances,
		Reason:       reason,
	}
}

func (c *Checker) withoutQuotient(a *app.Application, policy *app.ComponentPolicy, value int64, instances int) *Action {
	filler := policy.Component.Description()
	switch {
	case value > policy.UpperLimit:
		return &Action{
			App:          a,
			OldInstances: instances,
			NewInstances: instances + c.StaticScalingSize,
			NeedToScale:  true,
			Reason:       policy.Component.Reason(),
			Description:  fmt.Sprintf("Upscaled - %s over %d - without quotient", filler, policy.UpperLimit),
		}
	case value < policy.LowerLimit:
		return &Action{
			App:          a,
			OldInstances: instances,
			NewInstances: instances - c.StaticScalingSize,
			NeedToScale:  true,
			Reason:       policy.Component.Reason(),
			Description:  fmt.Sprintf("Downscaled - %s below %d - without quotient", filler, policy.LowerLimit),
		}
	default:
		return noScaling(a, policy, instances)
	}
}

func noScaling(a *app.Application, policy *app.ComponentPolicy, instances int) *Action {
	return &Action{
		App:          a,
		OldInstances: instances,
		NewInstances: instances,
		NeedToScale:  false,
		Reason:       policy.Component.Reason(),
		Description:  fmt.Sprintf("No need for scaling, because %s is in an allowed state.", policy.Component.Description()),
	}
}

// checkForLimits 将目标实例数限制在上下限之内。限制后与当前实例数相同的，改为不扩缩容，依据不变
func checkForLimits(act *Action) *Action {
	if act == nil {
		return nil
	}
	a := act.App
	if act.NewInstances > a.MaxInstances {
		act.NewInstances = a.MaxInstances
		act.NeedToScale = true
	}
	if act.NewInstances < a.MinInstances {
		act.NewInstances = a.MinInstances
		act.NeedToScale = true
	}
	if act.NewInstances == act.OldInstances && act.NeedToScale {
		return &Action{
			App:          a,
			OldInstances: act.OldInstances,
			NewInstances: act.OldInstances,
			NeedToScale:  false,
			Reason:       act.Reason,
			Description:  descNotAllowed,
		}
	}
	return act
}

// HigherPriority 返回两个动作中优先级更高的一个，older为此前合并的结果。
// 扩容优先于其他动作，两个扩容取目标更大的；不扩缩容否决此前的缩容，
// 此前不扩缩容时后来的缩容生效；两个缩容取目标更大的
func HigherPriority(older, newer *Action) *Action {
	if !newer.IsValid() {
		return older
	}
	if !older.IsValid() {
		return newer
	}

	switch {
	case older.IsUpscale():
		if newer.IsUpscale() && newer.NewInstances > older.NewInstances {
			return newer
		}
		return older
	case older.IsDownscale():
		if newer.IsDownscale() && newer.NewInstances <= older.NewInstances {
			return older
		}
		return newer
	default:
		if newer.IsUpscale() || newer.IsDownscale() {
			return newer
		}
		return older
	}
}

// Fuse 从左到右依次合并
func Fuse(actions ...*Action) *Action {
	var result *Action
	for _, act := range actions {
		result = HigherPriority(result, act)
	}
	return result
}

// ForLimits 当前实例数已经超出上下限时，返回修正到最近边界的动作，否则返回nil
func (c *Checker) ForLimits(a *app.Application, instances int) *Action {
	if instances == app.NoMetricInstanceCount {
		return nil
	}

	switch {
	case instances > a.MaxInstances:
		return &Action{
			App:          a,
			OldInstances: instances,
			NewInstances: a.MaxInstances,
			NeedToScale:  true,
			Reason:       core.ReasonLimit,
			Description:  fmt.Sprintf("Downscaled - instance count over maximum of %d", a.MaxInstances),
		}
	case instances < a.MinInstances:
		return &Action{
			App:          a,
			OldInstances: instances,
			NewInstances: a.MinInstances,
			NeedToScale:  true,
			Reason:       core.ReasonLimit,
			Description:  fmt.Sprintf("Upscaled - instance count below minimum of %d", a.MinInstances),
		}
	}
	return nil
}

// ForPrediction 预测区间包含now时返回按预测扩缩容的动作。区间已经结束的预测会被清除
func (c *Checker) ForPrediction(a *app.Application, instances int, now int64) *Action {
	prediction := a.Prediction()
	if prediction == nil || prediction.IntervalStart > now {
		return nil
	}
	if now >= prediction.IntervalEnd {
		c.logger.Debugf("应用%s的预测已过期，predictor为%s", a, prediction.PredictorId)
		a.ClearPrediction()
		return nil
	}
	if instances == app.NoMetricInstanceCount {
		return nil
	}

	act := &Action{
		App:          a,
		OldInstances: instances,
		NewInstances: prediction.InstanceCount,
		NeedToScale:  true,
		Reason:       core.ReasonPredictor,
	}
	switch {
	case instances == prediction.InstanceCount:
		act.NeedToScale = false
		act.Description = "No scaling - current instance count is the same as the predicted one."
	case instances > prediction.InstanceCount:
		act.Description = "Downscaled - instance count above prediction."
	default:
		act.Description = "Upscaled - instance count below prediction."
	}
	return checkForLimits(act)
}
