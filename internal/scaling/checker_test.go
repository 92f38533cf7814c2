package scaling

import (
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestDecideCpuOverUpperLimit(t *testing.T) {
	a := newTestApp(t, nil)
	addSnapshot(a, 95, 100, 0, 0, 4)

	act := NewChecker(2).Decide(a, testNow)
	if !assert.NotNil(t, act) {
		assert.FailNow(t, "没有得到动作")
	}
	assert.Equal(t, core.ReasonCpu, act.Reason)
	assert.True(t, act.NeedToScale)
	assert.Equal(t, 4, act.OldInstances)
	assert.Equal(t, 6, act.NewInstances)
	assert.True(t, act.Executable())
}

func TestDecideQuotientWithinLimits(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.QuotientScalingEnabled = true
		bp.Quotient = 100
		bp.RequestThresholdPolicy = core.PolicyMax
	})
	addSnapshot(a, 70, 100, 850, 0, 10)

	act := NewChecker(1).Decide(a, testNow)
	if !assert.NotNil(t, act) {
		assert.FailNow(t, "没有得到动作")
	}
	assert.Equal(t, core.ReasonCpu, act.Reason)
	assert.False(t, act.NeedToScale)
	assert.Equal(t, 10, act.NewInstances)
	assert.False(t, act.Executable())
}

func TestDecideOverMaxInstances(t *testing.T) {
	a := newTestApp(t, nil)
	addSnapshot(a, 70, 100, 0, 0, 35)

	act := NewChecker(1).Decide(a, testNow)
	if !assert.NotNil(t, act) {
		assert.FailNow(t, "没有得到动作")
	}
	assert.Equal(t, core.ReasonLimit, act.Reason)
	assert.Equal(t, 30, act.NewInstances)
	assert.True(t, act.NeedToScale)
	assert.True(t, act.Executable())
}

func TestDecideBelowMinInstances(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.MinInstances = 3
	})
	addSnapshot(a, 30, 100, 0, 0, 1)

	act := NewChecker(1).Decide(a, testNow)
	if !assert.NotNil(t, act) {
		assert.FailNow(t, "没有得到动作")
	}
	assert.Equal(t, core.ReasonLimit, act.Reason)
	assert.Equal(t, 3, act.NewInstances)
}

func TestDecidePredictionOverride(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.PredictionScalingEnabled = true
	})
	addSnapshot(a, 95, 100, 0, 0, 7)
	a.SetPrediction(&core.Prediction{
		AppId:         "app-1",
		PredictorId:   "predictor-1",
		InstanceCount: 5,
		IntervalStart: testNow - 1000,
		IntervalEnd:   testNow + 1000,
	})

	c := NewChecker(1)
	fused := c.ForComponent(a, a.Cpu, 7, testNow)
	assert.Equal(t, 8, fused.NewInstances)

	act := c.Decide(a, testNow)
	if !assert.NotNil(t, act) {
		assert.FailNow(t, "没有得到动作")
	}
	assert.Equal(t, core.ReasonPredictor, act.Reason)
	assert.Equal(t, 5, act.NewInstances)
	assert.True(t, act.NeedToScale)
}

func TestDecidePredictionWithDefaultToggles(t *testing.T) {
	a := newTestApp(t, nil)
	assert.False(t, a.PredictionScalingEnabled)
	addSnapshot(a, 95, 100, 0, 0, 7)
	a.SetPrediction(&core.Prediction{
		InstanceCount: 5,
		IntervalStart: testNow - 1000,
		IntervalEnd:   testNow + 1000,
	})

	c := NewChecker(1)
	act := c.Decide(a, testNow)
	assert.Equal(t, core.ReasonPredictor, act.Reason)
	assert.Equal(t, 5, act.NewInstances)
	assert.True(t, act.NeedToScale)

	// 预测区间结束后的下一次决策清除预测，按CPU扩容
	a.SetPrediction(&core.Prediction{
		InstanceCount: 5,
		IntervalStart: testNow - 1000,
		IntervalEnd:   testNow - 1,
	})
	act = c.Decide(a, testNow)
	assert.Nil(t, a.Prediction())
	assert.Equal(t, core.ReasonCpu, act.Reason)
	assert.Equal(t, 8, act.NewInstances)
}

func TestForPrediction(t *testing.T) {
	a := newTestApp(t, nil)
	c := NewChecker(1)

	assert.Nil(t, c.ForPrediction(a, 5, testNow))

	a.SetPrediction(&core.Prediction{InstanceCount: 5, IntervalStart: testNow + 1, IntervalEnd: testNow + 1000})
	assert.Nil(t, c.ForPrediction(a, 5, testNow), "尚未开始的预测")
	assert.NotNil(t, a.Prediction())

	a.SetPrediction(&core.Prediction{InstanceCount: 5, IntervalStart: testNow - 1000, IntervalEnd: testNow + 1000})
	act := c.ForPrediction(a, 5, testNow)
	assert.False(t, act.NeedToScale)
	assert.Equal(t, core.ReasonPredictor, act.Reason)

	act = c.ForPrediction(a, 8, testNow)
	assert.True(t, act.IsDownscale())

	act = c.ForPrediction(a, app.NoMetricInstanceCount, testNow)
	assert.Nil(t, act)
}

func TestForPredictionExpired(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.PredictionScalingEnabled = true
	})
	addSnapshot(a, 70, 100, 0, 0, 7)
	a.SetPrediction(&core.Prediction{InstanceCount: 5, IntervalStart: testNow - 1000, IntervalEnd: testNow})

	act := NewChecker(1).Decide(a, testNow)
	assert.Nil(t, a.Prediction())
	if assert.NotNil(t, act) {
		assert.NotEqual(t, core.ReasonPredictor, act.Reason)
	}
}

func TestForComponentDespiteQuotient(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.QuotientScalingEnabled = true
		bp.Quotient = 100
		bp.RequestThresholdPolicy = core.PolicyMax
	})
	addSnapshot(a, 95, 100, 500, 0, 10)

	act := NewChecker(1).ForComponent(a, a.Cpu, 10, testNow)
	assert.Equal(t, 11, act.NewInstances)
	assert.Contains(t, act.Description, "despite quotient")
}

func TestForComponentWithQuotient(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.QuotientScalingEnabled = true
		bp.Quotient = 100
		bp.RequestThresholdPolicy = core.PolicyMax
	})
	addSnapshot(a, 95, 100, 1450, 0, 10)

	act := NewChecker(1).ForComponent(a, a.Cpu, 10, testNow)
	assert.Equal(t, 15, act.NewInstances)
	assert.Contains(t, act.Description, "with quotient")

	a.ResetHistory()
	addSnapshot(a, 10, 100, 420, 0, 10)
	act = NewChecker(1).ForComponent(a, a.Cpu, 10, testNow)
	assert.Equal(t, 5, act.NewInstances)
	assert.True(t, act.IsDownscale())
}

func TestForComponentQuotientDisabledWhileLearning(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.QuotientScalingEnabled = true
		bp.Quotient = 100
		bp.RequestThresholdPolicy = core.PolicyMax
		bp.LearningStartTime = testNow - 1000
	})
	addSnapshot(a, 95, 100, 1450, 0, 10)

	act := NewChecker(1).ForComponent(a, a.Cpu, 10, testNow)
	assert.Equal(t, 11, act.NewInstances)
	assert.Contains(t, act.Description, "without quotient")
}

func TestForComponentNotAllowed(t *testing.T) {
	a := newTestApp(t, nil)
	addSnapshot(a, 95, 100, 0, 0, 30)

	act := NewChecker(1).ForComponent(a, a.Cpu, 30, testNow)
	assert.False(t, act.NeedToScale)
	assert.Equal(t, 30, act.NewInstances)
	assert.Equal(t, core.ReasonCpu, act.Reason)
	assert.Equal(t, descNotAllowed, act.Description)
}

func TestForComponentCannotDecide(t *testing.T) {
	a := newTestApp(t, nil)
	addSnapshot(a, 95, 100, 0, 0, 4)
	c := NewChecker(1)

	assert.Nil(t, c.ForComponent(a, a.Cpu, app.NoMetricInstanceCount, testNow))

	a.Cpu.Policy = "median"
	assert.Nil(t, c.ForComponent(a, a.Cpu, 4, testNow))
	assert.Nil(t, c.Decide(a, testNow))
}

func newAction(a *app.Application, oldInstances, newInstances int, reason core.Reason) *Action {
	return &Action{
		App:          a,
		OldInstances: oldInstances,
		NewInstances: newInstances,
		NeedToScale:  oldInstances != newInstances,
		Reason:       reason,
	}
}

func TestHigherPriority(t *testing.T) {
	a := newTestApp(t, nil)
	up := newAction(a, 10, 12, core.ReasonCpu)
	bigUp := newAction(a, 10, 14, core.ReasonRam)
	down := newAction(a, 10, 8, core.ReasonLatency)
	smallDown := newAction(a, 10, 9, core.ReasonCpu)
	none := newAction(a, 10, 10, core.ReasonRam)
	invalid := newAction(a, 10, 40, core.ReasonCpu)

	assert.Nil(t, HigherPriority(nil, nil))
	assert.Same(t, up, HigherPriority(nil, up))
	assert.Same(t, up, HigherPriority(up, nil))
	assert.Same(t, down, HigherPriority(down, invalid))
	assert.Same(t, down, HigherPriority(invalid, down))

	assert.Same(t, up, HigherPriority(down, up))
	assert.Same(t, up, HigherPriority(up, down))
	assert.Same(t, up, HigherPriority(none, up))
	assert.Same(t, up, HigherPriority(up, none))
	assert.Same(t, bigUp, HigherPriority(up, bigUp))
	assert.Same(t, bigUp, HigherPriority(bigUp, up))

	sameUp := newAction(a, 10, 12, core.ReasonLatency)
	assert.Same(t, up, HigherPriority(up, sameUp))

	assert.Same(t, none, HigherPriority(down, none))
	assert.Same(t, down, HigherPriority(none, down))
	assert.Same(t, smallDown, HigherPriority(down, smallDown))
	assert.Same(t, smallDown, HigherPriority(smallDown, down))
}

func TestFuseOrderIndependent(t *testing.T) {
	a := newTestApp(t, nil)
	permutations := func(x, y, z *Action) [][]*Action {
		return [][]*Action{{x, y, z}, {x, z, y}, {y, x, z}, {y, z, x}, {z, x, y}, {z, y, x}}
	}

	ups := permutations(newAction(a, 10, 11, core.ReasonCpu), newAction(a, 10, 15, core.ReasonRam),
		newAction(a, 10, 13, core.ReasonLatency))
	for _, actions := range ups {
		result := Fuse(actions...)
		assert.Equal(t, 15, result.NewInstances)
		assert.Equal(t, core.ReasonRam, result.Reason)
	}

	downs := permutations(newAction(a, 10, 5, core.ReasonCpu), newAction(a, 10, 9, core.ReasonRam),
		newAction(a, 10, 7, core.ReasonLatency))
	for _, actions := range downs {
		result := Fuse(actions...)
		assert.Equal(t, 9, result.NewInstances)
		assert.Equal(t, core.ReasonRam, result.Reason)
	}

	mixed := permutations(newAction(a, 10, 5, core.ReasonCpu), newAction(a, 10, 12, core.ReasonRam),
		newAction(a, 10, 10, core.ReasonLatency))
	for _, actions := range mixed {
		result := Fuse(actions...)
		assert.Equal(t, 12, result.NewInstances)
	}
}

func TestForLimitsAlwaysBoundary(t *testing.T) {
	a := newTestApp(t, func(bp *core.Blueprint) {
		bp.MinInstances = 2
		bp.MaxInstances = 20
	})
	c := NewChecker(1)

	for _, instances := range []int{0, 1, 21, 35, 100} {
		act := c.ForLimits(a, instances)
		if !assert.NotNil(t, act, "instances=%d", instances) {
			continue
		}
		assert.Equal(t, core.ReasonLimit, act.Reason)
		assert.Contains(t, []int{2, 20}, act.NewInstances)
		assert.True(t, act.Executable())
	}
	for _, instances := range []int{2, 10, 20, app.NoMetricInstanceCount} {
		assert.Nil(t, c.ForLimits(a, instances))
	}
}

func TestActionScalingLog(t *testing.T) {
	a := newTestApp(t, nil)
	addSnapshot(a, 95, 100, 0, 0, 4)
	act := newAction(a, 4, 5, core.ReasonCpu)
	act.Description = "up"

	log := act.ScalingLog(testNow, 200)
	assert.Equal(t, "app-1", log.AppId)
	assert.Equal(t, "resource-1", log.ResourceId)
	assert.Equal(t, int64(95), log.Cpu)
	assert.Equal(t, int64(90), log.CpuUpperLimit)
	assert.Equal(t, 4, log.OldInstances)
	assert.Equal(t, 5, log.NewInstances)
	assert.Equal(t, 200, log.StatusCode)
	assert.Equal(t, "up", log.Description)
}
