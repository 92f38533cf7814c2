package scaling

import (
	"context"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

const DefaultTickInterval = 30 * time.Second

// ApplicationSource 提供当前所有应用的快照
type ApplicationSource interface {
	Applications() []*app.Application
}

// Executor 调用外部平台修改实例数，返回平台响应的状态码
type Executor interface {
	Scale(ctx context.Context, binding *core.Binding, instances int) (int, error)
}

// Publisher 发布聚合快照与扩缩容记录
type Publisher interface {
	PublishApplicationMetric(metric *core.ApplicationMetric)
	PublishScalingLog(log *core.ScalingLog)
}

// BlueprintStore 保存应用蓝图
type BlueprintStore interface {
	SaveBlueprint(bp *core.Blueprint) error
}

type ScalerConfig struct {
	Source            ApplicationSource
	Executor          Executor
	Publisher         Publisher
	Store             BlueprintStore
	StaticScalingSize int
	Now               func() time.Time
}

// Scaler 周期性地逐个检查应用并执行扩缩容
type Scaler struct {
	source    ApplicationSource
	executor  Executor
	publisher Publisher
	store     BlueprintStore
	checker   *Checker
	signal    *TickSignal
	now       func() time.Time
	logger    *logrus.Entry
}

func NewScaler(config *ScalerConfig) *Scaler {
	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &Scaler{
		source:    config.Source,
		executor:  config.Executor,
		publisher: config.Publisher,
		store:     config.Store,
		checker:   NewChecker(config.StaticScalingSize),
		signal:    NewTickSignal(),
		now:       now,
		logger:    logrus.WithField("component", "scaler"),
	}
}

func Millis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// Tick 追加一次检查
func (s *Scaler) Tick() {
	s.signal.Release()
}

// RunTimer 每隔interval追加一次检查，直到ctx结束
func (s *Scaler) RunTimer(ctx context.Context, interval time.Duration) error {
	s.logger.Printf("计时线程启动，周期为%s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-ctx.Done():
			s.logger.Println("计时线程结束")
			return nil
		}
	}
}

// Run 每收到一次信号，对所有应用执行一轮检查，直到ctx结束
func (s *Scaler) Run(ctx context.Context) error {
	s.logger.Println("扩缩容线程启动")
	for {
		if err := s.signal.Acquire(ctx); err != nil {
			s.logger.Println("扩缩容线程结束")
			return nil
		}
		s.ScanOnce(ctx)
	}
}

// ScanOnce 顺序检查每个应用，同一时刻只持有一个应用的锁
func (s *Scaler) ScanOnce(ctx context.Context) {
	for _, a := range s.source.Applications() {
		if err := a.Acquire(ctx); err != nil {
			s.logger.Debugf("等待应用%s的锁时被中断，跳过本轮", a)
			continue
		}
		if !a.Detached() {
			s.checkApplication(ctx, a)
		}
		a.Release()
	}
}

func (s *Scaler) checkApplication(ctx context.Context, a *app.Application) {
	now := Millis(s.now())

	if !a.ScalingEnabled {
		a.ResetRawBuffers()
		return
	}

	ready := a.TimeToCheck()
	if a.InCooldown(now) {
		s.logger.Debugf("应用%s处于冷却期，丢弃原始数据", a)
		a.ResetRawBuffers()
		a.ResetHistory()
		return
	}

	if metric := Aggregate(a, now); metric != nil && s.publisher != nil {
		s.publisher.PublishApplicationMetric(metric)
	}

	if ready {
		s.checkScaling(ctx, a, now)
	}
}

func (s *Scaler) checkScaling(ctx context.Context, a *app.Application, now int64) {
	act := s.checker.Decide(a, now)

	if act.Executable() {
		s.execute(ctx, act, now)
	} else {
		if act == nil {
			s.logger.Debugf("应用%s本轮没有得到扩缩容动作", a)
		} else {
			s.logger.Infof("应用%s不需要扩缩容：%s", a, act.Description)
		}
		if act != nil && !act.NeedToScale && a.LearningEnabled() {
			a.Requests.Learn(a.CurrentInstanceCount(), a.Components()...)
		}
	}

	a.ResetHistory()
	if s.store != nil {
		if err := s.store.SaveBlueprint(a.Blueprint()); err != nil {
			s.logger.Errorf("保存应用%s的蓝图失败：%v", a, err)
		}
	}
}

func (s *Scaler) execute(ctx context.Context, act *Action, now int64) {
	a := act.App
	a.LastScalingTime = now
	s.logger.Infof("应用%s扩缩容：%s", a, act)

	scalingLog := act.ScalingLog(now, 0)
	status, err := s.executor.Scale(ctx, a.Binding(), act.NewInstances)
	if err != nil {
		s.logger.Errorf("调用扩缩容接口失败，应用为%s：%v", a, err)
		return
	}
	if status >= http.StatusBadRequest {
		s.logger.Errorf("扩缩容接口返回错误状态码%d，应用为%s", status, a)
	}

	if s.publisher != nil {
		scalingLog.StatusCode = status
		s.publisher.PublishScalingLog(scalingLog)
	}
}
