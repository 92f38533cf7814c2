package server

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/internal/executor"
	"github.com/packagewjx/app-autoscaler/internal/publisher"
	"github.com/packagewjx/app-autoscaler/internal/scaling"
	"github.com/packagewjx/app-autoscaler/pkg/metricsclient"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	DefaultPort              = 2000
	DefaultTickInterval      = scaling.DefaultTickInterval
	DefaultMaxMetricAge      = time.Minute
	DefaultMaxMetricListSize = app.DefaultMaxMetricListSize
	DefaultScrapeInterval    = time.Minute
	DefaultMysqlUser         = "root"
	DefaultMysqlDatabase     = "autoscaler"
)

const minScrapeInterval = 15 * time.Second

type ServerConfig struct {
	Port                   uint16        // 本服务器监听端口
	TickInterval           time.Duration // 扩缩容检查的时钟周期
	MaxMetricAge           time.Duration // 早于该时长的原始数据会被丢弃
	MaxMetricListSize      int           // 每个应用保留的原始数据与快照的最大条数
	StaticScalingSize      int           // 不使用quotient时每次扩缩容的实例数
	UpdateAppNameAtBinding bool          // 绑定时向执行器查询资源名称

	MysqlHost     string
	MysqlUser     string
	MysqlPassword string
	MysqlDatabase string
	SqlitePath    string // 不为空时使用SQLite代替MySQL

	ExecutorKind          string
	ScalingEngineEndpoint string
	ScalingEngineSecret   string `json:"-"`
	Kubeconfig            string

	ScrapeEnabled        bool
	ScrapeInterval       time.Duration // 从metrics server获取数据的周期。至少为15s。
	ScrapeNamespace      string        // 为空时获取所有名称空间
	KubeApiServerBaseUrl string        // 不为空时通过该地址（如kubectl proxy）访问，否则使用Kubeconfig

	Defaults *app.Defaults
}

func (s ServerConfig) String() string {
	marshal, _ := json.Marshal(s)
	return string(marshal)
}

func (config *ServerConfig) Complete() error {
	if config.Port < 1024 {
		return fmt.Errorf("端口号应该在1024到65535之间，现在为%d", config.Port)
	}

	if config.TickInterval < time.Second {
		return fmt.Errorf("时钟周期不能短于1s，现在是%fs", config.TickInterval.Seconds())
	}

	if config.MaxMetricAge <= 0 {
		return fmt.Errorf("数据最大年龄必须为正，现在是%s", config.MaxMetricAge)
	}

	if config.MaxMetricListSize <= 0 {
		return fmt.Errorf("数据队列长度必须为正，现在是%d", config.MaxMetricListSize)
	}

	if config.StaticScalingSize <= 0 {
		config.StaticScalingSize = scaling.DefaultStaticScalingSize
	}

	if config.ScrapeEnabled && config.ScrapeInterval < minScrapeInterval {
		return fmt.Errorf("时间不能短于15s，现在是%fs", config.ScrapeInterval.Seconds())
	}

	if config.Defaults == nil {
		config.Defaults = app.DefaultDefaults()
	}
	if err := config.Defaults.Validate(); err != nil {
		return errors.Wrap(err, "默认配置非法")
	}

	if config.SqlitePath == "" {
		if config.MysqlHost == "" {
			config.MysqlHost = fmt.Sprintf("%s:%s",
				os.Getenv("MYSQL_SERVICE_HOST"), os.Getenv("MYSQL_SERVICE_PORT"))
		}
		if config.MysqlUser == "" {
			config.MysqlUser = DefaultMysqlUser
		}
		if config.MysqlDatabase == "" {
			config.MysqlDatabase = DefaultMysqlDatabase
		}
	}

	return nil
}

func (config *ServerConfig) settings() app.Settings {
	return app.Settings{
		MaxMetricAge:      config.MaxMetricAge.Milliseconds(),
		MaxMetricListSize: config.MaxMetricListSize,
	}
}

type Server interface {
	server.API
	Start() error
}

func NewServer(config *ServerConfig) (Server, error) {
	if err := config.Complete(); err != nil {
		return nil, err
	}

	var dao Dao
	var err error
	if config.SqlitePath != "" {
		dao, err = NewDaoWithDialector(sqlite.Open(config.SqlitePath))
	} else {
		dao, err = NewDao(MysqlDSN(config.MysqlUser, config.MysqlPassword, config.MysqlHost, config.MysqlDatabase))
	}
	if err != nil {
		return nil, err
	}

	exec, err := executor.NewExecutor(&executor.Config{
		Kind:       config.ExecutorKind,
		Endpoint:   config.ScalingEngineEndpoint,
		Secret:     config.ScalingEngineSecret,
		Kubeconfig: config.Kubeconfig,
	})
	if err != nil {
		return nil, err
	}

	var metricsClient metricsclient.Client
	if config.ScrapeEnabled {
		if config.KubeApiServerBaseUrl != "" {
			metricsClient = metricsclient.NewHttpMetricsClient(config.KubeApiServerBaseUrl)
		} else {
			restConfig, err := metricsclient.RestConfig(config.Kubeconfig)
			if err != nil {
				return nil, err
			}
			if metricsClient, err = metricsclient.NewClientsetMetricsClientForConfig(restConfig); err != nil {
				return nil, err
			}
		}
	}

	return newServer(config, dao, exec, metricsClient, time.Now)
}

func newServer(config *ServerConfig, dao Dao, exec executor.Executor, metricsClient metricsclient.Client,
	now func() time.Time) (*serverImpl, error) {
	prometheusPublisher := publisher.NewPrometheusPublisher()
	s := &serverImpl{
		config:        config,
		dao:           dao,
		apps:          newManager(),
		executor:      exec,
		prometheus:    prometheusPublisher,
		metricsClient: metricsClient,
		now:           now,
		logger:        logrus.WithField("component", "server"),
	}
	s.scaler = scaling.NewScaler(&scaling.ScalerConfig{
		Source:            s.apps,
		Executor:          exec,
		Publisher:         publisher.Multi(prometheusPublisher, publisher.NewLogPublisher(nil)),
		Store:             dao,
		StaticScalingSize: config.StaticScalingSize,
		Now:               now,
	})

	if err := s.loadApplications(); err != nil {
		return nil, err
	}
	return s, nil
}

type serverImpl struct {
	config        *ServerConfig
	dao           Dao
	apps          *manager
	executor      executor.Executor
	prometheus    *publisher.PrometheusPublisher
	scaler        *scaling.Scaler
	metricsClient metricsclient.Client
	now           func() time.Time
	logger        *logrus.Entry
}

var _ Server = &serverImpl{}

func (s *serverImpl) millis() int64 {
	return scaling.Millis(s.now())
}

// loadApplications 读取数据库中所有蓝图，非法的蓝图仅记录日志
func (s *serverImpl) loadApplications() error {
	s.logger.Println("正在从数据库导入应用")
	blueprints, err := s.dao.QueryAllBlueprints()
	if err != nil {
		return errors.Wrap(err, "读取蓝图失败")
	}

	for _, bp := range blueprints {
		a, err := app.New(bp, s.config.settings())
		if err != nil {
			s.logger.Errorf("跳过非法的蓝图%s：%v", bp.Binding.Id, err)
			continue
		}
		if !s.apps.add(a) {
			s.logger.Debugf("已存在ID相同的应用，跳过蓝图%s", bp.Binding.Id)
			continue
		}
		s.logger.Infof("从数据库导入了应用%s", a)
	}
	s.logger.Printf("导入完成，共%d个应用", s.apps.size())
	return nil
}

func (s *serverImpl) Start() error {
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	group, ctx := errgroup.WithContext(rootCtx)

	s.logger.Printf("服务器启动。配置：%v", s.config)

	group.Go(func() error {
		return s.scaler.RunTimer(ctx, s.config.TickInterval)
	})

	group.Go(func() error {
		return s.scaler.Run(ctx)
	})

	if s.metricsClient != nil {
		group.Go(func() error {
			return s.scrapper(ctx)
		})
	}

	httpServer := s.buildServer()
	group.Go(func() error {
		return s.serve(httpServer)
	})

	// 注册信号接收器
	group.Go(func() error {
		termSigChan := make(chan os.Signal, 1)
		signal.Notify(termSigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(termSigChan)

		select {
		case sig := <-termSigChan:
			s.logger.Printf("收到信号%s，服务器关闭", sig)
		case <-ctx.Done():
		}
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "关闭HTTP服务器失败")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		return errors.Wrap(err, "服务器异常结束")
	}
	return nil
}

func (s *serverImpl) serve(server *http.Server) error {
	s.logger.Printf("API服务器启动，地址为%s", server.Addr)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}

	s.logger.Printf("API服务器结束")
	return nil
}
