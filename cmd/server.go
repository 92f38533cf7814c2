/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"github.com/packagewjx/app-autoscaler/internal/app"
	"github.com/packagewjx/app-autoscaler/internal/executor"
	"github.com/packagewjx/app-autoscaler/internal/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	FlagPort                   = "port"
	FlagTickInterval           = "tick-interval"
	FlagMaxMetricAge           = "max-metric-age"
	FlagMaxMetricListSize      = "max-metric-list-size"
	FlagStaticScalingSize      = "static-scaling-size"
	FlagUpdateAppNameAtBinding = "update-app-name-at-binding"
	FlagMysqlHost              = "mysql-host"
	FlagMysqlUser              = "mysql-user"
	FlagMysqlPassword          = "mysql-password"
	FlagMysqlDatabase          = "mysql-database"
	FlagSqlitePath             = "sqlite-path"
	FlagExecutor               = "executor"
	FlagScalingEngineEndpoint  = "scaling-engine-endpoint"
	FlagScalingEngineSecret    = "scaling-engine-secret"
	FlagKubeconfig             = "kubeconfig"
	FlagScrape                 = "scrape"
	FlagScrapeInterval         = "scrape-interval"
	FlagScrapeNamespace        = "scrape-namespace"
	FlagKubeApiServer          = "kube-api-server"
)

// 配置文件中新应用默认配置所在的键
const KeyDefaults = "defaults"

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "自动扩缩容服务器",
	Long: "本服务器接收应用绑定、容器监控数据、请求监控数据与实例数预测，每个时钟周期（通过tick-interval指定）\n" +
		"检查一遍所有应用，根据各应用的阈值配置决定是否扩缩容，并调用扩缩容引擎或Kubernetes执行。\n" +
		"应用配置保存在MySQL中（或通过sqlite-path使用SQLite），重启后自动恢复。\n" +
		"若开启scrape，则每隔一段时间从Kubernetes的metrics server获取带有app-autoscaler/resource-id标签的Pod的监控数据。\n",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults := app.DefaultDefaults()
		if viper.IsSet(KeyDefaults) {
			if err := viper.UnmarshalKey(KeyDefaults, defaults); err != nil {
				return errors.Wrap(err, "读取默认应用配置出错")
			}
		}

		s, err := server.NewServer(&server.ServerConfig{
			Port:                   uint16(viper.GetUint(FlagPort)),
			TickInterval:           viper.GetDuration(FlagTickInterval),
			MaxMetricAge:           viper.GetDuration(FlagMaxMetricAge),
			MaxMetricListSize:      viper.GetInt(FlagMaxMetricListSize),
			StaticScalingSize:      viper.GetInt(FlagStaticScalingSize),
			UpdateAppNameAtBinding: viper.GetBool(FlagUpdateAppNameAtBinding),
			MysqlHost:              viper.GetString(FlagMysqlHost),
			MysqlUser:              viper.GetString(FlagMysqlUser),
			MysqlPassword:          viper.GetString(FlagMysqlPassword),
			MysqlDatabase:          viper.GetString(FlagMysqlDatabase),
			SqlitePath:             viper.GetString(FlagSqlitePath),
			ExecutorKind:           viper.GetString(FlagExecutor),
			ScalingEngineEndpoint:  viper.GetString(FlagScalingEngineEndpoint),
			ScalingEngineSecret:    viper.GetString(FlagScalingEngineSecret),
			Kubeconfig:             viper.GetString(FlagKubeconfig),
			ScrapeEnabled:          viper.GetBool(FlagScrape),
			ScrapeInterval:         viper.GetDuration(FlagScrapeInterval),
			ScrapeNamespace:        viper.GetString(FlagScrapeNamespace),
			KubeApiServerBaseUrl:   viper.GetString(FlagKubeApiServer),
			Defaults:               defaults,
		})
		if err != nil {
			return err
		}

		return s.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	flags := serverCmd.Flags()
	flags.Uint16P(FlagPort, "p", server.DefaultPort,
		"服务端口号")
	flags.DurationP(FlagTickInterval, "t", server.DefaultTickInterval,
		"扩缩容检查的时钟周期，至少为1s")
	flags.Duration(FlagMaxMetricAge, server.DefaultMaxMetricAge,
		"监控数据的最大年龄，更早的数据将被丢弃")
	flags.Int(FlagMaxMetricListSize, server.DefaultMaxMetricListSize,
		"每个应用保留的监控数据的最大条数")
	flags.Int(FlagStaticScalingSize, 1,
		"不使用quotient时每次扩缩容的实例数")
	flags.Bool(FlagUpdateAppNameAtBinding, false,
		"绑定时是否向扩缩容引擎查询资源名称")
	flags.String(FlagMysqlHost, "",
		"Mysql服务器主机端口，格式为：host:port。若为空，则读取环境变量MYSQL_SERVICE_HOST与MYSQL_SERVICE_PORT取得")
	flags.String(FlagMysqlUser, server.DefaultMysqlUser,
		"Mysql用户名")
	flags.String(FlagMysqlPassword, "",
		"Mysql密码")
	flags.String(FlagMysqlDatabase, server.DefaultMysqlDatabase,
		"Mysql数据库名")
	flags.String(FlagSqlitePath, "",
		"SQLite数据库文件。若不为空，则使用SQLite代替Mysql保存应用配置")
	flags.String(FlagExecutor, executor.KindScalingEngine,
		"执行扩缩容的方式，可以为scaling-engine或kubernetes")
	flags.String(FlagScalingEngineEndpoint, "",
		"扩缩容引擎的地址，executor为scaling-engine时必须指定")
	flags.String(FlagScalingEngineSecret, "",
		"访问扩缩容引擎使用的X-Auth-Token")
	flags.String(FlagKubeconfig, "",
		"kubeconfig文件路径。若为空，则使用集群内配置")
	flags.Bool(FlagScrape, false,
		"是否从Kubernetes的metrics server获取容器监控数据")
	flags.DurationP(FlagScrapeInterval, "i", server.DefaultScrapeInterval,
		"获取监控数据的间隔，至少为15s")
	flags.String(FlagScrapeNamespace, "",
		"获取监控数据的名称空间。若为空，则获取所有名称空间")
	flags.String(FlagKubeApiServer, "",
		"Kubernetes API Server的地址，如kubectl proxy的地址。若为空，则使用kubeconfig")

	_ = viper.BindPFlags(flags)
}
