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
	"context"
	"encoding/json"
	"fmt"
	"github.com/packagewjx/app-autoscaler/pkg/client"
	"github.com/packagewjx/app-autoscaler/pkg/core"
	"github.com/packagewjx/app-autoscaler/pkg/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io/ioutil"
	"os"
)

const (
	FlagApiServer  = "api-server"
	FlagUpdateFile = "file"
)

// appCmd represents the app command
var appCmd = &cobra.Command{
	Use:   "app",
	Short: "管理已绑定的应用",
	Long:  "通过自动扩缩容服务器的接口查看与修改应用配置。服务器地址通过api-server指定。\n",
}

func apiClient() server.API {
	return client.NewApiClient(viper.GetString(FlagApiServer))
}

func printJson(v interface{}) error {
	marshal, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(marshal))
	return nil
}

// blueprintCommand 对指定应用执行一次操作并输出蓝图
func blueprintCommand(use, short string, f func(api server.API, id string) (*core.Blueprint, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " bindingId",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bp, err := f(apiClient(), args[0])
			if err != nil {
				return err
			}
			return printJson(bp)
		},
	}
}

var appBindCmd = &cobra.Command{
	Use:   "bind bindingFile",
	Short: "读取json格式的绑定记录并绑定应用",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := ioutil.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "读取绑定文件出错")
		}
		binding := &core.Binding{}
		if err = json.Unmarshal(content, binding); err != nil {
			return errors.Wrap(err, "解析绑定文件出错")
		}
		bp, created, err := apiClient().Bind(context.Background(), binding)
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintln(os.Stderr, "应用已存在")
		}
		return printJson(bp)
	},
}

var appUnbindCmd = &cobra.Command{
	Use:   "unbind bindingId",
	Short: "解绑应用",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return apiClient().Unbind(context.Background(), args[0])
	},
}

var appListCmd = &cobra.Command{
	Use:   "list serviceId",
	Short: "列出某个服务实例的所有绑定",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bindings, err := apiClient().BindingsOfService(context.Background(), args[0])
		if err != nil {
			return err
		}
		return printJson(bindings)
	},
}

var updateFile string

var appUpdateCmd = &cobra.Command{
	Use:   "update bindingId",
	Short: "读取json格式的更新请求并修改应用配置，未出现的字段不修改",
	Args:  cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if updateFile == "" {
			return fmt.Errorf("必须指定更新请求文件")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := ioutil.ReadFile(updateFile)
		if err != nil {
			return errors.Wrap(err, "读取更新请求文件出错")
		}
		request := &server.UpdateRequest{}
		if err = json.Unmarshal(content, request); err != nil {
			return errors.Wrap(err, "解析更新请求文件出错")
		}
		bp, err := apiClient().UpdateApplication(context.Background(), args[0], request)
		if err != nil {
			return err
		}
		return printJson(bp)
	},
}

var appTriggerCmd = &cobra.Command{
	Use:   "trigger",
	Short: "立即触发一次扩缩容检查",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		apiClient().Trigger()
	},
}

func init() {
	rootCmd.AddCommand(appCmd)

	appCmd.PersistentFlags().String(FlagApiServer, client.DefaultApiHostBaseUrl,
		"自动扩缩容服务器地址")
	_ = viper.BindPFlag(FlagApiServer, appCmd.PersistentFlags().Lookup(FlagApiServer))

	appUpdateCmd.Flags().StringVarP(&updateFile, FlagUpdateFile, "f", "",
		"更新请求文件")

	appCmd.AddCommand(appBindCmd, appUnbindCmd, appListCmd, appUpdateCmd, appTriggerCmd,
		blueprintCommand("get", "查看应用配置", func(api server.API, id string) (*core.Blueprint, error) {
			return api.GetApplication(context.Background(), id)
		}),
		blueprintCommand("reset-quotient", "重置应用的quotient", func(api server.API, id string) (*core.Blueprint, error) {
			return api.ResetQuotient(context.Background(), id)
		}),
		blueprintCommand("reset-learning", "重新开始应用的学习时间", func(api server.API, id string) (*core.Blueprint, error) {
			return api.ResetLearningStartTime(context.Background(), id)
		}),
		blueprintCommand("update-name", "向扩缩容引擎重新查询资源名称", func(api server.API, id string) (*core.Blueprint, error) {
			return api.UpdateResourceName(context.Background(), id)
		}),
	)
}
