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
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"strings"
)

const (
	FlagConfig    = "config"
	FlagLogLevel  = "log-level"
	FlagLogFormat = "log-format"
)

const EnvPrefix = "AUTOSCALER"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "app-autoscaler",
	Short: "应用自动扩缩容服务",
	Long: "根据应用的CPU、内存、请求延迟以及外部预测，周期性地计算应用需要的实例数，\n" +
		"并通过扩缩容引擎或Kubernetes调整实例数。\n",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, FlagConfig, "",
		"配置文件路径，默认为$HOME/.app-autoscaler.yaml")
	rootCmd.PersistentFlags().String(FlagLogLevel, logrus.InfoLevel.String(),
		"日志级别，可以为debug、info、warn或error")
	rootCmd.PersistentFlags().String(FlagLogFormat, "text",
		"日志格式，可以为text或json")
	_ = viper.BindPFlag(FlagLogLevel, rootCmd.PersistentFlags().Lookup(FlagLogLevel))
	_ = viper.BindPFlag(FlagLogFormat, rootCmd.PersistentFlags().Lookup(FlagLogFormat))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".app-autoscaler" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".app-autoscaler")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func initLogging() error {
	level, err := logrus.ParseLevel(viper.GetString(FlagLogLevel))
	if err != nil {
		return fmt.Errorf("未知的日志级别%q", viper.GetString(FlagLogLevel))
	}
	logrus.SetLevel(level)

	switch viper.GetString(FlagLogFormat) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("未知的日志格式%q", viper.GetString(FlagLogFormat))
	}
	return nil
}
