/*
 * @date: 2026.10.16
 * @description: Cobra Root Command 定义
 */

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stream-agent",
	Short: "远程控制的采集设备代理",
	Long: `stream-agent 定期向服务端(Mothership)拉取命令，在本地执行采集/推流/更新/关机等操作，
并在命令产生文件时等待文件就绪后上传。

示例:
  1.启动代理
	stream-agent server --config ./configs/config.yaml
  2.查看命令码解析结果
	stream-agent resolve --code 200 --param vf=true
  3.查看某时刻的轮询延迟
	stream-agent delay --at 23:30 --idle 10m
`,
	SilenceUsage: true,
	// PersistentPreRun: 全局初始化逻辑，确保所有子命令都能使用日志
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initCLILogger()
	},
}

// Execute 执行根命令
func Execute() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n[FATAL] Agent crashed unexpectedly: %v\n", r)
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "配置文件路径 (默认: ./configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (debug, info, warn, error)，server 子命令下覆盖配置文件")
}

// initCLILogger 初始化 CLI 模式下的日志
// server 子命令会按配置文件重新初始化
func initCLILogger() {
	level := "warn"
	if logLevel != "" {
		level = logLevel
	}

	switch level {
	case "debug":
		pterm.EnableDebugMessages()
	case "info":
		pterm.DisableDebugMessages()
	default:
		pterm.DisableDebugMessages()
		pterm.Info = *pterm.Info.WithWriter(io.Discard)
	}

	if _, err := logger.InitLogger(&config.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stderr",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
	}
}

// loadConfig 加载配置文件，供不启动代理的子命令使用
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, err
	}
	return config.Load(cfgFile)
}
