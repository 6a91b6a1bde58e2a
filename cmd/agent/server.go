/*
 * @date: 2026.10.16
 * @description: Server 子命令，前台运行代理直到收到退出信号
 */

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RedCore161/DeviceStreamController/internal/app/agent"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
)

var shutdownTimeout time.Duration

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "启动代理 (轮询服务端并执行命令)",
	Long: `启动轮询循环与分发循环，直到收到 SIGINT/SIGTERM。

配置项可以通过 STREAMAGENT_ 前缀的环境变量覆盖，例如:
  STREAMAGENT_MASTER_BASE_URL=https://example.org/api/ stream-agent server`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
	serverCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 5*time.Second, "退出时等待后台循环结束的时长")
}

func runServer() error {
	app, err := agent.NewApp(cfgFile, agent.WithLogLevel(logLevel))
	if err != nil {
		return fmt.Errorf("failed to create agent app: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start agent app: %w", err)
	}

	// 后台循环出错或收到信号时退出
	errCh := make(chan error, 1)
	go func() { errCh <- app.Wait() }()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("agent forced to shutdown: %w", err)
	}
	return runErr
}
