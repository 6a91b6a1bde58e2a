package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/RedCore161/DeviceStreamController/internal/core/schedule"
)

var (
	delayAt   string
	delayIdle time.Duration
	delayDay  bool
)

var delayCmd = &cobra.Command{
	Use:   "delay",
	Short: "计算轮询延迟",
	Long: `按配置的 poller.min_delay / poller.max_delay 计算指定时刻、指定空闲时长下的轮询延迟。
无法加载配置文件时使用内置默认值。

示例:
  stream-agent delay --at 03:00 --idle 1h
  stream-agent delay --day --idle 0s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		scheduler := schedule.NewScheduler(nil)
		if cfg, err := loadConfig(); err == nil && cfg.Poller != nil {
			scheduler.SetBounds(cfg.Poller.MinDelay, cfg.Poller.MaxDelay)
		} else if err != nil {
			pterm.Debug.Printf("Using default delay bounds: %v\n", err)
		}

		now := time.Now()
		if delayAt != "" {
			t, err := time.ParseInLocation("15:04", delayAt, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --at %q, expected HH:MM: %w", delayAt, err)
			}
			now = time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, time.Local)
		}

		if !delayDay {
			d := scheduler.ComputeDelay(now, now.Add(-delayIdle))
			pterm.Printf("%s idle=%s -> %s\n", now.Format("15:04"), delayIdle, d)
			return nil
		}

		data := pterm.TableData{{"Time", "Delay"}}
		start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
		for h := 0; h < 24; h++ {
			at := start.Add(time.Duration(h) * time.Hour)
			data = append(data, []string{at.Format("15:04"), scheduler.ComputeDelay(at, at.Add(-delayIdle)).String()})
		}
		if err := pterm.DefaultTable.WithHasHeader(true).WithBoxed(false).WithData(data).Render(); err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(delayCmd)
	delayCmd.Flags().StringVar(&delayAt, "at", "", "时刻 HH:MM (默认当前时间)")
	delayCmd.Flags().DurationVar(&delayIdle, "idle", 5*time.Minute, "距离最近一次执行的时长")
	delayCmd.Flags().BoolVar(&delayDay, "day", false, "输出全天每小时的延迟")
}
