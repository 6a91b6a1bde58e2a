/**
 * 上传就绪等待
 * @date: 2026.10.16
 * @description: 两阶段轮询等待输出文件出现并超过大小阈值，之后再等待一个固定的宽限期
 */
package upload

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/utils"
	"github.com/sirupsen/logrus"
)

// ErrNotReady 文件未就绪
var ErrNotReady = errors.New("file not ready for upload")

// 默认参数
const (
	DefaultMaxAttempts = 10
	DefaultInterval    = 3 * time.Second
	DefaultMinSize     = 100
	DefaultGrace       = 10 * time.Second
)

// SleepFunc 可中断的等待函数，测试中可替换
type SleepFunc func(ctx context.Context, d time.Duration) error

// Waiter 上传就绪等待器
//
// 就绪判定是启发式的：文件大小超过阈值并不代表写入方已完成，
// 宽限期只是给写入方留出刷盘时间，不保证文件完整。
// 真正决定文件何时完整的是采集命令自身的时长参数。
type Waiter struct {
	MaxAttempts int           // 每个阶段的重试次数
	Interval    time.Duration // 检查间隔
	MinSize     int64         // 大小阈值（字节）
	Grace       time.Duration // 达到阈值后的宽限期

	sleep SleepFunc
	stat  func(string) (os.FileInfo, error)
}

// NewWaiter 根据配置创建等待器，未配置的字段使用默认值
func NewWaiter(cfg *config.UploadConfig) *Waiter {
	w := &Waiter{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
		MinSize:     DefaultMinSize,
		Grace:       DefaultGrace,
		sleep:       utils.SleepContext,
		stat:        os.Stat,
	}
	if cfg != nil {
		if cfg.MaxAttempts > 0 {
			w.MaxAttempts = cfg.MaxAttempts
		}
		if cfg.Interval > 0 {
			w.Interval = cfg.Interval
		}
		if cfg.MinSize > 0 {
			w.MinSize = cfg.MinSize
		}
		if cfg.Grace >= 0 {
			w.Grace = cfg.Grace
		}
	}
	return w
}

// WithSleep 替换等待函数
func (w *Waiter) WithSleep(fn SleepFunc) *Waiter {
	w.sleep = fn
	return w
}

// AwaitReady 等待文件就绪
// 阶段1: 等待文件出现；阶段2: 等待文件大小 >= MinSize。
// 每个阶段最多检查 MaxAttempts+1 次，中间间隔 Interval。
// 任一阶段耗尽重试次数或ctx取消时返回false，调用方不得继续上传。
func (w *Waiter) AwaitReady(ctx context.Context, path string) bool {
	log := logger.WithFields(logrus.Fields{
		"path": "upload.AwaitReady",
		"file": path,
	})

	if !w.poll(ctx, func() bool {
		_, err := w.stat(path)
		return err == nil
	}) {
		log.Warnf("File did not appear after %d attempts", w.MaxAttempts)
		return false
	}

	var size int64
	if !w.poll(ctx, func() bool {
		info, err := w.stat(path)
		if err != nil {
			return false
		}
		size = info.Size()
		return size >= w.MinSize
	}) {
		log.Warnf("File stayed below %d bytes after %d attempts", w.MinSize, w.MaxAttempts)
		return false
	}

	log.WithField("size", size).Debugf("File reached threshold, waiting %s grace period", w.Grace)
	if w.Grace > 0 {
		if err := w.sleep(ctx, w.Grace); err != nil {
			return false
		}
	}
	return true
}

// poll 检查条件直到成立或重试次数耗尽
func (w *Waiter) poll(ctx context.Context, ready func() bool) bool {
	for attempt := 0; ; attempt++ {
		if ready() {
			return true
		}
		if attempt >= w.MaxAttempts {
			return false
		}
		if err := w.sleep(ctx, w.Interval); err != nil {
			return false
		}
	}
}
