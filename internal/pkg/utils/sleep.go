/**
 * 工具包:可中断等待
 * @date: 2026.10.16
 * @description: 上传等待和轮询器共用的sleep，ctx取消时立即返回
 */
package utils

import (
	"context"
	"time"
)

// SleepContext 等待d或ctx取消，d<=0时只检查ctx
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
