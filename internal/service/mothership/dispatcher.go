/**
 * 命令分发器
 * @date: 2026.10.16
 * @description: 消费工作队列，确认命令后以fire-and-forget方式启动
 */
package mothership

import (
	"context"
	"strconv"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/metrics"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/queue"
)

// Dispatcher 分发器: 出队 -> 确认 -> 分配token -> 更新最近执行时间 -> 启动
// 启动后不等待命令结束，多个命令可以并发执行
type Dispatcher struct {
	mothership client.Mothership
	state      *PollState
	queue      *queue.Queue[*stream.StreamCommand]
	now        func() time.Time
}

// NewDispatcher 创建分发器
func NewDispatcher(ms client.Mothership, state *PollState, q *queue.Queue[*stream.StreamCommand]) *Dispatcher {
	return &Dispatcher{
		mothership: ms,
		state:      state,
		queue:      q,
		now:        time.Now,
	}
}

// Run 分发主循环，队列为空时阻塞，ctx取消时返回
// 已启动的命令不受ctx取消影响
func (d *Dispatcher) Run(ctx context.Context) error {
	logger.LogSystemEvent("Dispatcher", "Start", "Dispatch loop started", logger.InfoLevel, nil)
	defer logger.LogSystemEvent("Dispatcher", "Stop", "Dispatch loop stopped", logger.InfoLevel, nil)

	for {
		sc, err := d.queue.Pop(ctx)
		if err != nil {
			return nil
		}
		metrics.QueueLength.Set(float64(d.queue.Len()))
		d.Dispatch(ctx, sc)
	}
}

// Dispatch 处理单个StreamCommand，返回执行结束信号；未启动时返回nil
// 确认失败时本次命令被丢弃，不会执行
func (d *Dispatcher) Dispatch(ctx context.Context, sc *stream.StreamCommand) <-chan struct{} {
	if sc.IsInert() {
		// 未知命令码不确认，留给服务端处理
		metrics.CommandsTotal.WithLabelValues(strconv.Itoa(int(sc.Code)), metrics.ResultSkipped).Inc()
		logger.LogCommandEvent(logger.CommandEvent{
			CommandID: sc.ID,
			Code:      int(sc.Code),
			RunID:     sc.RunID,
			Stage:     stream.StageAcknowledged,
			Status:    stream.StatusSkipped,
			Message:   "unknown command code",
		}, nil)
		return nil
	}

	token, err := d.mothership.Acknowledge(ctx, sc.ID)
	if err != nil {
		logger.LogCommandEvent(logger.CommandEvent{
			CommandID: sc.ID,
			Code:      int(sc.Code),
			RunID:     sc.RunID,
			Stage:     stream.StageAcknowledged,
			Status:    stream.StatusFailed,
			Message:   err.Error(),
		}, nil)
		return nil
	}

	sc.SetToken(token)
	d.state.Touch(d.now())
	logger.LogCommandEvent(logger.CommandEvent{
		CommandID: sc.ID,
		Code:      int(sc.Code),
		RunID:     sc.RunID,
		Stage:     stream.StageAcknowledged,
		Status:    stream.StatusSuccess,
	}, nil)

	// 命令没有取消路径，脱离dispatcher的ctx
	return sc.Launch(context.WithoutCancel(ctx))
}
