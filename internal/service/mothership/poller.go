/**
 * Mothership轮询器
 * @date: 2026.10.16
 * @description: 周期性拉取命令，instant命令同步执行，其余放入工作队列交给分发器
 */
package mothership

import (
	"context"
	"fmt"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/schedule"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/metrics"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/queue"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/utils"
)

// Resolver 命令解析
type Resolver interface {
	Resolve(cmd modelComm.Command) catalog.Descriptor
}

// MetricsFunc 心跳指标采集
type MetricsFunc func() *modelComm.HeartbeatMetrics

// PollerOptions 轮询器选项
type PollerOptions struct {
	HeartbeatOnIdle bool        // 本周期没有命令时发送心跳
	HeartbeatData   MetricsFunc // 可为nil
	Now             func() time.Time
	Sleep           func(ctx context.Context, d time.Duration) error
}

// Poller 轮询器，持有延迟调度器和PollState
type Poller struct {
	mothership client.Mothership
	resolver   Resolver
	scheduler  *schedule.Scheduler
	state      *PollState
	queue      *queue.Queue[*stream.StreamCommand]
	deps       *stream.Deps
	opts       PollerOptions
}

// NewPoller 创建轮询器
func NewPoller(
	ms client.Mothership,
	resolver Resolver,
	scheduler *schedule.Scheduler,
	state *PollState,
	q *queue.Queue[*stream.StreamCommand],
	deps *stream.Deps,
	opts PollerOptions,
) *Poller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = utils.SleepContext
	}
	return &Poller{
		mothership: ms,
		resolver:   resolver,
		scheduler:  scheduler,
		state:      state,
		queue:      q,
		deps:       deps,
		opts:       opts,
	}
}

// Run 轮询主循环: Idle -> Fetching -> Dispatching -> Idle
// 只有ctx取消时返回
func (p *Poller) Run(ctx context.Context) error {
	logger.LogSystemEvent("Poller", "Start", "Mothership poller started", logger.InfoLevel, nil)
	defer logger.LogSystemEvent("Poller", "Stop", "Mothership poller stopped", logger.InfoLevel, nil)

	for {
		delay := p.Cycle(ctx)
		if err := p.opts.Sleep(ctx, delay); err != nil {
			return nil
		}
	}
}

// Cycle 执行一个轮询周期并返回下一次轮询前的等待时长
// 拉取失败按空结果处理，本周期内不重试
func (p *Poller) Cycle(ctx context.Context) time.Duration {
	cmds, err := p.mothership.Fetch(ctx)
	if err != nil {
		logger.LogSystemEvent("Poller", "Fetch", err.Error(), logger.ErrorLevel, nil)
		cmds = nil
	}

	for _, cmd := range cmds {
		if ctx.Err() != nil {
			break
		}
		p.handle(ctx, cmd)
	}

	if err == nil && len(cmds) == 0 && p.opts.HeartbeatOnIdle {
		p.heartbeat(ctx)
	}

	delay := p.scheduler.ComputeDelay(p.opts.Now(), p.state.LastAction())
	metrics.PollCycles.Inc()
	metrics.PollDelay.Set(delay.Seconds())
	logger.LogSystemEvent("Poller", "Cycle", fmt.Sprintf("fetched %d command(s), next poll in %s", len(cmds), delay), logger.DebugLevel, map[string]interface{}{
		"queue_length": p.queue.Len(),
	})
	return delay
}

// handle 解析单条命令，instant命令同步执行，其余入队
func (p *Poller) handle(ctx context.Context, cmd modelComm.Command) {
	sc := stream.New(cmd.ID, p.resolver.Resolve(cmd), p.deps)

	logger.LogCommandEvent(logger.CommandEvent{
		CommandID: sc.ID,
		Code:      cmd.Cmd,
		RunID:     sc.RunID,
		Stage:     stream.StageResolved,
		Status:    stream.StatusSuccess,
		Message:   sc.Shell.String(),
	}, map[string]interface{}{"instant": sc.Instant, "params": cmd.Params})

	if sc.Instant {
		sc.RunInstant(ctx)
		return
	}

	p.queue.Push(sc)
	metrics.QueueLength.Set(float64(p.queue.Len()))
	logger.LogCommandEvent(logger.CommandEvent{
		CommandID: sc.ID,
		Code:      cmd.Cmd,
		RunID:     sc.RunID,
		Stage:     stream.StageQueued,
		Status:    stream.StatusSuccess,
	}, nil)
}

func (p *Poller) heartbeat(ctx context.Context) {
	var data *modelComm.HeartbeatMetrics
	if p.opts.HeartbeatData != nil {
		data = p.opts.HeartbeatData()
	}
	if err := p.mothership.Heartbeat(ctx, data); err != nil {
		logger.LogSystemEvent("Poller", "Heartbeat", err.Error(), logger.WarnLevel, nil)
	}
}
