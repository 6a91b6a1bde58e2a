package setup

import (
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	modelComm "github.com/RedCore161/DeviceStreamController/internal/model/client"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/monitor"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/queue"
	"github.com/RedCore161/DeviceStreamController/internal/service/mothership"
)

// SetupService 初始化轮询与分发模块
func SetupService(cfg *config.Config, core *CoreModule, cli *ClientModule) *ServiceModule {
	initialIdle := 5 * time.Minute
	if cfg.Poller != nil && cfg.Poller.InitialIdle > 0 {
		initialIdle = cfg.Poller.InitialIdle
	}

	state := mothership.NewPollState(time.Now(), initialIdle)
	q := queue.New[*stream.StreamCommand]()
	deps := &stream.Deps{
		Runner:   core.Runner,
		Waiter:   core.Waiter,
		Uploader: cli.Mothership,
		Tracker:  core.Tracker,
	}

	poller := mothership.NewPoller(cli.Mothership, core.Catalog, core.Scheduler, state, q, deps, mothership.PollerOptions{
		HeartbeatOnIdle: cfg.Master.HeartbeatOnIdle,
		HeartbeatData:   heartbeatData(cfg.Device.WorkDir),
	})

	return &ServiceModule{
		State:      state,
		Queue:      q,
		Poller:     poller,
		Dispatcher: mothership.NewDispatcher(cli.Mothership, state, q),
	}
}

// heartbeatData 采集心跳附带的主机指标，部分采集失败时仍发送已有数据
func heartbeatData(diskPath string) mothership.MetricsFunc {
	return func() *modelComm.HeartbeatMetrics {
		m, err := monitor.CollectSystem(diskPath)
		if err != nil {
			logger.Debugf("Heartbeat metrics incomplete: %v", err)
		}
		return m.Heartbeat()
	}
}
