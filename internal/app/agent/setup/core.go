package setup

import (
	"fmt"

	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/schedule"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	"github.com/RedCore161/DeviceStreamController/internal/core/upload"
	"github.com/RedCore161/DeviceStreamController/internal/executor/process"
)

// SetupCore 初始化核心模块
func SetupCore(cfg *config.Config) (*CoreModule, error) {
	cat, err := catalog.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build command catalog: %w", err)
	}

	return &CoreModule{
		Catalog:   cat,
		Runner:    process.NewRunner(process.Options{WorkDir: cfg.Device.WorkDir}),
		Waiter:    upload.NewWaiter(cfg.Upload),
		Scheduler: schedule.NewScheduler(cfg.Poller),
		Tracker:   stream.NewTracker(),
	}, nil
}
