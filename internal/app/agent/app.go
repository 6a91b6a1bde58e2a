/**
 * Agent应用程序核心逻辑
 * @date: 2026.10.16
 * @description: 负责加载配置、初始化各模块，并管理轮询器、分发器、状态服务和配置监听的生命周期
 */

package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/RedCore161/DeviceStreamController/internal/app/agent/router"
	"github.com/RedCore161/DeviceStreamController/internal/app/agent/setup"
	"github.com/RedCore161/DeviceStreamController/internal/config"
	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/monitor"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/version"
)

// App Agent应用程序结构体
type App struct {
	config     *config.Config
	configPath string
	logger     *logger.LoggerManager

	core    *setup.CoreModule
	client  *setup.ClientModule
	service *setup.ServiceModule
	server  *setup.ServerModule
	watcher *config.ConfigWatcher

	logLevel  string // 命令行覆盖的日志级别，为空时使用配置文件
	startedAt time.Time
	mu        sync.Mutex
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// Option 启动参数
type Option func(*App)

// WithLogLevel 覆盖配置文件中的日志级别，热重载后仍然生效
func WithLogLevel(level string) Option {
	return func(a *App) { a.logLevel = level }
}

// NewApp 加载配置并初始化所有模块
// 配置缺失或非法是启动期不可恢复错误
func NewApp(configFile string, opts ...Option) (*App, error) {
	if err := config.LoadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	loader := config.NewConfigLoader(configFile, "")
	cfg, err := loader.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewAppWithConfig(cfg, loader.GetConfigPath(), opts...)
}

// NewAppWithConfig 使用已加载的配置初始化应用，configPath 为空时不监听配置变更
func NewAppWithConfig(cfg *config.Config, configPath string, opts ...Option) (*App, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	app := &App{}
	for _, opt := range opts {
		opt(app)
	}
	cfg.Log = app.logConfig(cfg.Log)

	loggerManager, err := logger.InitLogger(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}
	logger.Infof("DeviceStreamController %s initializing...", version.GetFullVersion())

	coreModule, err := setup.SetupCore(cfg)
	if err != nil {
		return nil, err
	}
	clientModule := setup.SetupClient(cfg)
	serviceModule := setup.SetupService(cfg, coreModule, clientModule)

	app.config = cfg
	app.configPath = configPath
	app.logger = loggerManager
	app.core = coreModule
	app.client = clientModule
	app.service = serviceModule
	app.server = setup.SetupServer(cfg, app)

	if info, err := monitor.CollectHost(); info != nil {
		fields := map[string]interface{}{
			"hostname": info.Hostname,
			"platform": info.Platform,
			"kernel":   info.KernelVersion,
			"arch":     info.Arch,
			"cpu":      info.CPUCores,
			"memory":   info.MemoryTotal,
		}
		if err != nil {
			fields["partial"] = err.Error()
		}
		logger.LogSystemEvent("App", "Init", "host detected", logger.InfoLevel, fields)
	}
	if !monitor.DeviceAvailable(cfg.Device.Path) {
		logger.LogSystemEvent("App", "Init", "capture device not found: "+cfg.Device.Path, logger.WarnLevel, nil)
	}
	return app, nil
}

// GetConfig 获取配置实例
func (a *App) GetConfig() *config.Config {
	return a.config
}

// Start 启动后台循环，立即返回
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.group != nil {
		return errors.New("app already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(ctx)
	a.cancel = cancel
	a.group = g
	a.startedAt = time.Now()

	g.Go(func() error { return a.service.Poller.Run(gctx) })
	g.Go(func() error { return a.service.Dispatcher.Run(gctx) })

	if a.server != nil {
		srv := a.server.HTTPServer
		g.Go(func() error {
			logger.LogSystemEvent("StatusServer", "Start", "listening on "+srv.Addr, logger.InfoLevel, nil)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}

	if a.configPath != "" {
		a.startWatcher()
	}

	logger.LogSystemEvent("App", "Start", "agent started", logger.InfoLevel, map[string]interface{}{
		"base_url": a.config.Master.BaseURL,
		"device":   a.config.Device.Path,
	})
	return nil
}

// Wait 等待后台循环结束，返回第一个错误
func (a *App) Wait() error {
	a.mu.Lock()
	g := a.group
	a.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

// Stop 停止后台循环和状态服务
// 已启动的命令不会被取消，进程退出时随之结束
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	cancel, g := a.cancel, a.group
	a.mu.Unlock()
	if g == nil {
		return nil
	}

	logger.Info("Stopping DeviceStreamController...")
	cancel()

	if a.watcher != nil {
		_ = a.watcher.Stop()
	}

	var errs []error
	if a.server != nil {
		if err := a.server.HTTPServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop status server: %w", err))
		}
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()
	select {
	case err := <-done:
		if err != nil {
			errs = append(errs, err)
		}
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if running := a.core.Tracker.Len(); running > 0 {
		logger.Warnf("%d command(s) still running at shutdown", running)
	}
	logger.Info("DeviceStreamController stopped")
	if err := a.logger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close log file: %w", err))
	}
	return errors.Join(errs...)
}

// logConfig 应用命令行的日志级别覆盖，返回副本
func (a *App) logConfig(base *config.LogConfig) *config.LogConfig {
	if base == nil || a.logLevel == "" {
		return base
	}
	cfg := *base
	cfg.Level = a.logLevel
	return &cfg
}

// startWatcher 监听配置文件，热更新日志配置和轮询延迟
// 设备、服务端地址等配置变更需要重启生效
func (a *App) startWatcher() {
	w, err := config.NewConfigWatcher(a.configPath, a.config)
	if err != nil {
		logger.LogSystemEvent("ConfigWatcher", "Init", err.Error(), logger.WarnLevel, nil)
		return
	}
	w.OnError = func(err error) {
		logger.LogSystemEvent("ConfigWatcher", "Reload", err.Error(), logger.ErrorLevel, nil)
	}
	w.AddCallback(func(_, newCfg *config.Config) error {
		return a.logger.UpdateConfig(a.logConfig(newCfg.Log))
	})
	w.AddCallback(func(_, newCfg *config.Config) error {
		if newCfg.Poller != nil {
			a.core.Scheduler.SetBounds(newCfg.Poller.MinDelay, newCfg.Poller.MaxDelay)
		}
		logger.LogSystemEvent("ConfigWatcher", "Reload", "configuration reloaded", logger.InfoLevel, nil)
		return nil
	})

	if err := w.Start(); err != nil {
		logger.LogSystemEvent("ConfigWatcher", "Start", err.Error(), logger.WarnLevel, nil)
		_ = w.Stop()
		return
	}
	a.watcher = w
}

// Status 实现 router.StatusProvider
func (a *App) Status() *router.StatusSnapshot {
	now := time.Now()
	last := a.service.State.LastAction()
	snapshot := &router.StatusSnapshot{
		StartedAt:   a.startedAt,
		LastAction:  last,
		NextDelay:   a.core.Scheduler.ComputeDelay(now, last).String(),
		QueueLength: a.service.Queue.Len(),
		Running:     a.core.Tracker.Snapshot(),
		DeviceReady: a.DeviceReady(),
	}
	snapshot.System, _ = monitor.CollectSystem(a.config.Device.WorkDir)
	return snapshot
}

// DeviceReady 采集设备节点是否存在
func (a *App) DeviceReady() bool {
	return monitor.DeviceAvailable(a.config.Device.Path)
}

// Catalog 实现 router.StatusProvider
func (a *App) Catalog() []catalog.Entry {
	return a.core.Catalog.Entries()
}
