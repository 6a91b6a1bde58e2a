package setup

import (
	"net/http"
	"time"

	"github.com/RedCore161/DeviceStreamController/internal/app/agent/router"
	"github.com/RedCore161/DeviceStreamController/internal/config"
)

// SetupServer 初始化本地状态服务，未启用时返回nil
func SetupServer(cfg *config.Config, provider router.StatusProvider) *ServerModule {
	if cfg.Status == nil || !cfg.Status.Enabled {
		return nil
	}

	debug := cfg.App != nil && cfg.App.Debug
	r := router.NewRouter(&router.RouterConfig{
		Debug:        debug,
		SkipLogPaths: []string{"/health", "/ping", "/metrics"},
	}, provider)

	httpServer := &http.Server{
		Addr:              cfg.Status.Listen,
		Handler:           r.GetEngine(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &ServerModule{
		Router:     r,
		HTTPServer: httpServer,
	}
}
