/**
 * 本地状态服务路由
 * @date: 2026.10.16
 * @description: 只读的本地HTTP接口，提供健康检查、运行状态、命令目录和Prometheus指标
 */
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RedCore161/DeviceStreamController/internal/core/catalog"
	"github.com/RedCore161/DeviceStreamController/internal/core/stream"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/monitor"
)

// RouterConfig 路由配置
type RouterConfig struct {
	// 是否启用调试模式
	Debug bool `json:"debug"`

	// 跳过访问日志的路径
	SkipLogPaths []string `json:"skip_log_paths"`
}

// StatusSnapshot 运行状态快照
type StatusSnapshot struct {
	StartedAt   time.Time               `json:"started_at"`
	LastAction  time.Time               `json:"last_action"`
	NextDelay   string                  `json:"next_delay"`
	QueueLength int                     `json:"queue_length"`
	Running     []stream.RunningCommand `json:"running"`
	DeviceReady bool                    `json:"device_ready"`
	System      *monitor.SystemMetrics  `json:"system,omitempty"`
}

// StatusProvider 运行状态来源
type StatusProvider interface {
	Status() *StatusSnapshot
	DeviceReady() bool
	Catalog() []catalog.Entry
}

// Router 状态服务路由器
type Router struct {
	engine   *gin.Engine
	config   *RouterConfig
	provider StatusProvider
}

// NewRouter 创建路由器
func NewRouter(config *RouterConfig, provider StatusProvider) *Router {
	if config == nil {
		config = &RouterConfig{SkipLogPaths: []string{"/health", "/ping", "/metrics"}}
	}

	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		config:   config,
		provider: provider,
	}
	r.registerGlobalMiddleware()
	r.registerRoutes()
	return r
}

// GetEngine 获取gin引擎
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// registerGlobalMiddleware 注册全局中间件
func (r *Router) registerGlobalMiddleware() {
	r.engine.Use(gin.Recovery())
	r.engine.Use(r.accessLog())
}

// accessLog 访问日志中间件
func (r *Router) accessLog() gin.HandlerFunc {
	skip := make(map[string]struct{}, len(r.config.SkipLogPaths))
	for _, p := range r.config.SkipLogPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}
		logger.LogAccessRequest(c, start)
	}
}

// registerRoutes 注册路由
func (r *Router) registerRoutes() {
	r.setupHealthRoutes()

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.GET("/status", r.handleStatus)
	api.GET("/commands", r.handleCommands)
}
