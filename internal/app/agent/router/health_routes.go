package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RedCore161/DeviceStreamController/internal/pkg/logger"
	"github.com/RedCore161/DeviceStreamController/internal/pkg/version"
)

const serviceName = "DeviceStreamController"

// setupHealthRoutes 设置健康检查路由
func (r *Router) setupHealthRoutes() {
	r.engine.GET("/health", r.handleHealth)
	r.engine.GET("/ping", r.handlePing)
	r.engine.GET("/version", r.handleVersion)
}

// handleHealth 健康检查
// 设备节点不存在时返回503
func (r *Router) handleHealth(c *gin.Context) {
	status := "healthy"
	code := http.StatusOK
	if r.provider != nil && !r.provider.DeviceReady() {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": logger.NowFormatted(),
		"service":   serviceName,
		"version":   version.GetVersion(),
	})
}

// handlePing Ping
func (r *Router) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":   "pong",
		"timestamp": logger.NowFormatted(),
	})
}

// handleVersion 版本信息
func (r *Router) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":    serviceName,
		"version":    version.GetFullVersion(),
		"build_time": version.BuildTime,
		"git_commit": version.GitCommit,
		"go_version": version.GoVersion,
		"timestamp":  logger.NowFormatted(),
	})
}
