package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// handleStatus 运行状态
func (r *Router) handleStatus(c *gin.Context) {
	if r.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "status not available"})
		return
	}
	c.JSON(http.StatusOK, r.provider.Status())
}

type commandView struct {
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Template string `json:"template"`
	Instant  bool   `json:"instant"`
}

// handleCommands 命令目录
func (r *Router) handleCommands(c *gin.Context) {
	if r.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "catalog not available"})
		return
	}

	entries := r.provider.Catalog()
	views := make([]commandView, 0, len(entries))
	for _, e := range entries {
		views = append(views, commandView{
			Code:     int(e.Code),
			Name:     e.Name,
			Template: e.Template,
			Instant:  e.Instant,
		})
	}
	c.JSON(http.StatusOK, gin.H{"commands": views})
}
