package http

import "github.com/gin-gonic/gin"

// Register mounts the inspector routes on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.GET("/capabilities", h.Capabilities)
	r.GET("/scheduler", h.Scheduler)
	r.POST("/scheduler/start", h.StartScheduler)
	r.POST("/scheduler/stop", h.StopScheduler)
	r.PUT("/scheduler/interval", h.SetInterval)
	r.GET("/metrics/json", h.MetricsSnapshot)
}
