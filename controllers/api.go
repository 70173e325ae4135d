package controllers

import (
	"net/http"

	"launchdeck/internal/config"
	"launchdeck/internal/logger"
	"launchdeck/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIController struct {
	server *services.Server
}

/**
 * Create new API controller instance
 * @param {*services.Server} server - Server providing health and monitoring
 * @returns {*APIController} New API controller instance
 */
func NewAPIController(server *services.Server) *APIController {
	return &APIController{
		server: server,
	}
}

/**
 * Register server-level routes
 * @param {*gin.Engine} r - Gin router instance
 * @description
 * - /healthz and /metrics at the root, reload under /api/v1
 */
func (a *APIController) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", a.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/api/v1/reload", a.ReloadConfig)
}

// @Summary Reload configuration
// @Description Re-read config.yaml; the running server keeps its listeners and database
// @Tags Config
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} models.ErrorResponse
// @Router /api/v1/reload [post]
func (a *APIController) ReloadConfig(c *gin.Context) {
	if err := config.ReloadConfig(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":  "config.reload_failed",
			"error": "Failed to reload configuration: " + err.Error(),
		})
		return
	}
	cfg := config.App()
	logger.InitLoggerWithMode(&cfg.Log, true)
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"message": "Configuration reloaded successfully",
	})
}

// @Summary Readiness probe
// @Description Version, start time, uptime and request/catalog counters
// @Tags System
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (a *APIController) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, a.server.GetHealthz(c.Request.Context()))
}
