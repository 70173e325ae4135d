package middleware

import (
	"time"

	"launchdeck/services"

	"github.com/gin-gonic/gin"
)

/**
 * HTTP request metrics middleware
 * @description
 * - Counts requests and errors (status >= 400) per route template
 * - Records request duration
 * - Feeds the totals reported by /healthz
 */
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		services.RecordRequest(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
