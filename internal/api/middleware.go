package api

import (
	"slices"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"worldbuilder/internal/common/logger"
	"worldbuilder/internal/common/metrics"
)

// CORS allows every origin when origins is empty or contains "*".
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// Metrics counts requests by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		fields := map[string]interface{}{
			"method":     c.Request.Method,
			"path":       path,
			"status":     status,
			"durationMs": time.Since(start).Milliseconds(),
			"clientIp":   c.ClientIP(),
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields)
		case status >= 400:
			log.Warn("HTTP request", fields)
		default:
			log.Debug("HTTP request", fields)
		}
	}
}
