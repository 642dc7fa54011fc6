package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const healthPingTimeout = 2 * time.Second

// Health reports liveness plus database reachability. A failed ping answers
// 503 so load balancers drain the instance.
func Health(pinger Pinger, started time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthPingTimeout)
		defer cancel()

		status, database, code := "ok", "up", http.StatusOK
		if err := pinger.Ping(ctx); err != nil {
			zap.L().Warn("health check ping failed", zap.Error(err))
			status, database, code = "degraded", "down", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"database":  database,
			"uptime":    time.Since(started).Round(time.Second).String(),
			"timestamp": time.Now().UTC(),
		})
	}
}
