package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/examtree/examtree-backend/internal/platform/logger"
)

// RequestLog emits one structured line per request. Server faults log at
// error, client faults at warn, everything else at debug so steady-state
// traffic stays out of the way.
func RequestLog(log *logger.Logger) gin.HandlerFunc {
	reqLog := log.With("Middleware", "RequestLog")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start).String(),
		}
		switch {
		case status >= 500:
			reqLog.Error("Request failed", fields...)
		case status >= 400:
			reqLog.Warn("Request rejected", fields...)
		default:
			reqLog.Debug("Request served", fields...)
		}
	}
}
