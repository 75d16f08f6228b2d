package httpserver

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"teammy/pkg/metrics"
)

// MetricsMiddleware records request durations labeled by route template so
// path parameters do not explode the label space.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
