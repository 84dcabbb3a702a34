// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// Metrics records request counts, latencies and in-flight requests into the
// collectors in internal/metrics. The path label is the registered route
// (for example /api/v1/sessions/:id/messages) so raw ids never become labels;
// unmatched requests are grouped under "unmatched".
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/iris-triage/internal/metrics"
)

// Metrics returns the Prometheus instrumentation middleware.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.HTTPInflight.Inc()
		defer metrics.HTTPInflight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, path, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}
