package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ecolehub/ecole-api/internal/service"
)

// Metrics records method, route and status for every request. Unmatched
// routes share one label so the raw URL path never reaches the metric
// cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
