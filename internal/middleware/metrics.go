package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency per route template. Requests for the
// skipped paths (the scrape endpoint, probes) are not recorded.
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		if path != "" {
			skipped[path] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		metrics.APILatency.WithLabelValues(c.Request.Method, routeLabel(c), status).
			Observe(time.Since(start).Seconds())
	}
}

// routeLabel keeps label cardinality bounded: display ids and unknown paths
// collapse into their route template or a single bucket.
func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}
