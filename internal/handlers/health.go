package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/pkg/logger"
)

// Health reports readiness. A down or degraded probe turns the response into a 503.
func Health(health *monitoring.Health) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := health.Evaluate(requestContext(c))

		status := http.StatusOK
		if !report.Success {
			status = http.StatusServiceUnavailable
			for _, check := range report.Checks {
				if check.Status != monitoring.StatusUp {
					logger.WithModule("health").Warn("health probe failed",
						zap.String("component", check.Component),
						zap.String("status", string(check.Status)),
						zap.String("details", check.Details),
					)
				}
			}
		}
		c.JSON(status, report)
	}
}
