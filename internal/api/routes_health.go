package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/app"
	"github.com/campusfix/campusfix/internal/handlers"
	"github.com/campusfix/campusfix/internal/monitoring"
	"github.com/campusfix/campusfix/internal/monitoring/checks"
)

func registerHealthRoutes(r *gin.Engine, cfg *app.Config, db *gorm.DB, extra []monitoring.Check) {
	if cfg.Monitoring.Health.Enabled {
		probes := monitoring.NewHealth(checks.Database(db, 0))
		for _, check := range extra {
			probes.Register(check)
		}
		health := handlers.Health(probes)
		r.GET("/health", health)
		r.GET("/api/health", health)
	} else {
		r.GET("/health", disabledHealthHandler)
	}

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}
}

func disabledHealthHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"status":  "disabled",
	})
}
