// Package checks provides the portal's dependency probes.
package checks

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/monitoring"
)

const defaultDatabaseTimeout = 2 * time.Second

// schemaTables must exist for ticket traffic to succeed.
var schemaTables = []any{&models.User{}, &models.Complaint{}, &models.Application{}, &models.Notification{}}

// Database returns a probe that pings the database handle and confirms the
// ticket schema has been migrated. An unreachable database is down; a
// reachable one missing tables is degraded.
func Database(db *gorm.DB, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if db == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "database not configured"}
		}

		sqlDB, err := db.DB()
		if err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultDatabaseTimeout))
		defer cancel()

		if err := sqlDB.PingContext(probeCtx); err != nil {
			return monitoring.ResultFromError("database", err, time.Since(start))
		}

		migrator := db.WithContext(probeCtx).Migrator()
		for _, table := range schemaTables {
			if !migrator.HasTable(table) {
				return monitoring.ProbeResult{
					Component: "database",
					Status:    monitoring.StatusDegraded,
					Details:   fmt.Sprintf("table for %T missing; run migrations", table),
					Duration:  time.Since(start),
				}
			}
		}
		return monitoring.ResultFromError("database", nil, time.Since(start))
	})
}

func chooseTimeout(provided, fallback time.Duration) time.Duration {
	if provided <= 0 {
		return fallback
	}
	return provided
}
