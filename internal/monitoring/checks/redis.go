package checks

import (
	"context"
	"time"

	"github.com/campusfix/campusfix/internal/monitoring"
)

const defaultRedisTimeout = 2 * time.Second

// RedisPinger is satisfied by cache.RedisStore.
type RedisPinger interface {
	Ping(ctx context.Context) error
}

// Redis returns a probe for the shared cache. An unreachable cache degrades
// the report instead of failing it: rate limiting and session lookups fall
// back without it.
func Redis(client RedisPinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("redis", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if client == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "redis unavailable"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultRedisTimeout))
		defer cancel()

		result := monitoring.ResultFromError("redis", client.Ping(probeCtx), time.Since(start))
		if result.Status == monitoring.StatusDown {
			result.Status = monitoring.StatusDegraded
		}
		return result
	})
}
