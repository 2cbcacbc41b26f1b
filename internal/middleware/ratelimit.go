package middleware

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campusfix/campusfix/internal/cache"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/response"
)

// RateLimitConfig bounds requests per client address and route.
type RateLimitConfig struct {
	Store    RateStore
	Requests int
	Window   time.Duration
}

// RateLimit rejects callers that exceed Requests within Window. A store
// failure lets the request through.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	log := logger.WithModule("ratelimit")

	return func(c *gin.Context) {
		if cfg.Store == nil || cfg.Requests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := cache.Key("ratelimit", route, c.ClientIP())

		count, ttl, err := cfg.Store.Increment(c.Request.Context(), key, cfg.Window)
		if err != nil {
			log.Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Requests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, cfg.Requests-count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))

		if count > cfg.Requests {
			c.Header("Retry-After", strconv.Itoa(max(1, int(math.Ceil(ttl.Seconds())))))
			response.Error(c, apperrors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
