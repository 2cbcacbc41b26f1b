package app

import (
	"strings"
	"time"

	"github.com/campusfix/campusfix/internal/cache"
)

const defaultRedisTimeout = 2 * time.Second

// RedisClientConfig maps the cache section onto the redis store settings. The
// boolean is false when redis is disabled or has no address, in which case
// sessions and rate limits stay on the database and in memory.
func (c CacheConfig) RedisClientConfig() (cache.RedisConfig, bool) {
	address := strings.TrimSpace(c.Redis.Address)
	if !c.Redis.Enabled || address == "" {
		return cache.RedisConfig{}, false
	}

	timeout := c.Redis.Timeout
	if timeout <= 0 {
		timeout = defaultRedisTimeout
	}
	return cache.RedisConfig{
		Address:  address,
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  timeout,
	}, true
}
