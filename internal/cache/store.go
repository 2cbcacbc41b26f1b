package cache

import (
	"context"
	"strings"
	"time"
)

// Store is the shared key/value cache used for refresh-session lookups and
// rate-limit counters.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Key joins namespace parts with ':' and drops empty segments.
func Key(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.Trim(strings.TrimSpace(part), ":")
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ":")
}
