package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/campusfix/campusfix/internal/cache"
	"github.com/campusfix/campusfix/internal/models"
)

const sessionCacheNamespace = "session:refresh"

// NewStoreSessionCache wraps a cache.Store (redis or database) as a SessionCache.
func NewStoreSessionCache(store cache.Store) SessionCache {
	if store == nil {
		return nil
	}
	return &storeSessionCache{store: store}
}

type storeSessionCache struct {
	store cache.Store
}

// cachedSession keeps the digest in the payload; models.Session hides it from JSON.
type cachedSession struct {
	models.Session
	TokenHash string `json:"token_hash"`
}

func (c *storeSessionCache) Get(ctx context.Context, tokenHash string) (*models.Session, error) {
	key := sessionCacheKey(tokenHash)
	if key == "" {
		return nil, errSessionCacheMiss
	}

	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errSessionCacheMiss
	}

	var payload cachedSession
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("session cache: decode: %w", err)
	}
	session := payload.Session
	session.RefreshTokenHash = payload.TokenHash
	return &session, nil
}

func (c *storeSessionCache) Set(ctx context.Context, session *models.Session, ttl time.Duration) error {
	if session == nil {
		return errors.New("session cache: session is nil")
	}
	key := sessionCacheKey(session.RefreshTokenHash)
	if key == "" {
		return errors.New("session cache: refresh token hash missing")
	}

	payload, err := json.Marshal(cachedSession{Session: *session, TokenHash: session.RefreshTokenHash})
	if err != nil {
		return fmt.Errorf("session cache: marshal: %w", err)
	}
	if ttl <= 0 {
		ttl = time.Second
	}
	return c.store.Set(ctx, key, payload, ttl)
}

func (c *storeSessionCache) Delete(ctx context.Context, tokenHash string) error {
	key := sessionCacheKey(tokenHash)
	if key == "" {
		return nil
	}
	return c.store.Delete(ctx, key)
}

func sessionCacheKey(tokenHash string) string {
	hash := strings.TrimSpace(tokenHash)
	if hash == "" {
		return ""
	}
	return cache.Key(sessionCacheNamespace, hash)
}
