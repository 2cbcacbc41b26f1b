package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/crypto"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/metrics"
)

// DefaultRefreshTokenTTL is the fallback refresh token lifetime.
const DefaultRefreshTokenTTL = 7 * 24 * time.Hour

// SessionConfig describes tunable behaviour for the SessionService.
type SessionConfig struct {
	RefreshTokenTTL time.Duration
	RefreshLength   int
	Clock           func() time.Time
	Cache           SessionCache
}

// SessionMetadata captures contextual information about the client.
type SessionMetadata struct {
	IPAddress string
	UserAgent string
}

// TokenPair represents an access token and refresh token pair.
type TokenPair struct {
	AccessToken     string    `json:"access_token"`
	RefreshToken    string    `json:"refresh_token"`
	AccessExpiresAt time.Time `json:"access_expires_at"`
}

var (
	// ErrSessionNotFound indicates that no session matches the provided token or identifier.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrSessionRevoked marks a session that has been revoked (logout).
	ErrSessionRevoked = errors.New("session: revoked")
	// ErrSessionExpired signals that a refresh token has reached its expiry.
	ErrSessionExpired = errors.New("session: expired")
	// ErrSessionInvalidToken is returned when the supplied refresh token is malformed.
	ErrSessionInvalidToken = errors.New("session: invalid token")
)

var errSessionCacheMiss = errors.New("session cache miss")

// SessionCache caches sessions keyed by the refresh token digest.
type SessionCache interface {
	Get(ctx context.Context, tokenHash string) (*models.Session, error)
	Set(ctx context.Context, session *models.Session, ttl time.Duration) error
	Delete(ctx context.Context, tokenHash string) error
}

// SessionService manages creation, rotation, and revocation of login sessions.
type SessionService struct {
	db         *gorm.DB
	jwt        *JWTService
	refreshTTL time.Duration
	tokenLen   int
	now        func() time.Time
	cache      SessionCache
	log        *zap.Logger
}

// NewSessionService constructs a session manager backed by the provided database and JWT service.
func NewSessionService(db *gorm.DB, jwtService *JWTService, cfg SessionConfig) (*SessionService, error) {
	if db == nil {
		return nil, errors.New("session service: db is required")
	}
	if jwtService == nil {
		return nil, errors.New("session service: jwt service is required")
	}

	ttl := cfg.RefreshTokenTTL
	if ttl <= 0 {
		ttl = DefaultRefreshTokenTTL
	}
	length := cfg.RefreshLength
	if length <= 0 {
		length = 48
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &SessionService{
		db:         db,
		jwt:        jwtService,
		refreshTTL: ttl,
		tokenLen:   length,
		now:        clock,
		cache:      cfg.Cache,
		log:        logger.WithModule("sessions"),
	}, nil
}

// CreateSession opens a session for user and issues a fresh token pair.
func (s *SessionService) CreateSession(ctx context.Context, user *models.User, meta SessionMetadata) (TokenPair, *models.Session, error) {
	if user == nil || strings.TrimSpace(user.ID) == "" {
		return TokenPair{}, nil, errors.New("session service: user is required")
	}

	refreshToken, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	now := s.now()
	session := &models.Session{
		UserID:           user.ID,
		RefreshTokenHash: crypto.HashToken(refreshToken),
		IPAddress:        strings.TrimSpace(meta.IPAddress),
		UserAgent:        strings.TrimSpace(meta.UserAgent),
		ExpiresAt:        now.Add(s.refreshTTL),
		LastUsedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: create session: %w", err)
	}
	metrics.ActiveSessions.Inc()

	pair, err := s.issue(user, session, refreshToken)
	if err != nil {
		return TokenPair{}, nil, err
	}
	s.cacheSet(ctx, session)
	return pair, session, nil
}

// RefreshSession rotates the refresh token and issues a new access token.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string) (TokenPair, *models.Session, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, nil, ErrSessionInvalidToken
	}
	oldHash := crypto.HashToken(refreshToken)

	session, err := s.lookup(ctx, oldHash)
	if err != nil {
		return TokenPair{}, nil, err
	}

	now := s.now()
	if session.RevokedAt != nil {
		return TokenPair{}, nil, ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		return TokenPair{}, nil, ErrSessionExpired
	}

	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, "id = ?", session.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenPair{}, nil, ErrSessionNotFound
		}
		return TokenPair{}, nil, fmt.Errorf("session service: load user: %w", err)
	}
	if !user.IsActive {
		return TokenPair{}, nil, ErrSessionRevoked
	}

	newRefresh, err := crypto.GenerateToken(s.tokenLen)
	if err != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: generate refresh token: %w", err)
	}

	session.RefreshTokenHash = crypto.HashToken(newRefresh)
	session.ExpiresAt = now.Add(s.refreshTTL)
	session.LastUsedAt = now
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND refresh_token_hash = ? AND revoked_at IS NULL", session.ID, oldHash).
		Updates(map[string]any{
			"refresh_token_hash": session.RefreshTokenHash,
			"expires_at":         session.ExpiresAt,
			"last_used_at":       now,
		})
	if res.Error != nil {
		return TokenPair{}, nil, fmt.Errorf("session service: update session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Lost a race with another refresh or a logout.
		return TokenPair{}, nil, ErrSessionNotFound
	}

	pair, err := s.issue(&user, session, newRefresh)
	if err != nil {
		return TokenPair{}, nil, err
	}
	s.cacheDelete(ctx, oldHash)
	s.cacheSet(ctx, session)
	return pair, session, nil
}

// ValidateSession reports whether sessionID is still usable. Access tokens
// minted for a revoked session stop working immediately.
func (s *SessionService) ValidateSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionInvalidToken
	}
	var session models.Session
	err := s.db.WithContext(ctx).Select("id", "revoked_at", "expires_at").Take(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("session service: load session: %w", err)
	}
	if session.RevokedAt != nil {
		return ErrSessionRevoked
	}
	if !s.now().Before(session.ExpiresAt) {
		return ErrSessionExpired
	}
	return nil
}

// RevokeSession marks a session as revoked, preventing further use.
func (s *SessionService) RevokeSession(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrSessionInvalidToken
	}

	var session models.Session
	err := s.db.WithContext(ctx).Select("id", "refresh_token_hash").Take(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return fmt.Errorf("session service: load session: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND revoked_at IS NULL", sessionID).
		Update("revoked_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("session service: revoke session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionRevoked
	}

	s.cacheDelete(ctx, session.RefreshTokenHash)
	metrics.ActiveSessions.Sub(float64(res.RowsAffected))
	return nil
}

// RevokeUserSessions revokes every active session belonging to a user.
func (s *SessionService) RevokeUserSessions(ctx context.Context, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrSessionInvalidToken
	}

	var hashes []string
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Pluck("refresh_token_hash", &hashes).Error; err != nil {
		return fmt.Errorf("session service: list sessions: %w", err)
	}

	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", s.now())
	if res.Error != nil {
		return fmt.Errorf("session service: revoke sessions: %w", res.Error)
	}
	for _, hash := range hashes {
		s.cacheDelete(ctx, hash)
	}
	if res.RowsAffected > 0 {
		metrics.ActiveSessions.Sub(float64(res.RowsAffected))
	}
	return nil
}

// CleanupExpired removes expired and revoked sessions.
func (s *SessionService) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now()

	var activeExpired int64
	if err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("expires_at < ? AND revoked_at IS NULL", now).
		Count(&activeExpired).Error; err != nil {
		return 0, fmt.Errorf("session service: count expired sessions: %w", err)
	}

	var hashes []string
	if s.cache != nil {
		if err := s.db.WithContext(ctx).Model(&models.Session{}).
			Where("expires_at < ? OR revoked_at IS NOT NULL", now).
			Pluck("refresh_token_hash", &hashes).Error; err != nil {
			return 0, fmt.Errorf("session service: list expired sessions: %w", err)
		}
	}

	res := s.db.WithContext(ctx).Where("expires_at < ? OR revoked_at IS NOT NULL", now).Delete(&models.Session{})
	if res.Error != nil {
		return 0, fmt.Errorf("session service: cleanup expired sessions: %w", res.Error)
	}
	for _, hash := range hashes {
		s.cacheDelete(ctx, hash)
	}
	if activeExpired > 0 {
		metrics.ActiveSessions.Sub(float64(activeExpired))
	}
	return res.RowsAffected, nil
}

func (s *SessionService) issue(user *models.User, session *models.Session, refreshToken string) (TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(AccessTokenInput{
		UserID:    user.ID,
		SessionID: session.ID,
		Role:      string(user.Role),
	})
	if err != nil {
		return TokenPair{}, fmt.Errorf("session service: generate access token: %w", err)
	}
	return TokenPair{
		AccessToken:     access,
		RefreshToken:    refreshToken,
		AccessExpiresAt: s.now().Add(s.jwt.TTL()),
	}, nil
}

func (s *SessionService) lookup(ctx context.Context, tokenHash string) (*models.Session, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, tokenHash)
		switch {
		case err == nil && cached != nil:
			return cached, nil
		case err != nil && !errors.Is(err, errSessionCacheMiss):
			s.log.Warn("session cache read failed", zap.Error(err))
		}
	}

	var session models.Session
	err := s.db.WithContext(ctx).Where("refresh_token_hash = ?", tokenHash).Take(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session service: find session: %w", err)
	}
	s.cacheSet(ctx, &session)
	return &session, nil
}

func (s *SessionService) cacheSet(ctx context.Context, session *models.Session) {
	if s.cache == nil {
		return
	}
	ttl := session.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return
	}
	if err := s.cache.Set(ctx, session, ttl); err != nil {
		s.log.Warn("session cache write failed", zap.Error(err))
	}
}

func (s *SessionService) cacheDelete(ctx context.Context, tokenHash string) {
	if s.cache == nil || tokenHash == "" {
		return
	}
	if err := s.cache.Delete(ctx, tokenHash); err != nil {
		s.log.Warn("session cache delete failed", zap.Error(err))
	}
}
