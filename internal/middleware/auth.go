package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	iauth "github.com/campusfix/campusfix/internal/auth"
	"github.com/campusfix/campusfix/internal/models"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
)

const (
	CtxClaimsKey    = "authClaims"
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
	CtxUserKey      = "currentUser"
)

// DefaultSessionCookie names the HttpOnly cookie carrying the access token for
// browser clients.
const DefaultSessionCookie = "campusfix_session"

// SessionValidator rejects access tokens whose session has been revoked or has expired.
type SessionValidator interface {
	ValidateSession(ctx context.Context, sessionID string) error
}

// UserLookup loads the principal named by a token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// AuthConfig wires Authenticate.
type AuthConfig struct {
	JWT        *iauth.JWTService
	Sessions   SessionValidator
	Users      UserLookup
	CookieName string
}

// Authenticate resolves the caller from a Bearer token, the session cookie or,
// for websocket upgrades, an access_token query parameter. It never rejects:
// anonymous requests continue without a principal and the route guards decide.
func Authenticate(cfg AuthConfig) gin.HandlerFunc {
	cookieName := cfg.CookieName
	if cookieName == "" {
		cookieName = DefaultSessionCookie
	}
	log := logger.WithModule("auth")

	return func(c *gin.Context) {
		token := extractToken(c, cookieName)
		if token == "" || cfg.JWT == nil {
			c.Next()
			return
		}

		claims, err := cfg.JWT.ValidateAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if cfg.Sessions != nil && claims.SessionID != "" {
			if err := cfg.Sessions.ValidateSession(ctx, claims.SessionID); err != nil {
				log.Debug("session rejected", zap.String("session_id", claims.SessionID), zap.Error(err))
				c.Next()
				return
			}
		}

		if cfg.Users != nil {
			user, err := cfg.Users.GetByID(ctx, claims.UserID)
			if err != nil {
				if apperrors.IsInternal(err) {
					log.Warn("load principal", zap.String("user_id", claims.UserID), zap.Error(err))
				}
				c.Next()
				return
			}
			if !user.IsActive {
				c.Next()
				return
			}
			c.Set(CtxUserKey, user)
		}

		c.Set(CtxClaimsKey, claims)
		c.Set(CtxUserIDKey, claims.UserID)
		if claims.SessionID != "" {
			c.Set(CtxSessionIDKey, claims.SessionID)
		}
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	if cookie, err := c.Cookie(cookieName); err == nil && cookie != "" {
		return cookie
	}
	if websocket.IsWebSocketUpgrade(c.Request) {
		return strings.TrimSpace(c.Query("access_token"))
	}
	return ""
}

// CurrentUser returns the authenticated principal, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}
