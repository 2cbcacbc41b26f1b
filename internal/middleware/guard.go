package middleware

import (
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/models"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/metrics"
	"github.com/campusfix/campusfix/pkg/response"
)

// DefaultLoginPath is where browser callers are sent when they are not signed in.
const DefaultLoginPath = "/login"

const forbiddenPage = `<!DOCTYPE html>
<html><head><title>403 Forbidden</title></head>
<body><h1>403 Forbidden</h1><p>You do not have permission to access this page.</p></body></html>`

// GuardConfig controls how rejected browser requests are answered.
type GuardConfig struct {
	LoginPath string
}

// IsAPIRequest reports whether the caller expects JSON rather than a page.
func IsAPIRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	contentType := r.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.EqualFold(strings.TrimSpace(contentType), "application/json")
}

// RequireRoles admits superusers and users holding one of roles.
func RequireRoles(cfg GuardConfig, roles ...models.Role) gin.HandlerFunc {
	return guard(cfg, func(user *models.User) bool {
		return slices.Contains(roles, user.Role)
	})
}

// RequireAuthenticated admits any signed-in user.
func RequireAuthenticated(cfg GuardConfig) gin.HandlerFunc {
	return guard(cfg, func(*models.User) bool { return true })
}

// RequireSuperuser admits superusers only.
func RequireSuperuser(cfg GuardConfig) gin.HandlerFunc {
	return guard(cfg, func(*models.User) bool { return false })
}

func guard(cfg GuardConfig, admit func(*models.User) bool) gin.HandlerFunc {
	loginPath := cfg.LoginPath
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			metrics.AccessDecisions.WithLabelValues("unauthenticated").Inc()
			if IsAPIRequest(c.Request) {
				c.Header("WWW-Authenticate", "Bearer")
				response.Error(c, apperrors.ErrUnauthorized)
				c.Abort()
				return
			}
			target := loginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}

		if user.IsSuperuser || admit(user) {
			metrics.AccessDecisions.WithLabelValues("allow").Inc()
			c.Next()
			return
		}

		metrics.AccessDecisions.WithLabelValues("forbidden").Inc()
		if IsAPIRequest(c.Request) {
			response.Error(c, apperrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Data(http.StatusForbidden, "text/html; charset=utf-8", []byte(forbiddenPage))
		c.Abort()
	}
}
