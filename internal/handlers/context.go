package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/auditctx"
	"github.com/campusfix/campusfix/internal/middleware"
	"github.com/campusfix/campusfix/internal/models"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/response"
)

// requestContext returns the request context tagged with the caller's origin
// for audit entries, with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return auditctx.WithOrigin(c.Request.Context(), auditctx.Origin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	})
}

// principal returns the authenticated user or writes a 401.
func principal(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, apperrors.ErrUnauthorized)
		return nil, false
	}
	return user, true
}
