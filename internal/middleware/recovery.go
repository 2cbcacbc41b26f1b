package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/response"
)

const errorPage = `<!DOCTYPE html>
<html><head><title>500 Server Error</title></head>
<body><h1>Something went wrong</h1><p>Please try again later.</p></body></html>`

// Recovery converts panics into a 500. API callers get the JSON envelope and
// browser callers a plain error page. The panic value is only logged.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []zap.Field{
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("error", r),
				zap.String("class", "internal"),
			}
			if user, ok := CurrentUser(c); ok {
				fields = append(fields, zap.String("college_id", user.CollegeID))
			}
			logger.WithModule("http").Error("panic", fields...)

			if IsAPIRequest(c.Request) {
				response.Error(c, apperrors.ErrInternalServer)
				c.Abort()
				return
			}
			c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorPage))
			c.Abort()
		}()
		c.Next()
	}
}

// NotFoundHandler returns a JSON 404 response for unknown routes.
func NotFoundHandler(c *gin.Context) {
	response.Error(c, apperrors.ErrNotFound.WithMessage(fmt.Sprintf("route %s not found", c.Request.URL.Path)))
}
