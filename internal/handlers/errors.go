package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/response"
)

// fail answers err. Domain outcomes pass through unchanged; anything that
// would render as a 5xx is logged and replaced by the operation's generic
// message so internals never reach the client.
func fail(c *gin.Context, err error, module, operation, generic string) {
	if !apperrors.IsInternal(err) {
		response.Error(c, err)
		return
	}

	logger.WithOperation(module, operation).Error("request failed",
		zap.Error(err),
		zap.String("class", "internal"),
		zap.String("path", c.Request.URL.Path),
	)
	response.Error(c, apperrors.ErrInternalServer.WithMessage(generic))
}
