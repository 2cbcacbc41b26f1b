package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/response"
	appValidator "github.com/campusfix/campusfix/pkg/validator"
)

// bindJSON decodes the JSON payload into dest. Malformed bodies are answered
// with 400 and false is returned.
func bindJSON[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest("Invalid JSON payload."))
		return false
	}
	return true
}

// bindAndValidate binds the JSON payload into dest and runs struct validation rules.
// Field failures are reported in error.fields.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if !bindJSON(c, dest) {
		return false
	}

	if err := appValidator.ValidateStruct(dest); err != nil {
		var verrs appValidator.ValidationErrors
		if errors.As(err, &verrs) {
			response.Error(c, apperrors.NewValidation(verrs.Fields()))
			return false
		}
		response.Error(c, apperrors.NewBadRequest("Invalid request payload."))
		return false
	}

	return true
}

func parseIntQuery(c *gin.Context, key string, fallback int) int {
	value := strings.TrimSpace(c.Query(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBoolQuery(c *gin.Context, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(c.Query(key)))
	return err == nil && parsed
}
