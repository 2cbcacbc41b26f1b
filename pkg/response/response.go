package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/campusfix/campusfix/pkg/errors"
)

// Response defines the base API payload.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Meta describes pagination metadata. Total is always present so an empty
// page reads as zero results.
type Meta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages,omitempty"`
}

// NewMeta derives page count from the total. A non-positive perPage yields a
// single page.
func NewMeta(page, perPage int, total int64) *Meta {
	if page < 1 {
		page = 1
	}
	pages := 0
	switch {
	case total == 0:
	case perPage <= 0:
		pages = 1
	default:
		pages = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Meta{Page: page, PerPage: perPage, Total: int(total), TotalPages: pages}
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMessage writes a JSON success response carrying a user-facing message.
func SuccessWithMessage(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// SuccessWithMeta writes a JSON success response including metadata.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *Meta) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Paginated writes a success response with metadata computed by NewMeta.
func Paginated(c *gin.Context, data interface{}, page, perPage int, total int64) {
	SuccessWithMeta(c, http.StatusOK, data, NewMeta(page, perPage, total))
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, Response{
		Success: false,
		Message: appErr.Message,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
			Fields:  appErr.Fields,
		},
	})
}
