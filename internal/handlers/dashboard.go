package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/response"
)

// DashboardHandler renders role dashboards.
type DashboardHandler struct {
	service *services.DashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary serves GET /api/dashboard and every browser dashboard route; the
// route guard has already matched the caller's role.
func (h *DashboardHandler) Summary(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	board, err := h.service.For(requestContext(c), user)
	if err != nil {
		fail(c, err, "dashboard", "summary", "An error occurred while loading your dashboard.")
		return
	}
	response.Success(c, http.StatusOK, board)
}
