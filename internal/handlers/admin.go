package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/security"
	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/response"
)

// AdminHandler serves superuser-only maintenance endpoints.
type AdminHandler struct {
	users   *services.UserService
	audit   *services.AuditService
	posture *security.Auditor
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(users *services.UserService, audit *services.AuditService, posture *security.Auditor) *AdminHandler {
	return &AdminHandler{users: users, audit: audit, posture: posture}
}

// DELETE /api/admin/users/:id removes an account and everything it owns.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	if err := h.users.Delete(requestContext(c), actor, id); err != nil {
		fail(c, err, "admin", "delete_user", "An error occurred while deleting the user.")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "User deleted successfully.", gin.H{"id": id})
}

// GET /api/admin/audit lists audit entries, newest first.
func (h *AdminHandler) Audit(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}

	page, perPage := services.AuditPageBounds(parseIntQuery(c, "page", 1), parseIntQuery(c, "per_page", 50))
	filters := services.AuditFilters{
		UserID:    strings.TrimSpace(c.Query("user_id")),
		CollegeID: strings.TrimSpace(c.Query("college_id")),
		Action:    strings.TrimSpace(c.Query("action")),
		Result:    strings.TrimSpace(c.Query("result")),
		Resource:  strings.TrimSpace(c.Query("resource")),
	}
	if since, err := time.Parse(time.RFC3339, c.Query("since")); err == nil {
		filters.Since = &since
	}
	if until, err := time.Parse(time.RFC3339, c.Query("until")); err == nil {
		filters.Until = &until
	}

	logs, total, err := h.audit.List(requestContext(c), services.AuditListOptions{Page: page, PageSize: perPage, Filters: filters})
	if err != nil {
		fail(c, err, "admin", "audit", "An error occurred while loading the audit log.")
		return
	}

	response.Paginated(c, logs, page, perPage, total)
}

// GET /api/admin/security reports the deployment's security posture.
func (h *AdminHandler) Security(c *gin.Context) {
	if _, ok := principal(c); !ok {
		return
	}
	response.Success(c, http.StatusOK, h.posture.Run(requestContext(c)))
}
