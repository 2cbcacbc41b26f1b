package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/response"
)

const applicationsModule = "applications"

// ApplicationHandler exposes the application lifecycle, including intake
// verification, over HTTP.
type ApplicationHandler struct {
	service *services.ApplicationService
}

// NewApplicationHandler constructs an application handler.
func NewApplicationHandler(service *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

type applicationRef struct {
	ApplicationID string `json:"application_id"`
}

type applicationStatusRequest struct {
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
}

// POST /api/applications/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req services.SubmitApplicationInput
	if !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.Submit(requestContext(c), actor, req)
	if err != nil {
		fail(c, err, applicationsModule, "submit", "An error occurred while submitting your application.")
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Application submitted successfully!", gin.H{
		"application_id": dto.ID,
		"status":         dto.Raw.Status,
	})
}

// GET /api/applications/my
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(requestContext(c), actor)
	if err != nil {
		fail(c, err, applicationsModule, "list_mine", "An error occurred while loading your applications.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"applications": items})
}

// GET /api/applications/all
func (h *ApplicationHandler) ListDepartment(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	listing, err := h.service.ListByDepartment(requestContext(c), actor)
	if err != nil {
		fail(c, err, applicationsModule, "list_department", "An error occurred while loading applications.")
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// GET /api/applications/intake
func (h *ApplicationHandler) ListIntake(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	listing, err := h.service.ListIntake(requestContext(c), actor)
	if err != nil {
		fail(c, err, applicationsModule, "list_intake", "An error occurred while loading applications.")
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// GET /api/applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	dto, err := h.service.Get(requestContext(c), actor, c.Param("id"))
	if err != nil {
		fail(c, err, applicationsModule, "get", "An error occurred while retrieving application details.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"application": dto})
}

// POST /api/applications/verify
func (h *ApplicationHandler) Verify(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req applicationRef
	if !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.Verify(requestContext(c), actor, req.ApplicationID)
	if err != nil {
		fail(c, err, applicationsModule, "verify", "An error occurred while verifying the application.")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Application verified successfully.", gin.H{
		"application_id": dto.ID,
		"verified":       dto.Verified,
	})
}

// POST /api/applications/update-status
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req applicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.UpdateStatus(requestContext(c), actor, req.ApplicationID, req.Status)
	if err != nil {
		fail(c, err, applicationsModule, "update_status", "An error occurred while updating the application status.")
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Application status updated successfully.", gin.H{
		"application_id": change.TicketID,
		"new_status":     change.NewStatus,
	})
}

// POST /api/applications/delete
func (h *ApplicationHandler) Delete(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req applicationRef
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.service.Delete(requestContext(c), actor, req.ApplicationID)
	if err != nil {
		fail(c, err, applicationsModule, "delete", "An error occurred while deleting the application.")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Application deleted successfully.", gin.H{"application_id": id})
}
