package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/services"
	"github.com/campusfix/campusfix/pkg/response"
)

const complaintsModule = "complaints"

// ComplaintHandler exposes the complaint lifecycle over HTTP.
type ComplaintHandler struct {
	service *services.ComplaintService
}

// NewComplaintHandler constructs a complaint handler.
func NewComplaintHandler(service *services.ComplaintService) *ComplaintHandler {
	return &ComplaintHandler{service: service}
}

type complaintRef struct {
	ComplaintID string `json:"complaint_id"`
}

type complaintStatusRequest struct {
	ComplaintID string `json:"complaint_id"`
	Status      string `json:"status"`
}

// POST /api/complaints/submit
func (h *ComplaintHandler) Submit(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req services.SubmitComplaintInput
	if !bindJSON(c, &req) {
		return
	}

	dto, err := h.service.Submit(requestContext(c), actor, req)
	if err != nil {
		fail(c, err, complaintsModule, "submit", "An error occurred while submitting your complaint.")
		return
	}

	response.SuccessWithMessage(c, http.StatusCreated, "Complaint submitted successfully!", gin.H{
		"complaint_id": dto.ID,
		"status":       dto.Raw.Status,
	})
}

// GET /api/complaints/my
func (h *ComplaintHandler) ListMine(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(requestContext(c), actor)
	if err != nil {
		fail(c, err, complaintsModule, "list_mine", "An error occurred while loading your complaints.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"complaints": items})
}

// GET /api/complaints/all
func (h *ComplaintHandler) ListDepartment(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	listing, err := h.service.ListByDepartment(requestContext(c), actor)
	if err != nil {
		fail(c, err, complaintsModule, "list_department", "An error occurred while loading complaints.")
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// GET /api/complaints/:id
func (h *ComplaintHandler) Get(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	dto, err := h.service.Get(requestContext(c), actor, c.Param("id"))
	if err != nil {
		fail(c, err, complaintsModule, "get", "An error occurred while retrieving complaint details.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"complaint": dto})
}

// POST /api/complaints/update-status
func (h *ComplaintHandler) UpdateStatus(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req complaintStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	change, err := h.service.UpdateStatus(requestContext(c), actor, req.ComplaintID, req.Status)
	if err != nil {
		fail(c, err, complaintsModule, "update_status", "An error occurred while updating the complaint status.")
		return
	}

	response.SuccessWithMessage(c, http.StatusOK, "Complaint status updated successfully.", gin.H{
		"complaint_id": change.TicketID,
		"new_status":   change.NewStatus,
	})
}

// POST /api/complaints/delete
func (h *ComplaintHandler) Delete(c *gin.Context) {
	actor, ok := principal(c)
	if !ok {
		return
	}
	var req complaintRef
	if !bindJSON(c, &req) {
		return
	}

	id, err := h.service.Delete(requestContext(c), actor, req.ComplaintID)
	if err != nil {
		fail(c, err, complaintsModule, "delete", "An error occurred while deleting the complaint.")
		return
	}
	response.SuccessWithMessage(c, http.StatusOK, "Complaint deleted successfully.", gin.H{"complaint_id": id})
}
