package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/internal/services"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/response"
)

const notificationsModule = "notifications"

// NotificationHandler exposes HTTP endpoints for notifications.
type NotificationHandler struct {
	service *services.NotificationService
	hub     *notifications.Hub
}

// NewNotificationHandler constructs a notification handler. hub may be nil,
// in which case the stream endpoint answers 404.
func NewNotificationHandler(service *services.NotificationService, hub *notifications.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

// List returns notifications for the current user.
func (h *NotificationHandler) List(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	limit := parseIntQuery(c, "limit", 25)
	offset := parseIntQuery(c, "offset", 0)

	items, total, err := h.service.ListForUser(requestContext(c), services.ListNotificationsInput{
		UserID:     user.ID,
		UnreadOnly: parseBoolQuery(c, "unread"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		fail(c, err, notificationsModule, "list", "An error occurred while loading notifications.")
		return
	}

	page := 1
	if limit > 0 {
		page = offset/limit + 1
	}
	response.Paginated(c, items, page, limit, total)
}

// UnreadCount returns the number of unread notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(requestContext(c), user.ID)
	if err != nil {
		fail(c, err, notificationsModule, "unread_count", "An error occurred while loading notifications.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one notification read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	dto, err := h.service.MarkRead(requestContext(c), user.ID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		fail(c, err, notificationsModule, "mark_read", "An error occurred while updating the notification.")
		return
	}
	response.Success(c, http.StatusOK, dto)
}

// MarkAllRead marks all notifications read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	user, ok := principal(c)
	if !ok {
		return
	}

	updated, err := h.service.MarkAllRead(requestContext(c), user.ID)
	if err != nil {
		fail(c, err, notificationsModule, "mark_all_read", "An error occurred while updating notifications.")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// Stream upgrades the connection to a WebSocket for notification streaming.
// The principal comes from the Authenticate middleware, which accepts an
// access_token query parameter on upgrade requests.
func (h *NotificationHandler) Stream(c *gin.Context) {
	if h.hub == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}
	user, ok := principal(c)
	if !ok {
		return
	}
	h.hub.Serve(user.ID, c.Writer, c.Request)
}
