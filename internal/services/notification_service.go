package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/pkg/metrics"
)

// NotificationDTO represents the API-friendly notification payload.
type NotificationDTO struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ReferenceID string         `json:"reference_id,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   time.Time      `json:"created_at"`
	ReadAt      *time.Time     `json:"read_at,omitempty"`
}

// CreateNotificationInput defines attributes required to persist a notification.
type CreateNotificationInput struct {
	UserID      string
	Type        string
	Title       string
	Message     string
	ReferenceID string
	Metadata    map[string]any
}

// ListNotificationsInput defines filters for querying user notifications.
type ListNotificationsInput struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationService manages user in-app notifications.
type NotificationService struct {
	db  *gorm.DB
	hub *notifications.Hub
	now func() time.Time
}

// NewNotificationService constructs a NotificationService. hub may be nil.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{db: db, hub: hub, now: time.Now}, nil
}

// Create stores a notification and pushes it to the owner's live connections.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("notification service: user id is required")
	}
	notificationType := strings.TrimSpace(input.Type)
	if notificationType == "" {
		return nil, errors.New("notification service: type is required")
	}

	metadata, err := encodeJSON(input.Metadata)
	if err != nil {
		return nil, fmt.Errorf("notification service: marshal metadata: %w", err)
	}

	notification := models.Notification{
		UserID:      userID,
		Type:        notificationType,
		Title:       strings.TrimSpace(input.Title),
		Message:     strings.TrimSpace(input.Message),
		ReferenceID: strings.TrimSpace(input.ReferenceID),
		Metadata:    metadata,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}
	metrics.NotificationsCreated.WithLabelValues(notificationType).Inc()

	dto := mapNotification(notification)
	s.hub.Publish(userID, notifications.Message{Event: notifications.EventCreated, Data: dto})
	return &dto, nil
}

// ListForUser returns notifications for the supplied user, newest first.
func (s *NotificationService) ListForUser(ctx context.Context, input ListNotificationsInput) ([]NotificationDTO, int64, error) {
	ctx = ensureContext(ctx)
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, 0, errors.New("notification service: user id is required")
	}

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)
	if input.UnreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var rows []models.Notification
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(max(0, input.Offset)).
		Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	return mapNotificationRows(rows), total, nil
}

// UnreadCount counts the user's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: count unread: %w", err)
	}
	return count, nil
}

// MarkRead sets the read flag on one of the user's notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) (*NotificationDTO, error) {
	ctx = ensureContext(ctx)
	var notification models.Notification
	if err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("notification service: load notification: %w", err)
	}

	if !notification.IsRead {
		now := s.now().UTC()
		if err := s.db.WithContext(ctx).Model(&notification).
			Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
			return nil, fmt.Errorf("notification service: mark read: %w", err)
		}
		notification.IsRead = true
		notification.ReadAt = &now
	}

	dto := mapNotification(notification)
	s.hub.Publish(userID, notifications.Message{Event: notifications.EventRead, Data: dto})
	return &dto, nil
}

// MarkAllRead marks all notifications for the user as read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": s.now().UTC()})
	if res.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", res.Error)
	}

	s.hub.Publish(userID, notifications.Message{Event: notifications.EventReadAll})
	return res.RowsAffected, nil
}

// PurgeRead deletes notifications that were read more than olderThan ago.
func (s *NotificationService) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	ctx = ensureContext(ctx)
	if olderThan <= 0 {
		return 0, errors.New("notification service: retention must be positive")
	}
	res := s.db.WithContext(ctx).
		Where("is_read = ? AND read_at < ?", true, s.now().UTC().Add(-olderThan)).
		Delete(&models.Notification{})
	if res.Error != nil {
		return 0, fmt.Errorf("notification service: purge read: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func mapNotificationRows(rows []models.Notification) []NotificationDTO {
	items := make([]NotificationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapNotification(row))
	}
	return items
}

func mapNotification(row models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:          row.ID,
		Type:        row.Type,
		Title:       row.Title,
		Message:     row.Message,
		ReferenceID: row.ReferenceID,
		Metadata:    decodeJSON(row.Metadata),
		IsRead:      row.IsRead,
		CreatedAt:   row.CreatedAt,
		ReadAt:      row.ReadAt,
	}
}
