package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/notifications"
)

func TestNotificationServiceCreateAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := createUser(t, db, "STU001", models.RoleStudent)
	other := createUser(t, db, "STU002", models.RoleStudent)

	svc, err := NewNotificationService(db, notifications.NewHub())
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{
		UserID:      user.ID,
		Type:        models.NotificationComplaintStatus,
		Title:       "Complaint C001 updated",
		Message:     "Your complaint is now In Progress.",
		ReferenceID: "C001",
		Metadata:    map[string]any{"new_status": "in-progress"},
	})
	require.NoError(t, err)
	require.Equal(t, "C001", dto.ReferenceID)
	require.Equal(t, "in-progress", dto.Metadata["new_status"])

	_, err = svc.Create(ctx, CreateNotificationInput{UserID: other.ID, Type: models.NotificationApplicationStatus, Title: "Other"})
	require.NoError(t, err)

	items, total, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	require.Equal(t, dto.ID, items[0].ID)
	require.False(t, items[0].IsRead)

	_, err = svc.Create(ctx, CreateNotificationInput{Type: models.NotificationComplaintStatus})
	require.Error(t, err)
}

func TestNotificationServiceMarkRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := createUser(t, db, "STU001", models.RoleStudent)
	other := createUser(t, db, "STU002", models.RoleStudent)

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	ctx := context.Background()
	dto, err := svc.Create(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationApplicationVerified, Title: "Verified"})
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, other.ID, dto.ID)
	requireAppError(t, err, ErrNotificationNotFound)

	read, err := svc.MarkRead(ctx, user.ID, dto.ID)
	require.NoError(t, err)
	require.True(t, read.IsRead)
	require.NotNil(t, read.ReadAt)

	unread, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestNotificationServiceMarkAllReadAndPurge(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	user := createUser(t, db, "STU001", models.RoleStudent)

	svc, err := NewNotificationService(db, notifications.NewHub())
	require.NoError(t, err)
	clock := newTestClock()
	svc.now = clock.Now

	ctx := context.Background()
	for _, title := range []string{"First", "Second", "Third"} {
		_, err := svc.Create(ctx, CreateNotificationInput{UserID: user.ID, Type: models.NotificationComplaintStatus, Title: title})
		require.NoError(t, err)
	}

	unreadItems, total, err := svc.ListForUser(ctx, ListNotificationsInput{UserID: user.ID, UnreadOnly: true})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, unreadItems, 3)

	updated, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)

	unread, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, unread)

	clock.Advance(48 * time.Hour)
	purged, err := svc.PurgeRead(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 3, purged)

	_, err = svc.PurgeRead(ctx, 0)
	require.Error(t, err)
}
