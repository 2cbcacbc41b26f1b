package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/auditctx"
	"github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/models"
)

func TestAuditServiceLogAndList(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	user := createUser(t, db, "STF001", models.RoleStaff)

	ctx := context.Background()
	require.NoError(t, svc.Log(ctx, AuditEntry{
		UserID:    &user.ID,
		CollegeID: user.CollegeID,
		Action:    "complaint.status",
		Resource:  "complaint:C001",
		Result:    AuditSuccess,
		Metadata:  map[string]any{"status": "resolved"},
	}))
	require.NoError(t, svc.Log(ctx, AuditEntry{
		CollegeID: "GHOST",
		Action:    "auth.login",
		Resource:  "session",
		Result:    AuditFailure,
	}))

	logs, total, err := svc.List(ctx, AuditListOptions{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, logs, 2)

	logs, total, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{UserID: user.ID}})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "complaint:C001", logs[0].Resource)

	var metadata map[string]any
	require.NoError(t, json.Unmarshal(logs[0].Metadata, &metadata))
	require.Equal(t, "resolved", metadata["status"])

	logs, _, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{Result: AuditFailure}})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Nil(t, logs[0].UserID)
}

func TestAuditServiceFillsOriginFromContext(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	ctx := auditctx.WithOrigin(context.Background(), auditctx.Origin{IPAddress: "10.1.2.3", UserAgent: "portal-test"})
	require.NoError(t, svc.Log(ctx, AuditEntry{Action: "complaint.submit", Result: AuditSuccess}))
	require.NoError(t, svc.Log(ctx, AuditEntry{Action: "auth.login", Result: AuditSuccess, IPAddress: "192.168.0.9"}))

	logs, _, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "complaint.submit"}})
	require.NoError(t, err)
	require.Equal(t, "10.1.2.3", logs[0].IPAddress)
	require.Equal(t, "portal-test", logs[0].UserAgent)

	logs, _, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "auth.login"}})
	require.NoError(t, err)
	require.Equal(t, "192.168.0.9", logs[0].IPAddress, "explicit values win")
	require.Equal(t, "portal-test", logs[0].UserAgent)
}

func TestAuditServicePrefixFilters(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	ctx := context.Background()

	for _, entry := range []AuditEntry{
		{Action: "complaint.submit", Resource: "complaint:C001", CollegeID: "STU001", Result: AuditSuccess},
		{Action: "complaint.update_status", Resource: "complaint:C001", CollegeID: "STF001", Result: AuditSuccess},
		{Action: "application.submit", Resource: "application:A001", CollegeID: "STU001", Result: AuditSuccess},
		{Action: "complaintXsubmit", Resource: "other", Result: AuditSuccess},
	} {
		require.NoError(t, svc.Log(ctx, entry))
	}

	_, total, err := svc.List(ctx, AuditListOptions{Filters: AuditFilters{Action: "complaint.*"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total, "the dot is literal")

	_, total, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{Resource: "application:*"}})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)

	_, total, err = svc.List(ctx, AuditListOptions{Filters: AuditFilters{CollegeID: "STU001", Action: "*"}})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
}

func TestAuditPageBounds(t *testing.T) {
	page, perPage := AuditPageBounds(0, 0)
	require.Equal(t, 1, page)
	require.Equal(t, 50, perPage)

	page, perPage = AuditPageBounds(3, 500)
	require.Equal(t, 3, page)
	require.Equal(t, 50, perPage)
}

func TestAuditServiceRejectsIncompleteEntries(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)

	require.Error(t, svc.Log(context.Background(), AuditEntry{Result: AuditSuccess}))
	require.Error(t, svc.Log(context.Background(), AuditEntry{Action: "auth.login"}))
}

func TestAuditServiceCleanupOlderThan(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewAuditService(db)
	require.NoError(t, err)
	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	require.NoError(t, db.Create(&models.AuditLog{Action: "old.action", Result: AuditSuccess, CreatedAt: now.AddDate(0, 0, -10)}).Error)
	require.NoError(t, db.Create(&models.AuditLog{Action: "new.action", Result: AuditSuccess, CreatedAt: now.AddDate(0, 0, -1)}).Error)

	rows, err := svc.CleanupOlderThan(context.Background(), 5)
	require.NoError(t, err)
	require.EqualValues(t, 1, rows)

	_, err = svc.CleanupOlderThan(context.Background(), 0)
	require.Error(t, err)
}
