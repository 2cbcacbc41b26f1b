package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
)

func TestDashboardPerRole(t *testing.T) {
	f := newTicketFixture(t, true)
	ctx := context.Background()

	student := createUser(t, f.db, "STU001", models.RoleStudent)
	staff := createUser(t, f.db, "STF001", models.RoleStaff)
	dsw := createUser(t, f.db, "DSW001", models.RoleDSW)
	admin := createUser(t, f.db, "ADM001", models.RoleStaff, superuser())

	complaint, err := f.complaints.Submit(ctx, student, validComplaint())
	require.NoError(t, err)
	_, err = f.complaints.Submit(ctx, student, validComplaint())
	require.NoError(t, err)
	_, err = f.complaints.UpdateStatus(ctx, staff, complaint.ID, "in-progress")
	require.NoError(t, err)

	verified, err := f.applications.Submit(ctx, student, validApplication(models.DepartmentDSW))
	require.NoError(t, err)
	_, err = f.applications.Submit(ctx, student, validApplication(models.DepartmentDSW))
	require.NoError(t, err)
	_, err = f.applications.Verify(ctx, staff, verified.ID)
	require.NoError(t, err)

	svc, err := NewDashboardService(f.users, f.complaints, f.applications, f.notes, 0)
	require.NoError(t, err)

	board, err := svc.For(ctx, student)
	require.NoError(t, err)
	require.Equal(t, permissions.DashboardStudent, board.Route)
	require.EqualValues(t, 1, board.Complaints["pending"])
	require.EqualValues(t, 1, board.Complaints["in-progress"])
	require.EqualValues(t, 2, board.Applications["pending"])
	require.EqualValues(t, 2, board.UnreadCount)
	require.Len(t, board.Notifications, 2)
	require.Nil(t, board.Intake)

	board, err = svc.For(ctx, staff)
	require.NoError(t, err)
	require.Equal(t, permissions.DashboardStaff, board.Route)
	require.Equal(t, "staff", board.Department)
	require.EqualValues(t, 1, board.Complaints["pending"])
	require.NotNil(t, board.Intake)
	require.EqualValues(t, 1, *board.Intake)

	board, err = svc.For(ctx, dsw)
	require.NoError(t, err)
	require.Equal(t, permissions.DashboardDSW, board.Route)
	require.EqualValues(t, 1, board.Applications["pending"])
	require.Zero(t, board.Complaints["pending"])

	board, err = svc.For(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, permissions.DashboardAdmin, board.Route)
	require.EqualValues(t, 2, board.Applications["pending"])
	require.EqualValues(t, 1, board.Users[models.RoleStudent])
	require.EqualValues(t, 2, board.Users[models.RoleStaff])

	_, err = svc.For(ctx, nil)
	require.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestDashboardLimitsNotifications(t *testing.T) {
	f := newTicketFixture(t, true)
	ctx := context.Background()
	student := createUser(t, f.db, "STU001", models.RoleStudent)

	for range 4 {
		_, err := f.notes.Create(ctx, CreateNotificationInput{UserID: student.ID, Type: models.NotificationComplaintStatus, Title: "Update"})
		require.NoError(t, err)
	}

	svc, err := NewDashboardService(f.users, f.complaints, f.applications, f.notes, 3)
	require.NoError(t, err)
	board, err := svc.For(ctx, student)
	require.NoError(t, err)
	require.Len(t, board.Notifications, 3)
	require.EqualValues(t, 4, board.UnreadCount)

	_, err = NewDashboardService(nil, f.complaints, f.applications, nil, 0)
	require.Error(t, err)
}
