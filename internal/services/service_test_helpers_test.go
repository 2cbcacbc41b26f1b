package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/database/testutil"
	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/notifications"
	"github.com/campusfix/campusfix/pkg/crypto"
)

type testClock struct {
	current time.Time
}

func newTestClock() *testClock {
	return &testClock{current: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time { return c.current }

func (c *testClock) Advance(d time.Duration) { c.current = c.current.Add(d) }

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func eventOfType(eventType, ticketID string) any {
	return mock.MatchedBy(func(ev events.Event) bool {
		return ev.Type == eventType && ev.TicketID == ticketID
	})
}

type userOption func(*models.User)

func superuser() userOption {
	return func(u *models.User) { u.IsSuperuser = true }
}

func createUser(t *testing.T, db *gorm.DB, collegeID string, role models.Role, opts ...userOption) *models.User {
	t.Helper()
	hash, err := crypto.HashPassword("password123")
	require.NoError(t, err)
	user := &models.User{
		CollegeID:    collegeID,
		Email:        collegeID + "@amu.ac.in",
		PasswordHash: hash,
		FirstName:    "First",
		LastName:     collegeID,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

type ticketFixture struct {
	db           *gorm.DB
	clock        *testClock
	publisher    *mockPublisher
	audit        *AuditService
	notes        *NotificationService
	users        *UserService
	complaints   *ComplaintService
	applications *ApplicationService
}

func newTicketFixture(t *testing.T, strict bool) *ticketFixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	clock := newTestClock()

	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	audit, err := NewAuditService(db)
	require.NoError(t, err)
	notes, err := NewNotificationService(db, notifications.NewHub())
	require.NoError(t, err)
	users, err := NewUserService(db, audit, UserConfig{Clock: clock.Now})
	require.NoError(t, err)

	opts := TicketOptions{
		Policy:        TransitionPolicy{Strict: strict},
		Notifications: notes,
		Events:        publisher,
		Audit:         audit,
		Clock:         clock.Now,
	}
	complaints, err := NewComplaintService(db, opts)
	require.NoError(t, err)
	applications, err := NewApplicationService(db, opts)
	require.NoError(t, err)

	return &ticketFixture{
		db:           db,
		clock:        clock,
		publisher:    publisher,
		audit:        audit,
		notes:        notes,
		users:        users,
		complaints:   complaints,
		applications: applications,
	}
}

func validComplaint() SubmitComplaintInput {
	return SubmitComplaintInput{
		Title:       "Broken ceiling fan",
		Description: "The fan in room 12 stopped working.",
		Category:    "infrastructure",
		Hall:        "aftab",
		Priority:    "high",
	}
}

func validApplication(dept models.Department) SubmitApplicationInput {
	return SubmitApplicationInput{
		Title:           "Leave request",
		Description:     "Family function next week.",
		ApplicationType: "leave",
		Department:      string(dept),
	}
}
