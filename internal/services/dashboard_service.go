package services

import (
	"context"
	"errors"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
)

// DefaultDashboardNotifications caps the unread notifications shown to students.
const DefaultDashboardNotifications = 5

// Dashboard summarises what the caller's landing page shows.
type Dashboard struct {
	Route      string `json:"route"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`

	Notifications []NotificationDTO `json:"notifications,omitempty"`
	UnreadCount   int64             `json:"unread_count"`

	Complaints   map[string]int64 `json:"complaints"`
	Applications map[string]int64 `json:"applications"`
	Intake       *int64           `json:"intake_pending,omitempty"`

	Users map[models.Role]int64 `json:"users,omitempty"`
}

// DashboardService assembles role-specific dashboards.
type DashboardService struct {
	users        *UserService
	complaints   *ComplaintService
	applications *ApplicationService
	notes        *NotificationService
	limit        int
}

// NewDashboardService wires the dashboard. notes may be nil.
func NewDashboardService(users *UserService, complaints *ComplaintService, applications *ApplicationService, notes *NotificationService, limit int) (*DashboardService, error) {
	if users == nil || complaints == nil || applications == nil {
		return nil, errors.New("dashboard service: user, complaint and application services are required")
	}
	if limit <= 0 {
		limit = DefaultDashboardNotifications
	}
	return &DashboardService{users: users, complaints: complaints, applications: applications, notes: notes, limit: limit}, nil
}

// For builds actor's dashboard.
func (s *DashboardService) For(ctx context.Context, actor *models.User) (*Dashboard, error) {
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	board := &Dashboard{Route: permissions.DashboardFor(actor), Role: string(actor.Role)}
	if s.notes != nil {
		items, unread, err := s.notes.ListForUser(ctx, ListNotificationsInput{UserID: actor.ID, UnreadOnly: true, Limit: s.limit})
		if err != nil {
			return nil, err
		}
		board.Notifications = items
		board.UnreadCount = unread
	}

	var err error
	switch {
	case actor.IsSuperuser:
		all := permissions.QueueFilter{All: true}
		if board.Users, err = s.users.CountByRole(ctx); err != nil {
			return nil, err
		}
		if board.Complaints, err = s.complaints.CountByStatus(ctx, "", all); err != nil {
			return nil, err
		}
		if board.Applications, err = s.applications.CountByStatus(ctx, "", all, false); err != nil {
			return nil, err
		}
	case permissions.IsStaffRole(actor.Role):
		filter := permissions.QueueFor(actor)
		board.Department = string(filter.Department)
		if board.Complaints, err = s.complaints.CountByStatus(ctx, "", filter); err != nil {
			return nil, err
		}
		verifiedOnly := permissions.RequiresVerifiedApplications(actor.Role)
		if board.Applications, err = s.applications.CountByStatus(ctx, "", filter, verifiedOnly); err != nil {
			return nil, err
		}
		if actor.Role == models.RoleStaff {
			intake, err := s.applications.CountIntake(ctx)
			if err != nil {
				return nil, err
			}
			board.Intake = &intake
		}
	default:
		all := permissions.QueueFilter{All: true}
		if board.Complaints, err = s.complaints.CountByStatus(ctx, actor.ID, all); err != nil {
			return nil, err
		}
		if board.Applications, err = s.applications.CountByStatus(ctx, actor.ID, all, false); err != nil {
			return nil, err
		}
	}
	return board, nil
}
