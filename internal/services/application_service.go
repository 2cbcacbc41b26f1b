package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/internal/permissions"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/metrics"
)

const applicationKind = "application"

// SubmitApplicationInput is the application form.
type SubmitApplicationInput struct {
	Title           string `json:"title" validate:"required,max=200"`
	Description     string `json:"description" validate:"required"`
	ApplicationType string `json:"application_type" validate:"required,oneof=leave hostel scholarship certificate examination other"`
	Department      string `json:"department" validate:"required,oneof=staff provost dsw exam_controller"`
}

// ApplicationDTO is the rendered form of an application.
type ApplicationDTO struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	ApplicationType string `json:"application_type"`
	Department      string `json:"department"`
	Status          string `json:"status"`
	Verified        bool   `json:"verified"`
	StudentName     string `json:"student_name,omitempty"`
	StudentID       string `json:"student_id,omitempty"`
	Date            string `json:"date"`
	UpdatedAt       string `json:"updated_at"`

	Raw *models.Application `json:"-"`
}

// ApplicationListing is a department queue. Scope is the department code,
// "all", or "intake".
type ApplicationListing struct {
	Scope        string           `json:"scope"`
	VerifiedOnly bool             `json:"verified_only"`
	Applications []ApplicationDTO `json:"applications"`
}

// ApplicationService implements the application lifecycle, including the
// staff intake verification step.
type ApplicationService struct {
	ticketDeps
}

// NewApplicationService constructs an ApplicationService.
func NewApplicationService(db *gorm.DB, opts TicketOptions) (*ApplicationService, error) {
	if db == nil {
		return nil, errors.New("application service: db is required")
	}
	return &ApplicationService{ticketDeps: newTicketDeps(db, opts)}, nil
}

// Submit files a new pending, unverified application owned by actor.
func (s *ApplicationService) Submit(ctx context.Context, actor *models.User, input SubmitApplicationInput) (*ApplicationDTO, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return nil, apperrors.ErrForbidden
	}

	trimAll(&input.Title, &input.Description, &input.ApplicationType, &input.Department)
	input.ApplicationType = strings.ToLower(input.ApplicationType)
	input.Department = strings.ToLower(input.Department)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	application := &models.Application{
		StudentID:       actor.ID,
		Title:           input.Title,
		Description:     input.Description,
		ApplicationType: input.ApplicationType,
		Department:      models.Department(input.Department),
		Status:          models.ApplicationPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.db.WithContext(ctx).Create(application).Error; err != nil {
		return nil, fmt.Errorf("application service: create application: %w", err)
	}
	application.Student = actor

	metrics.TicketsSubmitted.WithLabelValues(applicationKind, string(application.Department)).Inc()
	recordAudit(s.audit, ctx, actorEntry(actor, "application.submit", "application:"+application.DisplayID()))
	s.publish(ctx, applicationEvent(events.ApplicationSubmitted, application, actor, ""))
	s.log.Info("application submitted",
		zap.String("application_id", application.DisplayID()),
		zap.String("department", string(application.Department)),
	)

	dto := mapApplication(*application)
	return &dto, nil
}

// ListMine returns actor's applications, newest first.
func (s *ApplicationService) ListMine(ctx context.Context, actor *models.User) ([]ApplicationDTO, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return nil, apperrors.ErrForbidden
	}

	var rows []models.Application
	if err := s.db.WithContext(ctx).
		Where("student_id = ?", actor.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("application service: list own applications: %w", err)
	}
	return mapApplications(rows), nil
}

// ListByDepartment returns the queue for actor's department. The dsw and
// exam controller queues only hold verified applications.
func (s *ApplicationService) ListByDepartment(ctx context.Context, actor *models.User) (*ApplicationListing, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, permissions.StaffRoles...) {
		return nil, apperrors.ErrForbidden
	}

	filter := permissions.QueueFor(actor)
	query := s.db.WithContext(ctx).Preload("Student").Order("created_at DESC").Order("id DESC")
	listing := &ApplicationListing{Scope: "all"}
	if !filter.All {
		query = query.Where("department = ?", filter.Department)
		listing.Scope = string(filter.Department)
	}
	if permissions.RequiresVerifiedApplications(actor.Role) {
		query = query.Where("verified = ?", true)
		listing.VerifiedOnly = true
	}

	var rows []models.Application
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("application service: list department applications: %w", err)
	}
	listing.Applications = mapApplications(rows)
	return listing, nil
}

// ListIntake returns unverified pending applications across every department
// for the staff intake desk.
func (s *ApplicationService) ListIntake(ctx context.Context, actor *models.User) (*ApplicationListing, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStaff) {
		return nil, apperrors.ErrForbidden
	}

	var rows []models.Application
	if err := s.db.WithContext(ctx).Preload("Student").
		Where("verified = ? AND status = ?", false, models.ApplicationPending).
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("application service: list intake: %w", err)
	}
	return &ApplicationListing{Scope: "intake", Applications: mapApplications(rows)}, nil
}

// Get loads one application by display id. Students only see their own.
func (s *ApplicationService) Get(ctx context.Context, actor *models.User, displayID string) (*ApplicationDTO, error) {
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	application, err := s.load(ctx, displayID, true)
	if err != nil {
		return nil, err
	}
	if !permissions.CanViewTicket(actor, application.StudentID) {
		return nil, apperrors.ErrForbidden.WithMessage("You do not have permission to view this application.")
	}

	dto := mapApplication(*application)
	return &dto, nil
}

// Verify marks a pending application as checked by the intake desk.
func (s *ApplicationService) Verify(ctx context.Context, actor *models.User, displayID string) (*ApplicationDTO, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStaff) {
		return nil, apperrors.ErrForbidden
	}
	if strings.TrimSpace(displayID) == "" {
		return nil, requiredField("application_id")
	}

	application, err := s.load(ctx, displayID, true)
	if err != nil {
		return nil, err
	}
	if application.Verified {
		return nil, ErrAlreadyVerified
	}
	if application.Status != models.ApplicationPending {
		return nil, ErrTicketNotPending.WithMessage("Only pending applications can be verified.")
	}

	now := s.now()
	res := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("id = ? AND verified = ?", application.ID, false).
		Updates(map[string]any{"verified": true, "updated_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("application service: verify application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrAlreadyVerified
	}
	application.Verified = true
	application.UpdatedAt = now

	id := application.DisplayID()
	recordAudit(s.audit, ctx, actorEntry(actor, "application.verify", "application:"+id))
	s.notify(ctx, CreateNotificationInput{
		UserID:      application.StudentID,
		Type:        models.NotificationApplicationVerified,
		Title:       fmt.Sprintf("Application %s verified", id),
		Message:     fmt.Sprintf("Your application %q has been verified and forwarded to %s.", application.Title, models.Humanize(string(application.Department))),
		ReferenceID: id,
		Metadata:    map[string]any{"department": string(application.Department)},
	})
	s.publish(ctx, applicationEvent(events.ApplicationVerified, application, actor, ""))

	dto := mapApplication(*application)
	return &dto, nil
}

// UpdateStatus decides an application. Staff roles may only act on their own
// department's queue, and verified-only queues only on verified applications.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor *models.User, displayID, status string) (*StatusChange, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, permissions.StaffRoles...) {
		return nil, apperrors.ErrForbidden
	}

	displayID = strings.TrimSpace(displayID)
	next := models.ApplicationStatus(strings.ToLower(strings.TrimSpace(status)))
	if displayID == "" {
		return nil, requiredField("application_id")
	}
	if next == "" {
		return nil, requiredField("status")
	}
	if !next.Valid() {
		return nil, apperrors.NewValidation(map[string]string{"status": "Select a valid choice."})
	}

	application, err := s.load(ctx, displayID, false)
	if err != nil {
		return nil, err
	}
	if !permissions.CanWorkDepartment(actor, application.Department) {
		return nil, apperrors.ErrForbidden.WithMessage("You can only update applications in your department.")
	}
	if !actor.IsSuperuser && permissions.RequiresVerifiedApplications(actor.Role) && !application.Verified {
		return nil, ErrNotVerified
	}

	previous := application.Status
	if err := s.policy.CheckApplication(previous, next); err != nil {
		return nil, err
	}

	now, err := s.swapStatus(ctx, &models.Application{}, application.ID, string(previous), string(next))
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("application service: update status: %w", err)
	}
	application.Status = next
	application.UpdatedAt = now

	id := application.DisplayID()
	metrics.TicketStatusChanges.WithLabelValues(applicationKind, string(next)).Inc()
	entry := actorEntry(actor, "application.update_status", "application:"+id)
	entry.Metadata = map[string]any{"from": string(previous), "to": string(next)}
	recordAudit(s.audit, ctx, entry)

	s.notify(ctx, CreateNotificationInput{
		UserID:      application.StudentID,
		Type:        models.NotificationApplicationStatus,
		Title:       fmt.Sprintf("Application %s updated", id),
		Message:     fmt.Sprintf("Your application %q is now %s.", application.Title, models.Humanize(string(next))),
		ReferenceID: id,
		Metadata:    map[string]any{"previous_status": string(previous), "status": string(next)},
	})
	s.publish(ctx, applicationEvent(events.ApplicationStatusChanged, application, actor, string(previous)))

	return &StatusChange{TicketID: id, PreviousStatus: string(previous), NewStatus: string(next)}, nil
}

// Delete removes actor's own application while it is still pending and
// returns its canonical display id.
func (s *ApplicationService) Delete(ctx context.Context, actor *models.User, displayID string) (string, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return "", apperrors.ErrForbidden
	}
	if strings.TrimSpace(displayID) == "" {
		return "", requiredField("application_id")
	}

	application, err := s.load(ctx, displayID, false)
	if err != nil {
		return "", err
	}
	if application.StudentID != actor.ID {
		return "", apperrors.ErrForbidden.WithMessage("You can only delete your own applications.")
	}
	if application.Status != models.ApplicationPending {
		return "", ErrTicketNotPending.WithMessage("You can only delete pending applications.")
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", application.ID, models.ApplicationPending).
		Delete(&models.Application{})
	if res.Error != nil {
		return "", fmt.Errorf("application service: delete application: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return "", ErrTicketNotPending.WithMessage("You can only delete pending applications.")
	}

	id := application.DisplayID()
	recordAudit(s.audit, ctx, actorEntry(actor, "application.delete", "application:"+id))
	s.publish(ctx, applicationEvent(events.ApplicationDeleted, application, actor, ""))
	return id, nil
}

// CountByStatus tallies applications by status, optionally for one owner or
// department. verifiedOnly mirrors the dsw and exam controller queues.
func (s *ApplicationService) CountByStatus(ctx context.Context, ownerID string, filter permissions.QueueFilter, verifiedOnly bool) (map[string]int64, error) {
	ctx = ensureContext(ctx)
	query := s.db.WithContext(ctx).Model(&models.Application{})
	if ownerID != "" {
		query = query.Where("student_id = ?", ownerID)
	}
	if !filter.All && filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if verifiedOnly {
		query = query.Where("verified = ?", true)
	}

	counts := make(map[string]int64, len(models.ApplicationStatuses))
	for _, status := range models.ApplicationStatuses {
		counts[string(status)] = 0
	}
	if err := countByStatus(query, counts); err != nil {
		return nil, fmt.Errorf("application service: count by status: %w", err)
	}
	return counts, nil
}

// CountIntake counts applications waiting for intake verification.
func (s *ApplicationService) CountIntake(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Application{}).
		Where("verified = ? AND status = ?", false, models.ApplicationPending).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("application service: count intake: %w", err)
	}
	return count, nil
}

func (s *ApplicationService) load(ctx context.Context, displayID string, withStudent bool) (*models.Application, error) {
	id, err := models.ParseDisplayID(models.ApplicationPrefix, displayID)
	if err != nil {
		return nil, ErrApplicationNotFound
	}

	query := s.db.WithContext(ctx)
	if withStudent {
		query = query.Preload("Student")
	}
	var application models.Application
	err = query.Take(&application, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("application service: load application: %w", err)
	}
	return &application, nil
}

func applicationEvent(eventType string, a *models.Application, actor *models.User, previous string) events.Event {
	return events.Event{
		Type:           eventType,
		TicketID:       a.DisplayID(),
		Department:     string(a.Department),
		Status:         string(a.Status),
		PreviousStatus: previous,
		OwnerID:        a.StudentID,
		ActorID:        actorID(actor),
	}
}

func mapApplications(rows []models.Application) []ApplicationDTO {
	items := make([]ApplicationDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapApplication(row))
	}
	return items
}

func mapApplication(a models.Application) ApplicationDTO {
	dto := ApplicationDTO{
		ID:              a.DisplayID(),
		Title:           a.Title,
		Description:     a.Description,
		ApplicationType: models.Humanize(a.ApplicationType),
		Department:      models.Humanize(string(a.Department)),
		Status:          string(a.Status),
		Verified:        a.Verified,
		Date:            formatDate(a.CreatedAt),
		UpdatedAt:       formatDateTime(a.UpdatedAt),
		Raw:             &a,
	}
	if a.Student != nil {
		dto.StudentName = a.Student.FullName()
		dto.StudentID = a.Student.CollegeID
	}
	return dto
}
