package services

import (
	"cmp"
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

const complaintKind = "complaint"

// SubmitComplaintInput is the complaint form.
type SubmitComplaintInput struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required,oneof=infrastructure maintenance food security other"`
	Hall        string `json:"hall" validate:"required,oneof=aftab ambedkar hadi-hasan mohsinul-mulk mohd-habib sir-syed-north sir-syed-south viqarul-mulk abdullah bibi-fatima nrsc"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Department  string `json:"department" validate:"omitempty,oneof=staff provost dsw exam_controller"`
}

// ComplaintDTO is the rendered form of a complaint. Codes are human-cased.
type ComplaintDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Department  string `json:"department"`
	Hall        string `json:"hall"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	StudentName string `json:"student_name,omitempty"`
	StudentID   string `json:"student_id,omitempty"`
	Date        string `json:"date"`
	UpdatedAt   string `json:"updated_at"`

	Raw *models.Complaint `json:"-"`
}

// ComplaintListing is a department queue. Scope is the department code or "all".
type ComplaintListing struct {
	Scope      string         `json:"scope"`
	Complaints []ComplaintDTO `json:"complaints"`
}

// ComplaintService implements the complaint lifecycle.
type ComplaintService struct {
	ticketDeps
}

// NewComplaintService constructs a ComplaintService.
func NewComplaintService(db *gorm.DB, opts TicketOptions) (*ComplaintService, error) {
	if db == nil {
		return nil, errors.New("complaint service: db is required")
	}
	return &ComplaintService{ticketDeps: newTicketDeps(db, opts)}, nil
}

// Submit files a new pending complaint owned by actor.
func (s *ComplaintService) Submit(ctx context.Context, actor *models.User, input SubmitComplaintInput) (*ComplaintDTO, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return nil, apperrors.ErrForbidden
	}

	trimAll(&input.Title, &input.Description, &input.Category, &input.Hall, &input.Priority, &input.Department)
	input.Category = strings.ToLower(input.Category)
	input.Hall = strings.ToLower(input.Hall)
	input.Priority = strings.ToLower(input.Priority)
	input.Department = strings.ToLower(input.Department)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.now()
	complaint := &models.Complaint{
		StudentID:   actor.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Department:  models.Department(cmp.Or(input.Department, string(models.DepartmentStaff))),
		Hall:        input.Hall,
		Priority:    models.Priority(cmp.Or(input.Priority, string(models.PriorityMedium))),
		Status:      models.ComplaintPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.WithContext(ctx).Create(complaint).Error; err != nil {
		return nil, fmt.Errorf("complaint service: create complaint: %w", err)
	}
	complaint.Student = actor

	metrics.TicketsSubmitted.WithLabelValues(complaintKind, string(complaint.Department)).Inc()
	recordAudit(s.audit, ctx, actorEntry(actor, "complaint.submit", "complaint:"+complaint.DisplayID()))
	s.publish(ctx, complaintEvent(events.ComplaintSubmitted, complaint, actor, ""))
	s.log.Info("complaint submitted",
		zap.String("complaint_id", complaint.DisplayID()),
		zap.String("department", string(complaint.Department)),
	)

	dto := mapComplaint(*complaint)
	return &dto, nil
}

// ListMine returns actor's complaints, newest first.
func (s *ComplaintService) ListMine(ctx context.Context, actor *models.User) ([]ComplaintDTO, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return nil, apperrors.ErrForbidden
	}

	var rows []models.Complaint
	if err := s.db.WithContext(ctx).
		Where("student_id = ?", actor.ID).
		Order("created_at DESC").Order("id DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("complaint service: list own complaints: %w", err)
	}
	return mapComplaints(rows), nil
}

// ListByDepartment returns the queue for actor's department. Callers without
// a department (superusers) see every complaint.
func (s *ComplaintService) ListByDepartment(ctx context.Context, actor *models.User) (*ComplaintListing, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, permissions.StaffRoles...) {
		return nil, apperrors.ErrForbidden
	}

	filter := permissions.QueueFor(actor)
	query := s.db.WithContext(ctx).Preload("Student").Order("created_at DESC").Order("id DESC")
	scope := "all"
	if !filter.All {
		query = query.Where("department = ?", filter.Department)
		scope = string(filter.Department)
	}

	var rows []models.Complaint
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("complaint service: list department complaints: %w", err)
	}
	return &ComplaintListing{Scope: scope, Complaints: mapComplaints(rows)}, nil
}

// Get loads one complaint by display id. Students only see their own.
func (s *ComplaintService) Get(ctx context.Context, actor *models.User, displayID string) (*ComplaintDTO, error) {
	ctx = ensureContext(ctx)
	if actor == nil {
		return nil, apperrors.ErrUnauthorized
	}

	complaint, err := s.load(ctx, displayID, true)
	if err != nil {
		return nil, err
	}
	if !permissions.CanViewTicket(actor, complaint.StudentID) {
		return nil, apperrors.ErrForbidden.WithMessage("You do not have permission to view this complaint.")
	}

	dto := mapComplaint(*complaint)
	return &dto, nil
}

// UpdateStatus moves a complaint to status. Staff roles may only act on their
// own department's queue.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *models.User, displayID, status string) (*StatusChange, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, permissions.StaffRoles...) {
		return nil, apperrors.ErrForbidden
	}

	displayID = strings.TrimSpace(displayID)
	next := models.ComplaintStatus(strings.ToLower(strings.TrimSpace(status)))
	if displayID == "" {
		return nil, requiredField("complaint_id")
	}
	if next == "" {
		return nil, requiredField("status")
	}
	if !next.Valid() {
		return nil, apperrors.NewValidation(map[string]string{"status": "Select a valid choice."})
	}

	complaint, err := s.load(ctx, displayID, false)
	if err != nil {
		return nil, err
	}
	if !permissions.CanWorkDepartment(actor, complaint.Department) {
		return nil, apperrors.ErrForbidden.WithMessage("You can only update complaints in your department.")
	}

	previous := complaint.Status
	if err := s.policy.CheckComplaint(previous, next); err != nil {
		return nil, err
	}

	now, err := s.swapStatus(ctx, &models.Complaint{}, complaint.ID, string(previous), string(next))
	if err != nil {
		if errors.Is(err, ErrInvalidStatusTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("complaint service: update status: %w", err)
	}
	complaint.Status = next
	complaint.UpdatedAt = now

	id := complaint.DisplayID()
	metrics.TicketStatusChanges.WithLabelValues(complaintKind, string(next)).Inc()
	entry := actorEntry(actor, "complaint.update_status", "complaint:"+id)
	entry.Metadata = map[string]any{"from": string(previous), "to": string(next)}
	recordAudit(s.audit, ctx, entry)

	s.notify(ctx, CreateNotificationInput{
		UserID:      complaint.StudentID,
		Type:        models.NotificationComplaintStatus,
		Title:       fmt.Sprintf("Complaint %s updated", id),
		Message:     fmt.Sprintf("Your complaint %q is now %s.", complaint.Title, models.Humanize(string(next))),
		ReferenceID: id,
		Metadata:    map[string]any{"previous_status": string(previous), "status": string(next)},
	})
	s.publish(ctx, complaintEvent(events.ComplaintStatusChanged, complaint, actor, string(previous)))

	return &StatusChange{TicketID: id, PreviousStatus: string(previous), NewStatus: string(next)}, nil
}

// Delete removes actor's own complaint while it is still pending and returns
// its canonical display id.
func (s *ComplaintService) Delete(ctx context.Context, actor *models.User, displayID string) (string, error) {
	ctx = ensureContext(ctx)
	if !permissions.Allowed(actor, models.RoleStudent) {
		return "", apperrors.ErrForbidden
	}
	if strings.TrimSpace(displayID) == "" {
		return "", requiredField("complaint_id")
	}

	complaint, err := s.load(ctx, displayID, false)
	if err != nil {
		return "", err
	}
	if complaint.StudentID != actor.ID {
		return "", apperrors.ErrForbidden.WithMessage("You can only delete your own complaints.")
	}
	if complaint.Status != models.ComplaintPending {
		return "", ErrTicketNotPending.WithMessage("You can only delete pending complaints.")
	}

	res := s.db.WithContext(ctx).
		Where("id = ? AND status = ?", complaint.ID, models.ComplaintPending).
		Delete(&models.Complaint{})
	if res.Error != nil {
		return "", fmt.Errorf("complaint service: delete complaint: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Staff acted between the read and the delete.
		return "", ErrTicketNotPending.WithMessage("You can only delete pending complaints.")
	}

	id := complaint.DisplayID()
	recordAudit(s.audit, ctx, actorEntry(actor, "complaint.delete", "complaint:"+id))
	s.publish(ctx, complaintEvent(events.ComplaintDeleted, complaint, actor, ""))
	return id, nil
}

// CountByStatus tallies complaints by status, optionally for one owner or department.
func (s *ComplaintService) CountByStatus(ctx context.Context, ownerID string, filter permissions.QueueFilter) (map[string]int64, error) {
	ctx = ensureContext(ctx)
	query := s.db.WithContext(ctx).Model(&models.Complaint{})
	if ownerID != "" {
		query = query.Where("student_id = ?", ownerID)
	}
	if !filter.All && filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}

	counts := make(map[string]int64, len(models.ComplaintStatuses))
	for _, status := range models.ComplaintStatuses {
		counts[string(status)] = 0
	}
	if err := countByStatus(query, counts); err != nil {
		return nil, fmt.Errorf("complaint service: count by status: %w", err)
	}
	return counts, nil
}

func (s *ComplaintService) load(ctx context.Context, displayID string, withStudent bool) (*models.Complaint, error) {
	id, err := models.ParseDisplayID(models.ComplaintPrefix, displayID)
	if err != nil {
		return nil, ErrComplaintNotFound
	}

	query := s.db.WithContext(ctx)
	if withStudent {
		query = query.Preload("Student")
	}
	var complaint models.Complaint
	err = query.Take(&complaint, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrComplaintNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("complaint service: load complaint: %w", err)
	}
	return &complaint, nil
}

func complaintEvent(eventType string, c *models.Complaint, actor *models.User, previous string) events.Event {
	return events.Event{
		Type:           eventType,
		TicketID:       c.DisplayID(),
		Department:     string(c.Department),
		Status:         string(c.Status),
		PreviousStatus: previous,
		OwnerID:        c.StudentID,
		ActorID:        actorID(actor),
	}
}

func mapComplaints(rows []models.Complaint) []ComplaintDTO {
	items := make([]ComplaintDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, mapComplaint(row))
	}
	return items
}

func mapComplaint(c models.Complaint) ComplaintDTO {
	dto := ComplaintDTO{
		ID:          c.DisplayID(),
		Title:       c.Title,
		Description: c.Description,
		Category:    models.Humanize(c.Category),
		Department:  models.Humanize(string(c.Department)),
		Hall:        models.Humanize(c.Hall),
		Priority:    models.Humanize(string(c.Priority)),
		Status:      string(c.Status),
		Date:        formatDate(c.CreatedAt),
		UpdatedAt:   formatDateTime(c.UpdatedAt),
		Raw:         &c,
	}
	if c.Student != nil {
		dto.StudentName = c.Student.FullName()
		dto.StudentID = c.Student.CollegeID
	}
	return dto
}
