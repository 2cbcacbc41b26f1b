package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/events"
	"github.com/campusfix/campusfix/internal/models"
	apperrors "github.com/campusfix/campusfix/pkg/errors"
	"github.com/campusfix/campusfix/pkg/logger"
	"github.com/campusfix/campusfix/pkg/validator"
)

// TicketOptions wires the collaborators shared by the complaint and
// application services.
type TicketOptions struct {
	Policy TransitionPolicy
	// Notifications receives status notifications for ticket owners. Nil
	// disables emission.
	Notifications *NotificationService
	Events        events.Publisher
	Audit         *AuditService
	Clock         func() time.Time
}

// StatusChange is the result of a successful status update.
type StatusChange struct {
	TicketID       string `json:"ticket_id"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
}

type ticketDeps struct {
	db     *gorm.DB
	policy TransitionPolicy
	notes  *NotificationService
	events events.Publisher
	audit  *AuditService
	now    func() time.Time
	log    *zap.Logger
}

func newTicketDeps(db *gorm.DB, opts TicketOptions) ticketDeps {
	publisher := opts.Events
	if publisher == nil {
		publisher = events.Nop{}
	}
	return ticketDeps{
		db:     db,
		policy: opts.Policy,
		notes:  opts.Notifications,
		events: publisher,
		audit:  opts.Audit,
		now:    clockOrDefault(opts.Clock),
		log:    logger.WithModule("tickets"),
	}
}

// publish hands event to the broker. Failures never fail the caller.
func (d ticketDeps) publish(ctx context.Context, event events.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = d.now().UTC()
	}
	if err := d.events.Publish(ctx, event); err != nil {
		d.log.Warn("event publish failed",
			zap.String("type", event.Type),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err),
		)
	}
}

// notify records a notification for a ticket owner. Failures never fail the caller.
func (d ticketDeps) notify(ctx context.Context, input CreateNotificationInput) {
	if d.notes == nil {
		return
	}
	if _, err := d.notes.Create(ctx, input); err != nil {
		d.log.Warn("notification emission failed",
			zap.String("type", input.Type),
			zap.String("reference_id", input.ReferenceID),
			zap.Error(err),
		)
	}
}

// validateInput runs struct tag validation and converts failures into a
// field-level AppError.
func validateInput(input any) error {
	err := validator.ValidateStruct(input)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.NewValidation(verrs.Fields())
	}
	return fmt.Errorf("validate input: %w", err)
}

func requiredField(name string) error {
	return apperrors.NewValidation(map[string]string{name: "This field is required."})
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateTimeLayout)
}

func actorID(actor *models.User) string {
	if actor == nil {
		return ""
	}
	return actor.ID
}

// swapStatus writes next only while the row still holds previous, so two
// racing updates cannot both leave the same status.
func (d ticketDeps) swapStatus(ctx context.Context, model any, id uint, previous, next string) (time.Time, error) {
	now := d.now()
	res := d.db.WithContext(ctx).Model(model).
		Where("id = ? AND status = ?", id, previous).
		Updates(map[string]any{"status": next, "updated_at": now})
	if res.Error != nil {
		return time.Time{}, res.Error
	}
	if res.RowsAffected == 0 {
		return time.Time{}, ErrInvalidStatusTransition.WithMessage("The status changed while you were updating it. Reload and try again.")
	}
	return now, nil
}

func countByStatus(query *gorm.DB, counts map[string]int64) error {
	var rows []struct {
		Status string
		Total  int64
	}
	if err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error; err != nil {
		return err
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return nil
}
