package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/campusfix/campusfix/pkg/errors"
)

var (
	// ErrComplaintNotFound is returned for an unknown or unparsable complaint id.
	ErrComplaintNotFound = apperrors.New("COMPLAINT_NOT_FOUND", "Complaint not found.", http.StatusNotFound)
	// ErrApplicationNotFound is returned for an unknown or unparsable application id.
	ErrApplicationNotFound = apperrors.New("APPLICATION_NOT_FOUND", "Application not found.", http.StatusNotFound)
	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found.", http.StatusNotFound)
	// ErrNotificationNotFound indicates the notification is missing or not owned by the caller.
	ErrNotificationNotFound = apperrors.New("NOTIFICATION_NOT_FOUND", "Notification not found.", http.StatusNotFound)
	// ErrTicketNotPending rejects owner deletes once staff have acted.
	ErrTicketNotPending = apperrors.New("TICKET_NOT_PENDING", "Only pending tickets can be deleted.", http.StatusConflict)
	// ErrInvalidStatusTransition rejects moves the lifecycle graph does not allow.
	ErrInvalidStatusTransition = apperrors.New("INVALID_STATUS_TRANSITION", "This status change is not allowed.", http.StatusConflict)
	// ErrNotVerified blocks verified-only queues from acting on unchecked applications.
	ErrNotVerified = apperrors.New("APPLICATION_NOT_VERIFIED", "This application has not been verified yet.", http.StatusConflict)
	// ErrAlreadyVerified rejects a second intake verification.
	ErrAlreadyVerified = apperrors.New("APPLICATION_ALREADY_VERIFIED", "This application has already been verified.", http.StatusConflict)
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique") || strings.Contains(lower, "duplicate")
}
