package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/campusfix/campusfix/internal/auditctx"
	"github.com/campusfix/campusfix/internal/models"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
	AuditDenied  = "denied"
)

// AuditEntry captures a single audit event to persist.
type AuditEntry struct {
	UserID    *string
	CollegeID string
	Action    string
	Resource  string
	Result    string
	IPAddress string
	UserAgent string
	Metadata  map[string]any
}

// AuditFilters encapsulates optional filters when querying audit logs.
// Action and Resource match exactly unless they end in "*", in which case
// they match by prefix: "complaint.*" selects every complaint action and
// "application:*" every application.
type AuditFilters struct {
	UserID    string
	CollegeID string
	Action    string
	Result    string
	Resource  string
	Since     *time.Time
	Until     *time.Time
}

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditPageBounds normalises paging input the way List applies it.
func AuditPageBounds(page, perPage int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > maxAuditPageSize {
		perPage = defaultAuditPageSize
	}
	return page, perPage
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores an audit entry, marshalling metadata into JSON form.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(entry.Action) == "" {
		return errors.New("audit service: action is required")
	}
	if strings.TrimSpace(entry.Result) == "" {
		return errors.New("audit service: result is required")
	}

	metadata, err := encodeJSON(entry.Metadata)
	if err != nil {
		return fmt.Errorf("audit service: marshal metadata: %w", err)
	}

	if origin, ok := auditctx.FromContext(ctx); ok {
		if strings.TrimSpace(entry.IPAddress) == "" {
			entry.IPAddress = origin.IPAddress
		}
		if strings.TrimSpace(entry.UserAgent) == "" {
			entry.UserAgent = origin.UserAgent
		}
	}

	log := models.AuditLog{
		Action:    strings.TrimSpace(entry.Action),
		Resource:  strings.TrimSpace(entry.Resource),
		Result:    strings.TrimSpace(entry.Result),
		CollegeID: strings.TrimSpace(entry.CollegeID),
		IPAddress: strings.TrimSpace(entry.IPAddress),
		UserAgent: strings.TrimSpace(entry.UserAgent),
		Metadata:  metadata,
	}

	if entry.UserID != nil && strings.TrimSpace(*entry.UserID) != "" {
		id := strings.TrimSpace(*entry.UserID)
		log.UserID = &id
	}

	return s.db.WithContext(ctx).Create(&log).Error
}

// List returns paginated audit logs ordered by creation time descending.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	page, perPage := AuditPageBounds(opts.Page, opts.PageSize)

	var (
		results []models.AuditLog
		total   int64
	)

	query := applyAuditFilters(s.db.WithContext(ctx).Model(&models.AuditLog{}), opts.Filters)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}

	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&results).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}

	return results, total, nil
}

// CleanupOlderThan removes audit logs older than the supplied retention window (in days).
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	ctx = ensureContext(ctx)

	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func applyAuditFilters(query *gorm.DB, filters AuditFilters) *gorm.DB {
	if filters.UserID != "" {
		query = query.Where("user_id = ?", filters.UserID)
	}
	if filters.CollegeID != "" {
		query = query.Where("college_id = ?", filters.CollegeID)
	}
	query = matchColumn(query, "action", filters.Action)
	if filters.Result != "" {
		query = query.Where("result = ?", filters.Result)
	}
	query = matchColumn(query, "resource", filters.Resource)
	if filters.Since != nil {
		query = query.Where("created_at >= ?", *filters.Since)
	}
	if filters.Until != nil {
		query = query.Where("created_at <= ?", *filters.Until)
	}
	return query
}

func matchColumn(query *gorm.DB, column, pattern string) *gorm.DB {
	switch {
	case pattern == "" || pattern == "*":
		return query
	case strings.HasSuffix(pattern, "*"):
		prefix := strings.TrimSuffix(pattern, "*")
		escaped := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(prefix)
		return query.Where(column+" LIKE ? ESCAPE '!'", escaped+"%")
	default:
		return query.Where(column+" = ?", pattern)
	}
}
