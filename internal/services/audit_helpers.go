package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/campusfix/campusfix/internal/models"
	"github.com/campusfix/campusfix/pkg/logger"
)

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("audit write failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// actorEntry starts an audit entry attributed to actor.
func actorEntry(actor *models.User, action, resource string) AuditEntry {
	entry := AuditEntry{Action: action, Resource: resource, Result: AuditSuccess}
	if actor != nil {
		id := actor.ID
		entry.UserID = &id
		entry.CollegeID = actor.CollegeID
	}
	return entry
}
