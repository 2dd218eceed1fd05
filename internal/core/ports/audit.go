package ports

import (
	"context"

	"github.com/agrovision/farm-api/internal/core/domain"
)

// AuditRepository persists the append-only audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]*domain.AuditEvent, error)
}

// AuditRecorder accepts audit events for asynchronous persistence. Record
// must be safe for concurrent use and must not fail the caller's request.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}
