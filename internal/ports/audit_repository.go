package ports

import (
	"context"
	"time"
)

// AuditEntry is one immutable governance action record.
type AuditEntry struct {
	ID                string
	ActionType        string
	ActorID           string
	Participants      []string
	Outcome           string
	WeightsUsed       map[string]float64
	TotalWeight       float64
	RelatedEntityID   string
	RelatedEntityType string
	Metadata          map[string]string
	CreatedAt         time.Time
}

// AuditRepository is deliberately write-then-read only: the interface
// exposes no update or delete, and the audit log stays append-only.
type AuditRepository interface {
	AppendEntry(ctx context.Context, entry AuditEntry) error
	ListByEntity(ctx context.Context, relatedEntityID string, limit int) ([]AuditEntry, error)
	ListRecent(ctx context.Context, limit int) ([]AuditEntry, error)
}
