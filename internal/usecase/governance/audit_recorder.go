package governance

import (
	"context"
	"log/slog"

	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// recordAudit appends one audit entry outside the caller's transaction.
// Audit failures are logged and swallowed: a governance action that
// already committed must never be failed by its trail.
func (s *Service) recordAudit(ctx context.Context, entry ports.AuditEntry) {
	if s.audit == nil {
		return
	}

	if entry.ID == "" {
		entry.ID = newID()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	if err := s.audit.AppendEntry(ctx, entry); err != nil {
		logging.Error(
			logging.WithAttrs(ctx, slog.String("component", "governance.audit")),
			"audit append failed",
			slog.Any("err", errs.Loggable(err)),
			slog.String("action_type", entry.ActionType),
			slog.String("related_entity_id", entry.RelatedEntityID),
		)
	}
}
