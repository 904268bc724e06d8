package governance

import (
	"context"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/ports"
)

// AppendEntry appends one immutable contribution entry and queues the
// downstream weight and equity recomputation. The entry itself commits
// even when enqueueing or auditing fails.
func (s *Service) AppendEntry(ctx context.Context, input AppendEntryInput) (ledger.Entry, error) {
	if err := s.checkReady(ctx); err != nil {
		return ledger.Entry{}, err
	}

	now := s.now()
	entry := ledger.Entry{
		ID:            newID(),
		TaskID:        input.TaskID,
		TeamID:        input.TeamID,
		ContributorID: input.ContributorID,
		Value:         input.Value,
		Attribution:   input.Attribution,
		IssuedAt:      now,
	}
	if entry.Attribution == "" {
		entry.Attribution = ledger.AttributionSelf
	}
	if err := entry.Validate(); err != nil {
		return ledger.Entry{}, err
	}

	var created ledger.Entry
	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.ledger.AppendEntry(txCtx, entry)
		return err
	}); err != nil {
		return ledger.Entry{}, err
	}

	s.enqueueRecompute(ctx, created.TeamID, created.ContributorID)

	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "entry_appended",
		ActorID:           created.ContributorID,
		Participants:      []string{created.ContributorID},
		Outcome:           "appended",
		RelatedEntityID:   created.ID,
		RelatedEntityType: "contribution_entry",
		Metadata: map[string]string{
			"team_id":     created.TeamID,
			"task_id":     created.TaskID,
			"attribution": created.Attribution,
		},
	})

	return created, nil
}
