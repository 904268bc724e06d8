package governance

import (
	"context"
	"strings"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
)

// ComputeEffectiveValue runs the decay and cap pipeline over one
// contributor's full history. Pure read: nothing is persisted.
func (s *Service) ComputeEffectiveValue(ctx context.Context, teamID, contributorID string) (ledger.EffectiveValue, error) {
	if err := s.checkReady(ctx); err != nil {
		return ledger.EffectiveValue{}, err
	}
	if strings.TrimSpace(contributorID) == "" {
		return ledger.EffectiveValue{}, errs.Validationf("contributor id is required")
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return ledger.EffectiveValue{}, err
	}

	entries, err := s.ledger.ListContributorEntries(ctx, cfg.TeamID, contributorID)
	if err != nil {
		return ledger.EffectiveValue{}, err
	}

	return ledger.ComputeEffectiveValue(entries, pipelineConfig(cfg), s.now())
}
