package governance

import (
	"context"
	"strings"
	"time"

	"cookledger/internal/domain/equity"
	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// RecomputeGovernanceWeight runs the pipeline for one contributor and
// overwrites the stored weight record.
func (s *Service) RecomputeGovernanceWeight(ctx context.Context, teamID, contributorID string) (ports.WeightRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.WeightRecord{}, err
	}
	if strings.TrimSpace(contributorID) == "" {
		return ports.WeightRecord{}, errs.Validationf("contributor id is required")
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return ports.WeightRecord{}, err
	}

	entries, err := s.ledger.ListContributorEntries(ctx, cfg.TeamID, contributorID)
	if err != nil {
		return ports.WeightRecord{}, err
	}

	now := s.now()
	ev, err := ledger.ComputeEffectiveValue(entries, pipelineConfig(cfg), now)
	if err != nil {
		return ports.WeightRecord{}, err
	}

	weight := equity.WeightFromEffective(contributorID, ev)
	record := ports.WeightRecord{
		TeamID:         cfg.TeamID,
		ContributorID:  contributorID,
		Weight:         weight.Weight,
		RawValue:       weight.RawValue,
		EffectiveValue: weight.EffectiveValue,
		CapApplied:     weight.CapApplied,
		DecayApplied:   weight.DecayApplied,
		LastUpdated:    now,
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.UpsertWeightRecord(txCtx, record)
	}); err != nil {
		return ports.WeightRecord{}, err
	}

	s.setCacheBestEffort(ctx, cacheWeightStampKey(cfg.TeamID), now.Format(time.RFC3339Nano))
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "weight_recomputed",
		ActorID:           "system",
		Participants:      []string{contributorID},
		Outcome:           "recomputed",
		TotalWeight:       record.Weight,
		RelatedEntityID:   cfg.TeamID,
		RelatedEntityType: "team",
		Metadata:          map[string]string{"contributor_id": contributorID},
	})

	return record, nil
}

// RecomputeTeamWeights recomputes every contributor on the team. Used by
// the recompute worker when a task names the whole team.
func (s *Service) RecomputeTeamWeights(ctx context.Context, teamID string) ([]ports.WeightRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return nil, err
	}

	contributors, err := s.ledger.ListTeamContributors(ctx, cfg.TeamID)
	if err != nil {
		return nil, err
	}

	records := make([]ports.WeightRecord, 0, len(contributors))
	for _, contributorID := range contributors {
		record, err := s.RecomputeGovernanceWeight(ctx, cfg.TeamID, contributorID)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *Service) ListWeights(ctx context.Context, teamID string) ([]ports.WeightRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(teamID) == "" {
		return nil, errs.Validationf("team id is required")
	}
	return s.gov.ListWeightRecords(ctx, teamID)
}
