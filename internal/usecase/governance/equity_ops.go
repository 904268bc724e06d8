package governance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cookledger/internal/domain/equity"
	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// RecomputeTeamEquity recomputes the whole team's equity distribution in
// one batch and overwrites every stored record. model overrides the
// configured equity model when non-empty.
func (s *Service) RecomputeTeamEquity(ctx context.Context, teamID, model string) ([]equity.Share, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	cfg, err := s.loadTeamConfig(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(model) != "" {
		if err := equity.ValidateModel(model); err != nil {
			return nil, err
		}
		cfg.EquityModel = model
	}

	now := s.now()
	values, err := s.contributorValues(ctx, cfg, now)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errs.InsufficientDataf("team %s has no contribution entries", cfg.TeamID)
	}

	shares, total, err := equity.Distribute(cfg.EquityModel, values)
	if err != nil {
		return nil, err
	}

	records := make([]ports.EquityRecord, 0, len(shares))
	participants := make([]string, 0, len(shares))
	for _, share := range shares {
		records = append(records, ports.EquityRecord{
			TeamID:                  cfg.TeamID,
			ContributorID:           share.ContributorID,
			Percent:                 share.Percent,
			RawValue:                share.RawValue,
			EffectiveValue:          share.EffectiveValue,
			TotalTeamEffectiveValue: total,
			Model:                   cfg.EquityModel,
			CapApplied:              share.CapApplied,
			DecayApplied:            share.DecayApplied,
			LastUpdated:             now,
		})
		participants = append(participants, share.ContributorID)
	}

	if err := s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.gov.UpsertEquityRecords(txCtx, records)
	}); err != nil {
		return nil, err
	}

	s.setCacheBestEffort(ctx, cacheEquityStampKey(cfg.TeamID), now.Format(time.RFC3339Nano))
	s.recordAudit(ctx, ports.AuditEntry{
		ActionType:        "equity_recomputed",
		ActorID:           "system",
		Participants:      participants,
		Outcome:           "recomputed",
		TotalWeight:       total,
		RelatedEntityID:   cfg.TeamID,
		RelatedEntityType: "team",
		Metadata: map[string]string{
			"model":        cfg.EquityModel,
			"contributors": fmt.Sprintf("%d", len(shares)),
		},
	})

	return shares, nil
}

// contributorValues runs the pipeline for every contributor that ever
// appeared on the team's ledger.
func (s *Service) contributorValues(ctx context.Context, cfg ports.TeamConfig, now time.Time) ([]equity.ContributorValue, error) {
	contributors, err := s.ledger.ListTeamContributors(ctx, cfg.TeamID)
	if err != nil {
		return nil, err
	}

	values := make([]equity.ContributorValue, 0, len(contributors))
	for _, contributorID := range contributors {
		entries, err := s.ledger.ListContributorEntries(ctx, cfg.TeamID, contributorID)
		if err != nil {
			return nil, err
		}
		ev, err := ledger.ComputeEffectiveValue(entries, pipelineConfig(cfg), now)
		if err != nil {
			return nil, errs.Wrapf(err, "pipeline for contributor %s", contributorID)
		}
		values = append(values, equity.ContributorValue{
			ContributorID:  contributorID,
			RawValue:       ev.RawValue,
			EffectiveValue: ev.EffectiveValue,
			CapApplied:     ev.CapApplied,
			DecayApplied:   ev.DecayApplied,
		})
	}
	return values, nil
}

func (s *Service) ListEquity(ctx context.Context, teamID string) ([]ports.EquityRecord, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(teamID) == "" {
		return nil, errs.Validationf("team id is required")
	}
	return s.gov.ListEquityRecords(ctx, teamID)
}
