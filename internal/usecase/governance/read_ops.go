package governance

import (
	"context"
	"strings"
	"time"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// RecomputeStamps are the last recompute times for one team, served from
// the cache stamps written by the recompute operations. A stage that
// never ran reports the zero time.
type RecomputeStamps struct {
	WeightsAt time.Time
	EquityAt  time.Time
}

func (s *Service) ListTeamEntries(ctx context.Context, teamID string) ([]ledger.Entry, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(teamID) == "" {
		return nil, errs.Validationf("team id is required")
	}
	return s.ledger.ListTeamEntries(ctx, teamID)
}

func (s *Service) GetTeamConfig(ctx context.Context, teamID string) (ports.TeamConfig, error) {
	if err := s.checkReady(ctx); err != nil {
		return ports.TeamConfig{}, err
	}
	return s.loadTeamConfig(ctx, teamID)
}

func (s *Service) SaveTeamConfig(ctx context.Context, cfg ports.TeamConfig) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.TeamID) == "" {
		return errs.Validationf("team id is required")
	}
	if err := validateTeamConfig(s.applyDefaults(cfg)); err != nil {
		return err
	}
	return s.uow.WithTx(ctx, func(txCtx context.Context) error {
		return s.config.SaveTeamConfig(txCtx, cfg)
	})
}

func (s *Service) GetRecomputeStamps(ctx context.Context, teamID string) (RecomputeStamps, error) {
	if err := s.checkReady(ctx); err != nil {
		return RecomputeStamps{}, err
	}
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return RecomputeStamps{}, errs.Validationf("team id is required")
	}
	if s.cache == nil {
		return RecomputeStamps{}, nil
	}

	stamps := RecomputeStamps{}
	weightsAt, err := s.getCacheTime(ctx, cacheWeightStampKey(teamID))
	if err != nil {
		return RecomputeStamps{}, err
	}
	stamps.WeightsAt = weightsAt

	equityAt, err := s.getCacheTime(ctx, cacheEquityStampKey(teamID))
	if err != nil {
		return RecomputeStamps{}, err
	}
	stamps.EquityAt = equityAt
	return stamps, nil
}

func (s *Service) getCacheTime(ctx context.Context, key string) (time.Time, error) {
	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return time.Time{}, nil
	}
	stamp, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, errs.Wrapf(err, "parse cached stamp %q", key)
	}
	return stamp, nil
}

func (s *Service) ListAuditByEntity(ctx context.Context, relatedEntityID string, limit int) ([]ports.AuditEntry, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, errs.Validationf("audit repository is required")
	}
	return s.audit.ListByEntity(ctx, relatedEntityID, limit)
}

func (s *Service) ListRecentAudit(ctx context.Context, limit int) ([]ports.AuditEntry, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return nil, errs.Validationf("audit repository is required")
	}
	return s.audit.ListRecent(ctx, limit)
}
