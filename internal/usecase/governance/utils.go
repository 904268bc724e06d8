package governance

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cookledger/internal/bootstrap/logging"
	"cookledger/internal/domain/equity"
	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

func (s *Service) checkReady(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	if s.ledger == nil {
		return errors.New("ledger repository is required")
	}
	if s.config == nil {
		return errors.New("config repository is required")
	}
	if s.gov == nil {
		return errors.New("governance repository is required")
	}
	if s.uow == nil {
		return errors.New("unit of work is required")
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

// loadTeamConfig resolves the effective configuration for a team: stored
// row first, then the governance profile file, then built-in defaults.
func (s *Service) loadTeamConfig(ctx context.Context, teamID string) (ports.TeamConfig, error) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		return ports.TeamConfig{}, errs.Validationf("team id is required")
	}

	cfg, err := s.config.GetTeamConfig(ctx, teamID)
	if err != nil {
		if !errors.Is(err, ports.ErrTeamConfigNotFound) {
			return ports.TeamConfig{}, err
		}
		cfg = ports.TeamConfig{TeamID: teamID}
	}

	if s.defaults.ProfileFile != "" {
		profile, err := loadGovernanceProfile(s.defaults.ProfileFile)
		if err != nil {
			logging.Warn(ctx, "governance profile unreadable, skipped",
				slog.String("path", s.defaults.ProfileFile),
				slog.Any("err", errs.Loggable(err)))
		} else {
			cfg = profile.apply(teamID, cfg)
		}
	}

	cfg = s.applyDefaults(cfg)
	if err := validateTeamConfig(cfg); err != nil {
		return ports.TeamConfig{}, err
	}
	return cfg, nil
}

func (s *Service) applyDefaults(cfg ports.TeamConfig) ports.TeamConfig {
	d := s.defaults
	if cfg.EquityModel == "" {
		cfg.EquityModel = d.EquityModel
	}
	if cfg.EquityModel == "" {
		cfg.EquityModel = equity.ModelProportional
	}
	if cfg.EligibilityWindowMonths == 0 {
		cfg.EligibilityWindowMonths = d.EligibilityWindowMonths
	}
	if cfg.EligibilityWindowMonths == 0 {
		cfg.EligibilityWindowMonths = 3
	}
	if cfg.MinimumActiveValue == 0 {
		cfg.MinimumActiveValue = d.MinimumActiveValue
	}
	if cfg.CoolingOffDays == nil {
		days := d.CoolingOffDays
		if days == 0 {
			days = 90
		}
		cfg.CoolingOffDays = &days
	}
	if cfg.ObjectionWindowDays == 0 {
		cfg.ObjectionWindowDays = d.ObjectionWindowDays
	}
	if cfg.ObjectionWindowDays == 0 {
		cfg.ObjectionWindowDays = 7
	}
	if cfg.ObjectionThreshold == nil {
		threshold := d.ObjectionThreshold
		if threshold == 0 {
			threshold = 2
		}
		cfg.ObjectionThreshold = &threshold
	}
	if cfg.VotingPeriodDays == 0 {
		cfg.VotingPeriodDays = d.VotingPeriodDays
	}
	if cfg.VotingPeriodDays == 0 {
		cfg.VotingPeriodDays = 7
	}
	if cfg.ApprovalThreshold == 0 {
		cfg.ApprovalThreshold = d.ApprovalThreshold
	}
	if cfg.ApprovalThreshold == 0 {
		cfg.ApprovalThreshold = 50
	}
	if cfg.ConstitutionalThreshold == 0 {
		cfg.ConstitutionalThreshold = d.ConstitutionalThreshold
	}
	if cfg.ConstitutionalThreshold == 0 {
		cfg.ConstitutionalThreshold = 66.67
	}
	if cfg.ConstitutionalVotingPeriodDays == 0 {
		cfg.ConstitutionalVotingPeriodDays = d.ConstitutionalVotingPeriodDays
	}
	if cfg.ConstitutionalVotingPeriodDays == 0 {
		cfg.ConstitutionalVotingPeriodDays = 14
	}
	return cfg
}

func validateTeamConfig(cfg ports.TeamConfig) error {
	if cfg.Cap != nil && *cfg.Cap <= 0 {
		return errs.Validationf("cap must be positive, got %v", *cfg.Cap)
	}
	if cfg.DecayRate != nil && (*cfg.DecayRate < 0 || *cfg.DecayRate > 1) {
		return errs.Validationf("decay rate must be within [0,1], got %v", *cfg.DecayRate)
	}
	if cfg.ObjectionThreshold != nil && *cfg.ObjectionThreshold < 0 {
		return errs.Validationf("objection threshold must not be negative, got %v", *cfg.ObjectionThreshold)
	}
	if cfg.CoolingOffDays != nil && *cfg.CoolingOffDays < 0 {
		return errs.Validationf("cooling-off days must not be negative, got %d", *cfg.CoolingOffDays)
	}
	if err := equity.ValidateModel(cfg.EquityModel); err != nil {
		return err
	}
	for _, threshold := range []struct {
		name  string
		value float64
	}{
		{"approval threshold", cfg.ApprovalThreshold},
		{"constitutional threshold", cfg.ConstitutionalThreshold},
	} {
		if threshold.value <= 0 || threshold.value > 100 {
			return errs.Validationf("%s must be within (0,100], got %v", threshold.name, threshold.value)
		}
	}
	return nil
}

func pipelineConfig(cfg ports.TeamConfig) ledger.PipelineConfig {
	return ledger.PipelineConfig{
		Cap:       cfg.Cap,
		DecayRate: cfg.DecayRate,
	}
}

func (s *Service) setCacheBestEffort(ctx context.Context, key, value string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, 0); err != nil {
		logging.Warn(ctx, "cache set failed", slog.String("key", key), slog.Any("err", errs.Loggable(err)))
	}
}

func cacheProposalStatusKey(proposalID string) string {
	return "proposal_status:" + proposalID
}

func cacheWeightStampKey(teamID string) string {
	return "weight_recomputed_at:" + teamID
}

func cacheEquityStampKey(teamID string) string {
	return "equity_recomputed_at:" + teamID
}

func daysToDuration(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
