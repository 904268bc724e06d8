package governance

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"cookledger/internal/errs"
	"cookledger/internal/ports"
)

// governanceProfile is the optional TOML file with governance parameters:
// a [defaults] table plus per-team [teams.<id>] overrides. Pointer fields
// distinguish "not set" from an explicit zero.
type governanceProfile struct {
	Defaults profileParams            `toml:"defaults"`
	Teams    map[string]profileParams `toml:"teams"`
}

type profileParams struct {
	Cap       *float64 `toml:"cap"`
	DecayRate *float64 `toml:"decay_rate"`

	EquityModel             *string  `toml:"equity_model"`
	EligibilityWindowMonths *int     `toml:"eligibility_window_months"`
	MinimumActiveValue      *float64 `toml:"minimum_active_value"`
	CoolingOffDays          *int     `toml:"cooling_off_days"`

	ObjectionWindowDays *int     `toml:"objection_window_days"`
	ObjectionThreshold  *float64 `toml:"objection_threshold"`

	VotingPeriodDays  *int     `toml:"voting_period_days"`
	ApprovalThreshold *float64 `toml:"approval_threshold"`

	ConstitutionalThreshold        *float64 `toml:"constitutional_threshold"`
	ConstitutionalVotingPeriodDays *int     `toml:"constitutional_voting_period_days"`
}

func loadGovernanceProfile(path string) (governanceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return governanceProfile{}, errs.Wrapf(err, "read governance profile %q", path)
	}

	var profile governanceProfile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return governanceProfile{}, errs.Wrap(err, "parse governance profile")
	}
	return profile, nil
}

// apply fills only the unset fields of cfg: a stored team config row keeps
// precedence over the profile, and a team table over the defaults table.
func (p governanceProfile) apply(teamID string, cfg ports.TeamConfig) ports.TeamConfig {
	if team, ok := p.Teams[teamID]; ok {
		cfg = team.apply(cfg)
	}
	return p.Defaults.apply(cfg)
}

func (p profileParams) apply(cfg ports.TeamConfig) ports.TeamConfig {
	if cfg.Cap == nil && p.Cap != nil {
		cfg.Cap = p.Cap
	}
	if cfg.DecayRate == nil && p.DecayRate != nil {
		cfg.DecayRate = p.DecayRate
	}
	if cfg.EquityModel == "" && p.EquityModel != nil {
		cfg.EquityModel = *p.EquityModel
	}
	if cfg.EligibilityWindowMonths == 0 && p.EligibilityWindowMonths != nil {
		cfg.EligibilityWindowMonths = *p.EligibilityWindowMonths
	}
	if cfg.MinimumActiveValue == 0 && p.MinimumActiveValue != nil {
		cfg.MinimumActiveValue = *p.MinimumActiveValue
	}
	if cfg.CoolingOffDays == nil && p.CoolingOffDays != nil {
		cfg.CoolingOffDays = p.CoolingOffDays
	}
	if cfg.ObjectionWindowDays == 0 && p.ObjectionWindowDays != nil {
		cfg.ObjectionWindowDays = *p.ObjectionWindowDays
	}
	if cfg.ObjectionThreshold == nil && p.ObjectionThreshold != nil {
		cfg.ObjectionThreshold = p.ObjectionThreshold
	}
	if cfg.VotingPeriodDays == 0 && p.VotingPeriodDays != nil {
		cfg.VotingPeriodDays = *p.VotingPeriodDays
	}
	if cfg.ApprovalThreshold == 0 && p.ApprovalThreshold != nil {
		cfg.ApprovalThreshold = *p.ApprovalThreshold
	}
	if cfg.ConstitutionalThreshold == 0 && p.ConstitutionalThreshold != nil {
		cfg.ConstitutionalThreshold = *p.ConstitutionalThreshold
	}
	if cfg.ConstitutionalVotingPeriodDays == 0 && p.ConstitutionalVotingPeriodDays != nil {
		cfg.ConstitutionalVotingPeriodDays = *p.ConstitutionalVotingPeriodDays
	}
	return cfg
}
