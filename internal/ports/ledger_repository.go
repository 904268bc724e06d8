package ports

import (
	"context"
	"fmt"

	"cookledger/internal/domain/ledger"
	"cookledger/internal/errs"
)

var ErrTeamConfigNotFound = fmt.Errorf("%w: team config", errs.ErrNotFound)

// LedgerRepository reads and appends contribution entries. The ledger is
// append-only by contract: no update or delete operation exists.
type LedgerRepository interface {
	AppendEntry(ctx context.Context, entry ledger.Entry) (ledger.Entry, error)
	ListTeamEntries(ctx context.Context, teamID string) ([]ledger.Entry, error)
	ListContributorEntries(ctx context.Context, teamID, contributorID string) ([]ledger.Entry, error)
	ListTeamContributors(ctx context.Context, teamID string) ([]string, error)
}

// TeamConfig is the governance configuration for one team. Nil pointers
// mean "not configured" and fall back to defaults at load time; pointer
// fields whose zero value is a legal setting stay pointers so an explicit
// zero survives the fallback.
type TeamConfig struct {
	TeamID string

	Cap       *float64
	DecayRate *float64

	EquityModel string

	EligibilityWindowMonths int
	MinimumActiveValue      float64
	CoolingOffDays          *int

	ObjectionWindowDays int
	ObjectionThreshold  *float64

	VotingPeriodDays  int
	ApprovalThreshold float64

	ConstitutionalThreshold        float64
	ConstitutionalVotingPeriodDays int
}

// ConfigRepository fetches and stores per-team governance configuration.
type ConfigRepository interface {
	GetTeamConfig(ctx context.Context, teamID string) (TeamConfig, error)
	SaveTeamConfig(ctx context.Context, cfg TeamConfig) error
}
