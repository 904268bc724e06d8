package governance

import (
	"time"

	"cookledger/internal/ports"
)

// Defaults are the fallback governance parameters applied when a team has
// no stored configuration. A stored team config always wins field by field.
type Defaults struct {
	ProfileFile string

	EquityModel             string
	EligibilityWindowMonths int
	MinimumActiveValue      float64
	CoolingOffDays          int

	ObjectionWindowDays int
	ObjectionThreshold  float64

	VotingPeriodDays  int
	ApprovalThreshold float64

	ConstitutionalThreshold        float64
	ConstitutionalVotingPeriodDays int
}

type Service struct {
	ledger   ports.LedgerRepository
	config   ports.ConfigRepository
	gov      ports.GovernanceRepository
	audit    ports.AuditRepository
	queue    ports.RecomputeQueue
	uow      ports.UnitOfWork
	cache    ports.Cache
	defaults Defaults

	now func() time.Time
}

// NewService wires governance usecases over the ledger and governance
// repositories. cache is optional; everything else is required.
func NewService(
	ledgerRepo ports.LedgerRepository,
	configRepo ports.ConfigRepository,
	govRepo ports.GovernanceRepository,
	auditRepo ports.AuditRepository,
	queue ports.RecomputeQueue,
	uow ports.UnitOfWork,
	cache ports.Cache,
	defaults Defaults,
) *Service {
	return &Service{
		ledger:   ledgerRepo,
		config:   configRepo,
		gov:      govRepo,
		audit:    auditRepo,
		queue:    queue,
		uow:      uow,
		cache:    cache,
		defaults: defaults,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type AppendEntryInput struct {
	TaskID        string
	TeamID        string
	ContributorID string
	Value         float64
	Attribution   string
}

type SelectCommitteeInput struct {
	TeamID      string
	CommitteeID string
	Seats       int
	Seed        string
	Actor       string
}

type CreateProposalInput struct {
	TeamID      string
	Type        string
	Title       string
	Description string
	RuleName    string
	ChangeType  string
	ProposedBy  string
}

// AddObjectionInput carries one objection. Weight is optional: an
// unweighted objection still counts toward the plain objection count.
type AddObjectionInput struct {
	ProposalID    string
	ContributorID string
	Reason        string
	Weight        float64
}

type CastVoteInput struct {
	VotingID string
	TeamID   string
	VoterID  string
	Option   string
}

type StartServiceTermInput struct {
	CommitteeID   string
	ContributorID string
}

type EndServiceTermInput struct {
	TermID     string
	Terminated bool
}
