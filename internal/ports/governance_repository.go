package ports

import (
	"context"
	"fmt"
	"time"

	"cookledger/internal/domain/committee"
	"cookledger/internal/domain/governance"
	"cookledger/internal/errs"
)

var (
	ErrProposalNotFound     = fmt.Errorf("%w: proposal", errs.ErrNotFound)
	ErrVotingNotFound       = fmt.Errorf("%w: voting", errs.ErrNotFound)
	ErrSelectionNotFound    = fmt.Errorf("%w: committee selection", errs.ErrNotFound)
	ErrServiceTermNotFound  = fmt.Errorf("%w: service term", errs.ErrNotFound)
	ErrWeightRecordNotFound = fmt.Errorf("%w: governance weight record", errs.ErrNotFound)
)

// EquityRecord is the persisted ownership share for one contributor on one
// team. Recomputation overwrites the whole record; there is no merge.
type EquityRecord struct {
	TeamID                  string
	ContributorID           string
	Percent                 float64
	RawValue                float64
	EffectiveValue          float64
	TotalTeamEffectiveValue float64
	Model                   string
	CapApplied              bool
	DecayApplied            bool
	LastUpdated             time.Time
}

// WeightRecord is the persisted governance weight for one contributor.
type WeightRecord struct {
	TeamID         string
	ContributorID  string
	Weight         float64
	RawValue       float64
	EffectiveValue float64
	CapApplied     bool
	DecayApplied   bool
	LastUpdated    time.Time
}

// CommitteeSelection is one persisted lottery outcome with its eligible
// snapshot, kept whole for after-the-fact verification.
type CommitteeSelection struct {
	ID          string
	CommitteeID string
	TeamID      string
	Result      committee.LotteryResult
	Eligible    []committee.EligibilityResult
	CreatedAt   time.Time
	CreatedBy   string
}

type ServiceTermFilter struct {
	ContributorID string
	CommitteeID   string
	ActiveOnly    bool
}

type GovernanceRepository interface {
	UpsertEquityRecords(ctx context.Context, records []EquityRecord) error
	ListEquityRecords(ctx context.Context, teamID string) ([]EquityRecord, error)

	UpsertWeightRecord(ctx context.Context, record WeightRecord) error
	GetWeightRecord(ctx context.Context, teamID, contributorID string) (WeightRecord, error)
	ListWeightRecords(ctx context.Context, teamID string) ([]WeightRecord, error)

	CreateServiceTerm(ctx context.Context, term committee.ServiceTerm) error
	SaveServiceTerm(ctx context.Context, term committee.ServiceTerm) error
	GetServiceTerm(ctx context.Context, id string) (committee.ServiceTerm, error)
	ListServiceTerms(ctx context.Context, filter ServiceTermFilter) ([]committee.ServiceTerm, error)

	SaveSelection(ctx context.Context, selection CommitteeSelection) error
	GetSelection(ctx context.Context, id string) (CommitteeSelection, error)

	CreateProposal(ctx context.Context, proposal governance.Proposal) error
	SaveProposal(ctx context.Context, proposal governance.Proposal) error
	GetProposal(ctx context.Context, id string) (governance.Proposal, error)
	ListProposals(ctx context.Context, teamID string) ([]governance.Proposal, error)

	CreateVoting(ctx context.Context, voting governance.Voting) error
	SaveVoting(ctx context.Context, voting governance.Voting) error
	GetVoting(ctx context.Context, id string) (governance.Voting, error)

	AppendConstitutionalChange(ctx context.Context, change governance.ConstitutionalChange) error
	LatestConstitutionalChange(ctx context.Context, ruleName string) (*governance.ConstitutionalChange, error)
	ListConstitutionalChanges(ctx context.Context, ruleName string) ([]governance.ConstitutionalChange, error)
}
