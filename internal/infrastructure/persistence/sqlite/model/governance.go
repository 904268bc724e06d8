package model

type ServiceTerm struct {
	TermID        string  `gorm:"column:term_id;type:text;primaryKey"`
	CommitteeID   string  `gorm:"column:committee_id;type:text;not null;index"`
	ContributorID string  `gorm:"column:contributor_id;type:text;not null;index"`
	StartDate     string  `gorm:"column:start_date;type:text;not null"`
	EndDate       *string `gorm:"column:end_date;type:text"`
	DurationDays  int     `gorm:"column:duration_days;not null;default:0"`
	Status        string  `gorm:"column:status;type:text;not null;index"`
}

func (ServiceTerm) TableName() string {
	return "service_terms"
}

// Proposal keeps its objection list as a JSON blob: objections are only
// ever read back as part of the whole proposal aggregate.
type Proposal struct {
	ProposalID     string  `gorm:"column:proposal_id;type:text;primaryKey"`
	TeamID         string  `gorm:"column:team_id;type:text;not null;index"`
	Type           string  `gorm:"column:type;type:text;not null"`
	Title          string  `gorm:"column:title;type:text;not null"`
	Description    string  `gorm:"column:description;type:text"`
	RuleName       string  `gorm:"column:rule_name;type:text"`
	ChangeType     string  `gorm:"column:change_type;type:text"`
	Status         string  `gorm:"column:status;type:text;not null;index"`
	ProposedBy     string  `gorm:"column:proposed_by;type:text;not null"`
	CreatedAt      string  `gorm:"column:created_at;type:text;not null"`
	WindowOpensAt  *string `gorm:"column:window_opens_at;type:text"`
	WindowClosesAt *string `gorm:"column:window_closes_at;type:text"`
	ObjectionsJSON string  `gorm:"column:objections_json;type:text;not null"`
	VotingID       string  `gorm:"column:voting_id;type:text"`
	DecidedAt      *string `gorm:"column:decided_at;type:text"`
}

func (Proposal) TableName() string {
	return "proposals"
}

type Voting struct {
	VotingID    string `gorm:"column:voting_id;type:text;primaryKey"`
	ProposalID  string `gorm:"column:proposal_id;type:text;not null;index"`
	OptionsJSON string `gorm:"column:options_json;type:text;not null"`
	Status      string `gorm:"column:status;type:text;not null"`
	OpensAt     string `gorm:"column:opens_at;type:text;not null"`
	ClosesAt    string `gorm:"column:closes_at;type:text;not null"`
	VotesJSON   string `gorm:"column:votes_json;type:text;not null"`
	ResultsJSON string `gorm:"column:results_json;type:text;not null"`
	Winning     string `gorm:"column:winning;type:text"`
}

func (Voting) TableName() string {
	return "votings"
}

type ConstitutionalChange struct {
	ChangeID           string  `gorm:"column:change_id;type:text;primaryKey"`
	RuleName           string  `gorm:"column:rule_name;type:text;not null;uniqueIndex:idx_rule_version"`
	Version            int     `gorm:"column:version;not null;uniqueIndex:idx_rule_version"`
	PreviousVersion    *int    `gorm:"column:previous_version"`
	ChangeType         string  `gorm:"column:change_type;type:text"`
	ApprovalPercentage float64 `gorm:"column:approval_percentage;not null"`
	AdoptedAt          string  `gorm:"column:adopted_at;type:text;not null"`
	AdoptedBy          string  `gorm:"column:adopted_by;type:text;not null"`
}

func (ConstitutionalChange) TableName() string {
	return "constitutional_changes"
}

type CommitteeSelection struct {
	SelectionID  string `gorm:"column:selection_id;type:text;primaryKey"`
	CommitteeID  string `gorm:"column:committee_id;type:text;not null;index"`
	TeamID       string `gorm:"column:team_id;type:text;not null;index"`
	ResultJSON   string `gorm:"column:result_json;type:text;not null"`
	EligibleJSON string `gorm:"column:eligible_json;type:text;not null"`
	CreatedAt    string `gorm:"column:created_at;type:text;not null"`
	CreatedBy    string `gorm:"column:created_by;type:text;not null"`
}

func (CommitteeSelection) TableName() string {
	return "committee_selections"
}
