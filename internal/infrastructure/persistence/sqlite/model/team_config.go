package model

type TeamConfig struct {
	TeamID    string   `gorm:"column:team_id;type:text;primaryKey"`
	Cap       *float64 `gorm:"column:cap"`
	DecayRate *float64 `gorm:"column:decay_rate"`

	EquityModel string `gorm:"column:equity_model;type:text;not null"`

	EligibilityWindowMonths int     `gorm:"column:eligibility_window_months;not null"`
	MinimumActiveValue      float64 `gorm:"column:minimum_active_value;not null"`
	CoolingOffDays          *int    `gorm:"column:cooling_off_days"`

	ObjectionWindowDays int      `gorm:"column:objection_window_days;not null"`
	ObjectionThreshold  *float64 `gorm:"column:objection_threshold"`

	VotingPeriodDays  int     `gorm:"column:voting_period_days;not null"`
	ApprovalThreshold float64 `gorm:"column:approval_threshold;not null"`

	ConstitutionalThreshold        float64 `gorm:"column:constitutional_threshold;not null"`
	ConstitutionalVotingPeriodDays int     `gorm:"column:constitutional_voting_period_days;not null"`

	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (TeamConfig) TableName() string {
	return "team_configs"
}
