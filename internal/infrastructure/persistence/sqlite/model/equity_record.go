package model

type EquityRecord struct {
	TeamID                  string  `gorm:"column:team_id;type:text;not null;primaryKey"`
	ContributorID           string  `gorm:"column:contributor_id;type:text;not null;primaryKey"`
	Percent                 float64 `gorm:"column:percent;not null"`
	RawValue                float64 `gorm:"column:raw_value;not null"`
	EffectiveValue          float64 `gorm:"column:effective_value;not null"`
	TotalTeamEffectiveValue float64 `gorm:"column:total_team_effective_value;not null"`
	Model                   string  `gorm:"column:model;type:text;not null"`
	CapApplied              bool    `gorm:"column:cap_applied;not null;default:0"`
	DecayApplied            bool    `gorm:"column:decay_applied;not null;default:0"`
	LastUpdated             string  `gorm:"column:last_updated;type:text;not null"`
}

func (EquityRecord) TableName() string {
	return "equity_records"
}

type GovernanceWeightRecord struct {
	TeamID         string  `gorm:"column:team_id;type:text;not null;primaryKey"`
	ContributorID  string  `gorm:"column:contributor_id;type:text;not null;primaryKey"`
	Weight         float64 `gorm:"column:weight;not null"`
	RawValue       float64 `gorm:"column:raw_value;not null"`
	EffectiveValue float64 `gorm:"column:effective_value;not null"`
	CapApplied     bool    `gorm:"column:cap_applied;not null;default:0"`
	DecayApplied   bool    `gorm:"column:decay_applied;not null;default:0"`
	LastUpdated    string  `gorm:"column:last_updated;type:text;not null"`
}

func (GovernanceWeightRecord) TableName() string {
	return "governance_weight_records"
}
