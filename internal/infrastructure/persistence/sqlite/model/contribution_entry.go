package model

// ContributionEntry rows are append-only: the repository exposes no update
// or delete for them.
type ContributionEntry struct {
	EntryID       string  `gorm:"column:entry_id;type:text;primaryKey"`
	TaskID        string  `gorm:"column:task_id;type:text"`
	TeamID        string  `gorm:"column:team_id;type:text;not null;index"`
	ContributorID string  `gorm:"column:contributor_id;type:text;not null;index"`
	Value         float64 `gorm:"column:value;not null"`
	Attribution   string  `gorm:"column:attribution;type:text;not null"`
	IssuedAt      string  `gorm:"column:issued_at;type:text;not null;index"`
}

func (ContributionEntry) TableName() string {
	return "contribution_entries"
}
