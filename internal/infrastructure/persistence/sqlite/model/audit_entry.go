package model

// AuditEntry rows are create-only. Inserts go through an on-conflict
// do-nothing clause on the primary key so a retried append stays
// idempotent.
type AuditEntry struct {
	AuditID           string  `gorm:"column:audit_id;type:text;primaryKey"`
	ActionType        string  `gorm:"column:action_type;type:text;not null;index"`
	ActorID           string  `gorm:"column:actor_id;type:text;not null"`
	ParticipantsJSON  string  `gorm:"column:participants_json;type:text;not null"`
	Outcome           string  `gorm:"column:outcome;type:text;not null"`
	WeightsJSON       string  `gorm:"column:weights_json;type:text;not null"`
	TotalWeight       float64 `gorm:"column:total_weight;not null;default:0"`
	RelatedEntityID   string  `gorm:"column:related_entity_id;type:text;index"`
	RelatedEntityType string  `gorm:"column:related_entity_type;type:text"`
	MetadataJSON      string  `gorm:"column:metadata_json;type:text;not null"`
	CreatedAt         string  `gorm:"column:created_at;type:text;not null;index"`
}

func (AuditEntry) TableName() string {
	return "audit_entries"
}

type RecomputeTask struct {
	TaskID        uint64 `gorm:"column:task_id;primaryKey;autoIncrement"`
	TeamID        string `gorm:"column:team_id;type:text;not null;index"`
	ContributorID string `gorm:"column:contributor_id;type:text"`
	Stage         string `gorm:"column:stage;type:text;not null"`
	Status        string `gorm:"column:status;type:text;not null;index"`
	Attempts      int    `gorm:"column:attempts;not null;default:0"`
	LastError     string `gorm:"column:last_error;type:text"`
	EnqueuedAt    string `gorm:"column:enqueued_at;type:text;not null"`
	UpdatedAt     string `gorm:"column:updated_at;type:text;not null"`
}

func (RecomputeTask) TableName() string {
	return "recompute_tasks"
}

type GovernanceKV struct {
	Key       string `gorm:"column:key;type:text;primaryKey"`
	Value     string `gorm:"column:value;type:text;not null"`
	UpdatedAt string `gorm:"column:updated_at;type:text;not null"`
}

func (GovernanceKV) TableName() string {
	return "governance_kv"
}
