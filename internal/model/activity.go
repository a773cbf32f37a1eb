package model

import "time"

// 流水实体类型
const (
	EntityTypeShift      = "shift"
	EntityTypeClaim      = "shift_claim"
	EntityTypeAssignment = "shift_assignment"
	EntityTypeSwap       = "shift_swap"
)

// 流水动作
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionAssigned   = "assigned"
	ActionUnassigned = "unassigned"
	ActionClaimed    = "claimed"
	ActionApproved   = "approved"
	ActionRejected   = "rejected"
	ActionCancelled  = "cancelled"
	ActionAccepted   = "accepted"
	ActionDeclined   = "declined"
	ActionExpired    = "expired"
	ActionCompleted  = "completed"
)

// Activity 操作流水表 — 对应 activities（纯审计日志，只增不改）
type Activity struct {
	ActivityID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	EntityType   string    `gorm:"type:varchar(32);not null"                      json:"entity_type"`
	EntityID     string    `gorm:"type:uuid;not null"                             json:"entity_id"`
	Action       string    `gorm:"type:varchar(32);not null"                      json:"action"`
	ActorID      *string   `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	BeforeStatus string    `gorm:"type:varchar(24)"                               json:"before_status,omitempty"`
	AfterStatus  string    `gorm:"type:varchar(24)"                               json:"after_status,omitempty"`
	Description  string    `gorm:"type:text;not null;default:''"                  json:"description"`
	Metadata     []byte    `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Activity) TableName() string { return "activities" }
