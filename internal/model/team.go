package model

import "time"

// Team 团队表 — 对应 teams
type Team struct {
	TeamID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"team_id"`
	LocationID  string `gorm:"type:uuid;not null"                             json:"location_id"`
	Name        string `gorm:"type:varchar(128);not null"                     json:"name"`
	Description string `gorm:"type:text"                                      json:"description,omitempty"`
	BaseModel

	// 关联
	Location *Location `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
	Members  []User    `gorm:"many2many:team_members;foreignKey:TeamID;joinForeignKey:TeamID;references:UserID;joinReferences:UserID" json:"members,omitempty"`
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// TeamMember 团队成员关联表 — 对应 team_members
type TeamMember struct {
	TeamID    string    `gorm:"type:uuid;primaryKey" json:"team_id"`
	UserID    string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName 指定表名
func (TeamMember) TableName() string { return "team_members" }
