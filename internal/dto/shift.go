package dto

import "time"

// ── 班次模块 DTO ──

// CreateShiftRequest 创建班次请求
type CreateShiftRequest struct {
	Title              string    `json:"title"                binding:"required,min=1,max=255"`
	Description        string    `json:"description"          binding:"omitempty,max=2000"`
	LocationID         string    `json:"location_id"          binding:"required,uuid"`
	TeamID             *string   `json:"team_id"              binding:"omitempty,uuid"`
	StartTime          time.Time `json:"start_time"           binding:"required"`
	EndTime            time.Time `json:"end_time"             binding:"required"`
	MinDurationMinutes *int      `json:"min_duration_minutes" binding:"omitempty,min=1"`
	MaxDurationMinutes *int      `json:"max_duration_minutes" binding:"omitempty,min=1"`
	MaxPeople          int       `json:"max_people"           binding:"omitempty,min=1"`
}

// UpdateShiftStatusRequest 班次状态变更请求
type UpdateShiftStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ShiftListRequest 班次列表查询参数
type ShiftListRequest struct {
	LocationID string `form:"location_id" binding:"omitempty,uuid"`
	TeamID     string `form:"team_id"     binding:"omitempty,uuid"`
	UserID     string `form:"user_id"     binding:"omitempty,uuid"`
	Status     string `form:"status"      binding:"omitempty"`
	StartAfter string `form:"start_after" binding:"omitempty"`
	EndBefore  string `form:"end_before"  binding:"omitempty"`
	PaginationRequest
}

// AssignShiftRequest 指派班次请求
type AssignShiftRequest struct {
	UserID             string     `json:"user_id"             binding:"required,uuid"`
	AcceptanceDeadline *time.Time `json:"acceptance_deadline" binding:"omitempty"`
}

// UnassignShiftRequest 取消指派请求
type UnassignShiftRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required,uuid"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID                 string               `json:"id"`
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	Location           *LocationBrief       `json:"location,omitempty"`
	LocationID         string               `json:"location_id"`
	Team               *TeamBrief           `json:"team,omitempty"`
	StartTime          string               `json:"start_time"`
	EndTime            string               `json:"end_time"`
	MinDurationMinutes *int                 `json:"min_duration_minutes,omitempty"`
	MaxDurationMinutes *int                 `json:"max_duration_minutes,omitempty"`
	MaxPeople          int                  `json:"max_people"`
	Status             string               `json:"status"`
	AssignedCount      int                  `json:"assigned_count"`
	Assignments        []AssignmentResponse `json:"assignments,omitempty"`
	CreatedAt          string               `json:"created_at"`
	UpdatedAt          string               `json:"updated_at"`
}
