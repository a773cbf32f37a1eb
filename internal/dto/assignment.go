package dto

// ── 指派模块 DTO ──

// RespondAssignmentRequest 响应指派请求
type RespondAssignmentRequest struct {
	Response string `json:"response" binding:"required,oneof=accept decline"`
	Notes    string `json:"notes"    binding:"omitempty,max=500"`
}

// AssignmentResponse 指派响应
type AssignmentResponse struct {
	ID                 string     `json:"id"`
	ShiftID            string     `json:"shift_id"`
	User               *UserBrief `json:"user,omitempty"`
	UserID             string     `json:"user_id"`
	AssignedBy         *string    `json:"assigned_by,omitempty"`
	Status             string     `json:"status"`
	AcceptanceDeadline *string    `json:"acceptance_deadline,omitempty"`
	Response           *string    `json:"response,omitempty"`
	ResponseNotes      string     `json:"response_notes,omitempty"`
	RespondedAt        *string    `json:"responded_at,omitempty"`
	CreatedAt          string     `json:"created_at"`
	UpdatedAt          string     `json:"updated_at"`
}
