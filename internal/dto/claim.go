package dto

// ── 申领模块 DTO ──

// ReviewClaimRequest 审批申领请求（通过 / 驳回共用）
type ReviewClaimRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

// ClaimResponse 申领响应
type ClaimResponse struct {
	ID            string         `json:"id"`
	ShiftID       string         `json:"shift_id"`
	Shift         *ShiftResponse `json:"shift,omitempty"`
	User          *UserBrief     `json:"user,omitempty"`
	UserID        string         `json:"user_id"`
	Status        string         `json:"status"`
	ApprovedBy    *string        `json:"approved_by,omitempty"`
	ApprovalNotes string         `json:"approval_notes,omitempty"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}
