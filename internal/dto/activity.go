package dto

// ── 流水模块 DTO ──

// ActivityListRequest 流水列表查询参数
type ActivityListRequest struct {
	EntityType string `form:"entity_type" binding:"omitempty,oneof=shift shift_claim shift_assignment shift_swap"`
	EntityID   string `form:"entity_id"   binding:"omitempty,uuid"`
	PaginationRequest
}

// ActivityResponse 流水响应
type ActivityResponse struct {
	ID           string  `json:"id"`
	EntityType   string  `json:"entity_type"`
	EntityID     string  `json:"entity_id"`
	Action       string  `json:"action"`
	ActorID      *string `json:"actor_id,omitempty"`
	BeforeStatus string  `json:"before_status,omitempty"`
	AfterStatus  string  `json:"after_status,omitempty"`
	Description  string  `json:"description"`
	CreatedAt    string  `json:"created_at"`
}
