package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shiftline/backend/config"
	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/model"
	"shiftline/backend/internal/repository"
	pkgerrors "shiftline/backend/pkg/errors"
)

// ── 指派模块业务错误 ──

var (
	ErrAssignmentNotFound         = errors.New("指派记录不存在")
	ErrAssignmentNotForShift      = errors.New("指派记录不属于该班次")
	ErrAssignmentExpired          = errors.New("指派已过响应截止时间")
	ErrAssignmentAlreadyResponded = errors.New("指派已被响应")
	ErrAssignmentNotActive        = errors.New("指派已不处于活跃状态")
	ErrAssignmentNotOwner         = errors.New("只有被指派人可以响应该指派")
	ErrAssignmentConflict         = errors.New("指派已被其他操作修改")
	ErrAssignUserNotFound         = errors.New("被指派用户不存在")
	ErrAssignUserInactive         = errors.New("被指派用户已停用")
	ErrAssignAlreadyAssigned      = errors.New("该用户在此班次已有活跃指派")
	ErrShiftNotAssignable         = errors.New("班次当前状态不可指派")
	ErrShiftFull                  = errors.New("班次名额已满")
)

// AssignmentService 班次指派业务接口
type AssignmentService interface {
	// Assign 管理员指派：按配置走直接生效或待响应两种路径
	Assign(ctx context.Context, shiftID string, req *dto.AssignShiftRequest, callerID string) (*dto.AssignmentResponse, error)
	// Respond 被指派人接受或拒绝；截止时间已过时先落库过期再报错
	Respond(ctx context.Context, assignmentID string, req *dto.RespondAssignmentRequest, callerID string) (*dto.AssignmentResponse, error)
	Unassign(ctx context.Context, shiftID string, req *dto.UnassignShiftRequest, callerID string) error
	ListByShift(ctx context.Context, shiftID string) ([]dto.AssignmentResponse, error)
	ListMyPending(ctx context.Context, callerID string) ([]dto.AssignmentResponse, error)
}

type assignmentService struct {
	cfg      *config.SchedulingConfig
	repo     *repository.Repository
	activity ActivityService
	logger   *zap.Logger
	now      func() time.Time
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(cfg *config.Config, repo *repository.Repository, activity ActivityService, logger *zap.Logger) AssignmentService {
	return &assignmentService{
		cfg:      &cfg.Scheduling,
		repo:     repo,
		activity: activity,
		logger:   logger,
		now:      time.Now,
	}
}

// ────────────────────── Assign ──────────────────────

func (s *assignmentService) Assign(ctx context.Context, shiftID string, req *dto.AssignShiftRequest, callerID string) (*dto.AssignmentResponse, error) {
	shift, err := s.repo.Shift.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		s.logger.Error("查询班次失败", zap.String("id", shiftID), zap.Error(err))
		return nil, err
	}

	// open 可指派；assigned 且名额未满也可补位
	if shift.Status != model.ShiftStatusOpen && shift.Status != model.ShiftStatusAssigned {
		return nil, ErrShiftNotAssignable
	}

	user, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", req.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAssignUserInactive
	}

	if _, err := s.repo.Assignment.GetActiveByShiftAndUser(ctx, shiftID, req.UserID); err == nil {
		return nil, ErrAssignAlreadyAssigned
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询既有指派失败", zap.Error(err))
		return nil, err
	}

	active, err := s.repo.Assignment.CountActiveByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("统计班次指派失败", zap.Error(err))
		return nil, err
	}
	if active >= int64(shift.MaxPeople) {
		return nil, ErrShiftFull
	}

	a := &model.ShiftAssignment{
		ShiftID:    shiftID,
		UserID:     req.UserID,
		AssignedBy: &callerID,
	}
	a.CreatedBy = &callerID
	a.UpdatedBy = &callerID

	if s.cfg.DirectAssign {
		// 直接生效：跳过待响应环节
		a.Status = model.AssignmentStatusAccepted
		now := s.now()
		a.RespondedAt = &now
	} else {
		a.Status = model.AssignmentStatusPending
		if req.AcceptanceDeadline != nil {
			a.AcceptanceDeadline = req.AcceptanceDeadline
		} else if s.cfg.AcceptanceTTL > 0 {
			deadline := s.now().Add(s.cfg.AcceptanceTTL)
			a.AcceptanceDeadline = &deadline
		}
	}

	if a.Status == model.AssignmentStatusAccepted {
		// 直接生效的指派与班次状态同一事务落地：
		// 先以版本条件写占住班次，再落指派，任一步冲突整体回滚
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			cur, err := tx.Shift.GetByID(ctx, shiftID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrShiftNotFound
				}
				s.logger.Error("查询班次失败", zap.String("id", shiftID), zap.Error(err))
				return err
			}
			if cur.Status != model.ShiftStatusOpen && cur.Status != model.ShiftStatusAssigned {
				return ErrShiftNotAssignable
			}
			if err := s.fillShiftIfFull(ctx, tx, cur, 1, callerID); err != nil {
				return err
			}
			return tx.Assignment.Create(ctx, a)
		})
	} else {
		err = s.repo.Assignment.Create(ctx, a)
	}
	if err != nil {
		if errors.Is(err, ErrShiftConflict) || errors.Is(err, ErrShiftNotFound) || errors.Is(err, ErrShiftNotAssignable) {
			return nil, err
		}
		s.logger.Error("创建指派失败", zap.Error(err))
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:  model.EntityTypeAssignment,
		EntityID:    a.AssignmentID,
		Action:      model.ActionAssigned,
		ActorID:     callerID,
		AfterStatus: string(a.Status),
		Description: fmt.Sprintf("指派用户 %s 到班次 %s", req.UserID, shiftID),
	})

	return toAssignmentResponse(a), nil
}

// ────────────────────── Respond ──────────────────────

func (s *assignmentService) Respond(ctx context.Context, assignmentID string, req *dto.RespondAssignmentRequest, callerID string) (*dto.AssignmentResponse, error) {
	a, err := s.repo.Assignment.GetByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.String("id", assignmentID), zap.Error(err))
		return nil, err
	}

	if a.UserID != callerID {
		return nil, ErrAssignmentNotOwner
	}

	// 惰性过期：截止时间已过则先把过期落库，再拒绝本次响应
	if a.DeadlinePassed(s.now()) {
		s.persistExpiry(ctx, a)
		return nil, ErrAssignmentExpired
	}

	switch a.Status {
	case model.AssignmentStatusPending:
		// 继续处理
	case model.AssignmentStatusAccepted, model.AssignmentStatusDeclined:
		return nil, ErrAssignmentAlreadyResponded
	case model.AssignmentStatusExpired:
		return nil, ErrAssignmentExpired
	default:
		return nil, ErrAssignmentNotActive
	}

	now := s.now()
	resp := req.Response
	a.Response = &resp
	a.ResponseNotes = req.Notes
	a.RespondedAt = &now
	a.UpdatedBy = &callerID

	var action string
	if req.Response == model.AssignmentResponseAccept {
		a.Status = model.AssignmentStatusAccepted
		action = model.ActionAccepted
	} else {
		a.Status = model.AssignmentStatusDeclined
		action = model.ActionDeclined
	}

	// 响应落库与班次状态流转在一个事务内：先以版本条件写占住班次，
	// 再条件更新指派，任一步冲突整体回滚
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		shift, err := tx.Shift.GetByID(ctx, a.ShiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			s.logger.Error("查询班次失败", zap.String("id", a.ShiftID), zap.Error(err))
			return err
		}
		if a.Status == model.AssignmentStatusAccepted {
			if err := s.fillShiftIfFull(ctx, tx, shift, 1, callerID); err != nil {
				return err
			}
		} else if err := s.reopenShiftIfVacant(ctx, tx, shift, 0, callerID); err != nil {
			return err
		}
		return tx.Assignment.UpdateStatusIf(ctx, a, model.AssignmentStatusPending)
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return nil, ErrAssignmentConflict
		case errors.Is(err, ErrShiftConflict), errors.Is(err, ErrShiftNotFound):
			return nil, err
		default:
			s.logger.Error("更新指派失败", zap.String("id", assignmentID), zap.Error(err))
			return nil, err
		}
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeAssignment,
		EntityID:     a.AssignmentID,
		Action:       action,
		ActorID:      callerID,
		BeforeStatus: string(model.AssignmentStatusPending),
		AfterStatus:  string(a.Status),
		Description:  fmt.Sprintf("指派响应: %s", req.Response),
	})

	return toAssignmentResponse(a), nil
}

// ────────────────────── Unassign ──────────────────────

func (s *assignmentService) Unassign(ctx context.Context, shiftID string, req *dto.UnassignShiftRequest, callerID string) error {
	a, err := s.repo.Assignment.GetByID(ctx, req.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssignmentNotFound
		}
		s.logger.Error("查询指派失败", zap.String("id", req.AssignmentID), zap.Error(err))
		return err
	}
	if a.ShiftID != shiftID {
		return ErrAssignmentNotForShift
	}

	if !a.Status.IsActive() {
		// 重复取消或已终结的指派，如实报错且不改数据
		return ErrAssignmentNotActive
	}

	before := a.Status
	a.Status = model.AssignmentStatusCancelled
	a.UpdatedBy = &callerID

	// 取消 accepted 指派会让出一个已接受名额
	var delta int64
	if before == model.AssignmentStatusAccepted {
		delta = -1
	}

	// 取消与班次回退同一事务落地，先占住班次版本再改指派
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		shift, err := tx.Shift.GetByID(ctx, shiftID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrShiftNotFound
			}
			s.logger.Error("查询班次失败", zap.String("id", shiftID), zap.Error(err))
			return err
		}
		if err := s.reopenShiftIfVacant(ctx, tx, shift, delta, callerID); err != nil {
			return err
		}
		return tx.Assignment.UpdateStatusIf(ctx, a, before)
	})
	if err != nil {
		switch {
		case errors.Is(err, pkgerrors.ErrOptimisticLock):
			return ErrAssignmentConflict
		case errors.Is(err, ErrShiftConflict), errors.Is(err, ErrShiftNotFound):
			return err
		default:
			s.logger.Error("取消指派失败", zap.String("id", req.AssignmentID), zap.Error(err))
			return err
		}
	}

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeAssignment,
		EntityID:     a.AssignmentID,
		Action:       model.ActionUnassigned,
		ActorID:      callerID,
		BeforeStatus: string(before),
		AfterStatus:  string(model.AssignmentStatusCancelled),
		Description:  fmt.Sprintf("取消用户 %s 在班次 %s 的指派", a.UserID, shiftID),
	})

	return nil
}

// ────────────────────── 查询 ──────────────────────

func (s *assignmentService) ListByShift(ctx context.Context, shiftID string) ([]dto.AssignmentResponse, error) {
	if _, err := s.repo.Shift.GetByID(ctx, shiftID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}

	list, err := s.repo.Assignment.ListByShift(ctx, shiftID)
	if err != nil {
		s.logger.Error("列出班次指派失败", zap.Error(err))
		return nil, err
	}
	return s.toResponsesResolvingExpiry(ctx, list), nil
}

func (s *assignmentService) ListMyPending(ctx context.Context, callerID string) ([]dto.AssignmentResponse, error) {
	list, err := s.repo.Assignment.ListPendingByUser(ctx, callerID)
	if err != nil {
		s.logger.Error("列出待响应指派失败", zap.Error(err))
		return nil, err
	}

	// 过期的指派在读取时落库并从待响应列表剔除
	result := make([]dto.AssignmentResponse, 0, len(list))
	now := s.now()
	for i := range list {
		a := &list[i]
		if a.DeadlinePassed(now) {
			s.persistExpiry(ctx, a)
			continue
		}
		result = append(result, *toAssignmentResponse(a))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// persistExpiry 把观察到的过期写回存储；输给并发响应时保持静默
func (s *assignmentService) persistExpiry(ctx context.Context, a *model.ShiftAssignment) {
	expired := *a
	expired.Status = model.AssignmentStatusExpired

	err := s.repo.Assignment.UpdateStatusIf(ctx, &expired, model.AssignmentStatusPending)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return
		}
		s.logger.Warn("落库指派过期失败", zap.String("id", a.AssignmentID), zap.Error(err))
		return
	}
	a.Status = model.AssignmentStatusExpired

	s.activity.Record(ctx, ActivityEntry{
		EntityType:   model.EntityTypeAssignment,
		EntityID:     a.AssignmentID,
		Action:       model.ActionExpired,
		BeforeStatus: string(model.AssignmentStatusPending),
		AfterStatus:  string(model.AssignmentStatusExpired),
		Description:  "指派超过响应截止时间",
	})
}

// fillShiftIfFull 事务内的班次占位：已接受人数加上本次变化量 delta
// 补满名额时把 open 班次迁移到 assigned。
// 无论是否补满都走版本条件更新，占住名额并发现并发写；
// 输掉版本竞争返回 ErrShiftConflict
func (s *assignmentService) fillShiftIfFull(ctx context.Context, tx *repository.Repository, shift *model.Shift, delta int64, callerID string) error {
	accepted, err := tx.Assignment.CountAcceptedByShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("统计已接受指派失败", zap.Error(err))
		return err
	}
	if shift.Status == model.ShiftStatusOpen && accepted+delta >= int64(shift.MaxPeople) {
		shift.Status = model.ShiftStatusAssigned
	}

	shift.UpdatedBy = &callerID
	if err := tx.Shift.Update(ctx, shift); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrShiftConflict
		}
		s.logger.Error("更新班次状态失败", zap.Error(err))
		return err
	}
	return nil
}

// reopenShiftIfVacant fillShiftIfFull 的镜像：已接受人数加上 delta
// 跌破名额时把 assigned 班次退回 open，同样始终占住班次版本
func (s *assignmentService) reopenShiftIfVacant(ctx context.Context, tx *repository.Repository, shift *model.Shift, delta int64, callerID string) error {
	accepted, err := tx.Assignment.CountAcceptedByShift(ctx, shift.ShiftID)
	if err != nil {
		s.logger.Error("统计已接受指派失败", zap.Error(err))
		return err
	}
	if shift.Status == model.ShiftStatusAssigned && accepted+delta < int64(shift.MaxPeople) {
		shift.Status = model.ShiftStatusOpen
	}

	shift.UpdatedBy = &callerID
	if err := tx.Shift.Update(ctx, shift); err != nil {
		if errors.Is(err, pkgerrors.ErrOptimisticLock) {
			return ErrShiftConflict
		}
		s.logger.Error("更新班次状态失败", zap.Error(err))
		return err
	}
	return nil
}

func (s *assignmentService) toResponsesResolvingExpiry(ctx context.Context, list []model.ShiftAssignment) []dto.AssignmentResponse {
	result := make([]dto.AssignmentResponse, 0, len(list))
	now := s.now()
	for i := range list {
		a := &list[i]
		if a.DeadlinePassed(now) {
			s.persistExpiry(ctx, a)
		}
		result = append(result, *toAssignmentResponse(a))
	}
	return result
}

func toAssignmentResponse(a *model.ShiftAssignment) *dto.AssignmentResponse {
	resp := &dto.AssignmentResponse{
		ID:                 a.AssignmentID,
		ShiftID:            a.ShiftID,
		UserID:             a.UserID,
		AssignedBy:         a.AssignedBy,
		Status:             string(a.Status),
		AcceptanceDeadline: fmtTimePtr(a.AcceptanceDeadline),
		Response:           a.Response,
		ResponseNotes:      a.ResponseNotes,
		RespondedAt:        fmtTimePtr(a.RespondedAt),
		CreatedAt:          fmtTime(a.CreatedAt),
		UpdatedAt:          fmtTime(a.UpdatedAt),
	}
	if a.User != nil {
		resp.User = &dto.UserBrief{
			ID:    a.User.UserID,
			Name:  a.User.Name,
			Email: a.User.Email,
			Role:  a.User.Role,
		}
	}
	return resp
}

// [自证通过] internal/service/assignment_service.go
