package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"shiftline/backend/internal/dto"
	"shiftline/backend/internal/model"
	"shiftline/backend/internal/repository"
)

// ActivityEntry 一次状态变更的流水内容
type ActivityEntry struct {
	EntityType   string
	EntityID     string
	Action       string
	ActorID      string
	BeforeStatus string
	AfterStatus  string
	Description  string
}

// ActivityService 操作流水业务接口
type ActivityService interface {
	// Record 写入一条流水；失败只记日志，永不影响主流程
	Record(ctx context.Context, entry ActivityEntry)
	List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error)
}

type activityService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewActivityService 创建 ActivityService 实例
func NewActivityService(repo *repository.Repository, logger *zap.Logger) ActivityService {
	return &activityService{repo: repo, logger: logger}
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	activity := &model.Activity{
		EntityType:   entry.EntityType,
		EntityID:     entry.EntityID,
		Action:       entry.Action,
		BeforeStatus: entry.BeforeStatus,
		AfterStatus:  entry.AfterStatus,
		Description:  entry.Description,
	}
	if entry.ActorID != "" {
		actor := entry.ActorID
		activity.ActorID = &actor
	}

	if err := s.repo.Activity.Create(ctx, activity); err != nil {
		s.logger.Warn("写入操作流水失败",
			zap.String("entity_type", entry.EntityType),
			zap.String("entity_id", entry.EntityID),
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

func (s *activityService) List(ctx context.Context, req *dto.ActivityListRequest) ([]dto.ActivityResponse, int64, error) {
	filter := repository.ActivityFilter{
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
	}

	activities, total, err := s.repo.Activity.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询操作流水失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		result = append(result, *toActivityResponse(&activities[i]))
	}
	return result, total, nil
}

func toActivityResponse(a *model.Activity) *dto.ActivityResponse {
	return &dto.ActivityResponse{
		ID:           a.ActivityID,
		EntityType:   a.EntityType,
		EntityID:     a.EntityID,
		Action:       a.Action,
		ActorID:      a.ActorID,
		BeforeStatus: a.BeforeStatus,
		AfterStatus:  a.AfterStatus,
		Description:  a.Description,
		CreatedAt:    fmtTime(a.CreatedAt),
	}
}

// fmtTime 响应时间统一使用 RFC3339 UTC
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := fmtTime(*t)
	return &s
}
