package repository

import (
	"context"

	"gorm.io/gorm"

	"shiftline/backend/internal/model"
)

// ActivityFilter 流水列表筛选条件
type ActivityFilter struct {
	EntityType string
	EntityID   string
}

// ActivityRepository 操作流水数据访问接口（只增不改）
type ActivityRepository interface {
	Create(ctx context.Context, activity *model.Activity) error
	List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.Activity, int64, error)
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo 创建 ActivityRepository 实例
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, activity *model.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepo) List(ctx context.Context, filter ActivityFilter, offset, limit int) ([]model.Activity, int64, error) {
	var activities []model.Activity
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Activity{})

	if filter.EntityType != "" {
		db = db.Where("entity_type = ?", filter.EntityType)
	}
	if filter.EntityID != "" {
		db = db.Where("entity_id = ?", filter.EntityID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&activities).Error
	return activities, total, err
}
