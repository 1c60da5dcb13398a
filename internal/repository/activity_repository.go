package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"
	"strings"

	"gorm.io/gorm"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityRepository 操作日志的写入与查询。
type ActivityRepository interface {
	Create(ctx context.Context, entry *model.ActivityLog) error
	// List 按时间倒序返回最近的记录，query 匹配操作者邮箱、动作或详情
	List(ctx context.Context, query string, limit int) ([]model.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *model.ActivityLog) error {
	if entry == nil {
		return fmt.Errorf("activity entry is nil")
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *activityRepository) List(ctx context.Context, query string, limit int) ([]model.ActivityLog, error) {
	if limit <= 0 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	tx := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(LOWER(actor_email) LIKE ? OR LOWER(action) LIKE ? OR LOWER(detail) LIKE ?)", like, like, like)
	}

	var entries []model.ActivityLog
	if err := tx.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
