package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleRepository 角色登记表的读写。
type RoleRepository interface {
	// Get 返回用户角色，未登记时返回 gorm.ErrRecordNotFound
	Get(ctx context.Context, userID string) (string, error)
	Upsert(ctx context.Context, userID, role string) error
	Delete(ctx context.Context, userID string) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Get(ctx context.Context, userID string) (string, error) {
	var ur model.UserRole
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&ur).Error; err != nil {
		return "", err
	}
	return ur.Role, nil
}

func (r *roleRepository) Upsert(ctx context.Context, userID, role string) error {
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	ur := model.UserRole{UserID: userID, Role: role}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(&ur).Error
}

func (r *roleRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserRole{}).Error
}
