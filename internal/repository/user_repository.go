package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository 接口定义了用户资料的持久化操作。
// 用户本身由身份服务管理，这里只保存资料镜像。
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// Upsert 以 id 为冲突键写入资料，已存在时刷新 email 与 name。
	// 同一邮箱下其他 id 的旧镜像会被移除。
	Upsert(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, userID string) error
}

// userRepository 是 UserRepository 接口的 GORM 实现。
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建一个新的 UserRepository 实例。
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByID 根据身份服务 ID 查找用户。
func (r *userRepository) FindByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail 按邮箱查找用户，大小写不敏感。
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, gorm.ErrRecordNotFound
	}
	var user model.User
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, user *model.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	if user.ID == "" {
		return fmt.Errorf("user id is required")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if user.Email != "" {
			// 身份被删除后以同一邮箱重新注册，旧 id 的镜像让位给新 id
			if err := tx.Where("LOWER(email) = ? AND id <> ?", strings.ToLower(user.Email), user.ID).
				Delete(&model.User{}).Error; err != nil {
				return err
			}
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"email", "name", "updated_at"}),
		}).Create(user).Error
	})
}

func (r *userRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("id = ?", userID).Delete(&model.User{}).Error
}
