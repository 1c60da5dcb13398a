package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"
	"strings"

	"gorm.io/gorm"
)

// AdminRepository 管理员-组织绑定的持久化操作。
// 唯一约束由表结构保证：org_id 唯一、user_id 唯一。
type AdminRepository interface {
	FindByID(ctx context.Context, id uint) (*model.Admin, error)
	FindByEmail(ctx context.Context, email string) (*model.Admin, error)
	FindByUserID(ctx context.Context, userID string) (*model.Admin, error)
	FindByOrgID(ctx context.Context, orgID uint) (*model.Admin, error)
	// List 返回全部绑定（含组织），query 按邮箱或组织名模糊匹配
	List(ctx context.Context, query string) ([]model.Admin, error)
	Create(ctx context.Context, admin *model.Admin) error
	Delete(ctx context.Context, id uint) error
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) FindByID(ctx context.Context, id uint) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByUserID(ctx context.Context, userID string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByOrgID(ctx context.Context, orgID uint) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) List(ctx context.Context, query string) ([]model.Admin, error) {
	tx := r.db.WithContext(ctx).Model(&model.Admin{}).Preload("Organization")
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(LOWER(email) LIKE ? OR org_id IN (?))", like,
			r.db.WithContext(ctx).Model(&model.Organization{}).Select("org_id").Where("LOWER(name) LIKE ?", like))
	}
	var admins []model.Admin
	if err := tx.Order("email ASC").Find(&admins).Error; err != nil {
		return nil, err
	}
	return admins, nil
}

// Create 插入绑定。违反唯一约束时返回 gorm.ErrDuplicatedKey（需开启 TranslateError）。
func (r *adminRepository) Create(ctx context.Context, admin *model.Admin) error {
	if admin == nil {
		return fmt.Errorf("admin is nil")
	}
	return r.db.WithContext(ctx).Create(admin).Error
}

func (r *adminRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Admin{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
