// Package repository 封装所有表的持久化操作，对上层只暴露接口。
package repository

import (
	"context"
	"errors"
	"fmt"
	"orgdirectory/internal/model"
	"strings"

	"gorm.io/gorm"
)

// OrganizationFilter 目录列表的筛选条件，零值表示不过滤。
// IDs 非 nil 时只返回其中的组织（来自搜索索引的命中结果），空切片即无结果。
type OrganizationFilter struct {
	Query      string
	Tag        string
	CategoryID uint
	IDs        []uint
}

// OrganizationRepository 组织的持久化操作。
type OrganizationRepository interface {
	Create(ctx context.Context, org *model.Organization) error
	FindByID(ctx context.Context, orgID uint) (*model.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*model.Organization, error)
	List(ctx context.Context, filter OrganizationFilter) ([]model.Organization, error)
	// UpdateProfile 一次写入资料字段、社交链接、分类、logo 与申请时间段
	UpdateProfile(ctx context.Context, org *model.Organization) error
	// DeleteCascade 在事务中删除组织及其关联（管理员绑定、标签关联、照片记录），
	// 被解绑的管理员角色降回 user。返回被删除的照片，供调用方清理对象存储。
	DeleteCascade(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error)
}

type organizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &organizationRepository{db: db}
}

func (r *organizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return fmt.Errorf("organization is nil")
	}
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *organizationRepository) FindByID(ctx context.Context, orgID uint) (*model.Organization, error) {
	var org model.Organization
	if err := r.db.WithContext(ctx).Preload("Category").Where("org_id = ?", orgID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	if slug == "" {
		return nil, fmt.Errorf("slug is required")
	}
	var org model.Organization
	if err := r.db.WithContext(ctx).Preload("Category").Where("slug = ?", slug).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *organizationRepository) List(ctx context.Context, filter OrganizationFilter) ([]model.Organization, error) {
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []model.Organization{}, nil
	}

	tx := r.db.WithContext(ctx).Model(&model.Organization{}).Preload("Category")
	if q := strings.ToLower(strings.TrimSpace(filter.Query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("(LOWER(name) LIKE ? OR LOWER(acronym) LIKE ?)", like, like)
	}
	if filter.CategoryID != 0 {
		tx = tx.Where("category_id = ?", filter.CategoryID)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		sub := r.db.WithContext(ctx).
			Table("organization_tags").
			Select("organization_tags.org_id").
			Joins("JOIN tags ON tags.id = organization_tags.tag_id").
			Where("tags.name = ?", tag)
		tx = tx.Where("org_id IN (?)", sub)
	}
	if filter.IDs != nil {
		tx = tx.Where("org_id IN ?", filter.IDs)
	}

	var orgs []model.Organization
	if err := tx.Order("name ASC").Find(&orgs).Error; err != nil {
		return nil, err
	}
	return orgs, nil
}

// UpdateProfile 使用 Select 限定列，保证空字符串也会被写入（清空字段）。
// 如果组织已被并发删除，返回 gorm.ErrRecordNotFound。
func (r *organizationRepository) UpdateProfile(ctx context.Context, org *model.Organization) error {
	if org == nil {
		return fmt.Errorf("organization is nil")
	}
	if org.OrgID == 0 {
		return fmt.Errorf("organization id is required")
	}

	tx := r.db.WithContext(ctx).Model(&model.Organization{}).
		Where("org_id = ?", org.OrgID).
		Select("name", "acronym", "president", "email", "about", "category_id", "logo_url",
			"facebook", "twitter", "instagram", "linkedin", "website",
			"application_form", "application_date_range", "updated_at").
		Updates(org)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *organizationRepository) DeleteCascade(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error) {
	var photos []model.FeaturedPhoto

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org model.Organization
		if err := tx.Where("org_id = ?", orgID).First(&org).Error; err != nil {
			return err
		}

		var admin model.Admin
		err := tx.Where("org_id = ?", orgID).First(&admin).Error
		switch {
		case err == nil:
			if err := tx.Delete(&model.Admin{}, admin.ID).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.UserRole{}).
				Where("user_id = ? AND role = ?", admin.UserID, model.RoleAdmin).
				Update("role", model.RoleUser).Error; err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := tx.Where("org_id = ?", orgID).Delete(&model.OrganizationTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Find(&photos).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgID).Delete(&model.FeaturedPhoto{}).Error; err != nil {
			return err
		}

		res := tx.Where("org_id = ?", orgID).Delete(&model.Organization{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return photos, nil
}
