package repository

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"

	"gorm.io/gorm"
)

// FeaturedPhotoRepository 精选照片记录的持久化操作。
type FeaturedPhotoRepository interface {
	FindByOrg(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error)
	Create(ctx context.Context, photo *model.FeaturedPhoto) error
	Delete(ctx context.Context, photoID uint) error
}

type featuredPhotoRepository struct {
	db *gorm.DB
}

func NewFeaturedPhotoRepository(db *gorm.DB) FeaturedPhotoRepository {
	return &featuredPhotoRepository{db: db}
}

func (r *featuredPhotoRepository) FindByOrg(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error) {
	var photos []model.FeaturedPhoto
	if err := r.db.WithContext(ctx).Where("org_id = ?", orgID).Order("position ASC, id ASC").Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

func (r *featuredPhotoRepository) Create(ctx context.Context, photo *model.FeaturedPhoto) error {
	if photo == nil {
		return fmt.Errorf("photo is nil")
	}
	return r.db.WithContext(ctx).Create(photo).Error
}

// Delete 删除一条照片记录，记录不存在时返回 gorm.ErrRecordNotFound。
func (r *featuredPhotoRepository) Delete(ctx context.Context, photoID uint) error {
	res := r.db.WithContext(ctx).Delete(&model.FeaturedPhoto{}, photoID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
