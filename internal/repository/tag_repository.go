package repository

import (
	"context"
	"orgdirectory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TagRepository 定义标签与组织-标签关联的持久化操作。
// 标签名在写入前已规范化为小写，这里按原样比较。
type TagRepository interface {
	FindAll(ctx context.Context) ([]model.Tag, error)
	FindByNames(ctx context.Context, names []string) ([]model.Tag, error)
	// CreateMissing 以 "冲突则忽略" 的方式批量插入，重复调用是幂等的
	CreateMissing(ctx context.Context, names []string) error
	FindNamesByOrg(ctx context.Context, orgID uint) ([]string, error)
	FindNamesByOrgs(ctx context.Context, orgIDs []uint) (map[uint][]string, error)
	// AttachToOrg 对 (org_id, tag_id) 做 upsert，已存在的关联不会重复
	AttachToOrg(ctx context.Context, orgID uint, tagIDs []uint) error
	DetachFromOrg(ctx context.Context, orgID uint, tagIDs []uint) error
}

type tagRepository struct {
	db *gorm.DB
}

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) FindAll(ctx context.Context) ([]model.Tag, error) {
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) FindByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	if len(names) == 0 {
		return []model.Tag{}, nil
	}
	var tags []model.Tag
	if err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name ASC").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

func (r *tagRepository) CreateMissing(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	tags := make([]model.Tag, 0, len(names))
	for _, n := range names {
		tags = append(tags, model.Tag{Name: n})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&tags).Error
}

func (r *tagRepository) FindNamesByOrg(ctx context.Context, orgID uint) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Table("organization_tags").
		Joins("JOIN tags ON tags.id = organization_tags.tag_id").
		Where("organization_tags.org_id = ?", orgID).
		Order("tags.name ASC").
		Pluck("tags.name", &names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
}

// FindNamesByOrgs 一次查询多个组织的标签，避免目录列表出现 N+1 查询。
func (r *tagRepository) FindNamesByOrgs(ctx context.Context, orgIDs []uint) (map[uint][]string, error) {
	result := make(map[uint][]string, len(orgIDs))
	if len(orgIDs) == 0 {
		return result, nil
	}
	var rows []struct {
		OrgID uint
		Name  string
	}
	err := r.db.WithContext(ctx).
		Table("organization_tags").
		Select("organization_tags.org_id AS org_id, tags.name AS name").
		Joins("JOIN tags ON tags.id = organization_tags.tag_id").
		Where("organization_tags.org_id IN ?", orgIDs).
		Order("tags.name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.OrgID] = append(result[row.OrgID], row.Name)
	}
	return result, nil
}

func (r *tagRepository) AttachToOrg(ctx context.Context, orgID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	links := make([]model.OrganizationTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, model.OrganizationTag{OrgID: orgID, TagID: id})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "org_id"}, {Name: "tag_id"}},
			DoNothing: true,
		}).
		Create(&links).Error
}

func (r *tagRepository) DetachFromOrg(ctx context.Context, orgID uint, tagIDs []uint) error {
	if len(tagIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("org_id = ? AND tag_id IN ?", orgID, tagIDs).
		Delete(&model.OrganizationTag{}).Error
}
