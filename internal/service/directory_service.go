package service

import (
	"context"
	"errors"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/search"
	"strings"

	"gorm.io/gorm"
)

// searchHitLimit 搜索索引单次返回的最大命中数
const searchHitLimit = 200

// OrganizationView 组织对外的列表形态：社交链接以映射输出并附带标签名。
type OrganizationView struct {
	*model.Organization
	SocialLinks map[string]string `json:"socialLinks"`
	Tags        []string          `json:"tags"`
}

// OrganizationProfile 组织详情页数据。
type OrganizationProfile struct {
	OrganizationView
	FeaturedPhotos []model.FeaturedPhoto `json:"featuredPhotos"`
	AdminEmail     string                `json:"adminEmail,omitempty"`
}

// DirectoryQuery 目录筛选条件，全部可选。
type DirectoryQuery struct {
	Query      string
	Tag        string
	CategoryID uint
}

// DirectoryService 目录的只读查询。
type DirectoryService interface {
	List(ctx context.Context, q DirectoryQuery) ([]OrganizationView, error)
	GetBySlug(ctx context.Context, slug string) (*OrganizationProfile, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Tags(ctx context.Context) ([]model.Tag, error)
}

type directoryService struct {
	orgRepo      repository.OrganizationRepository
	tagRepo      repository.TagRepository
	photoRepo    repository.FeaturedPhotoRepository
	adminRepo    repository.AdminRepository
	categoryRepo repository.CategoryRepository
	index        search.Index
}

// NewDirectoryService index 可以为 nil，此时关键字搜索由数据库模糊匹配完成。
func NewDirectoryService(
	orgRepo repository.OrganizationRepository,
	tagRepo repository.TagRepository,
	photoRepo repository.FeaturedPhotoRepository,
	adminRepo repository.AdminRepository,
	categoryRepo repository.CategoryRepository,
	index search.Index,
) DirectoryService {
	return &directoryService{
		orgRepo:      orgRepo,
		tagRepo:      tagRepo,
		photoRepo:    photoRepo,
		adminRepo:    adminRepo,
		categoryRepo: categoryRepo,
		index:        index,
	}
}

// List 关键字优先走搜索索引拿到 ID，再与标签、分类条件在数据库中求交集。
// 索引不可用时降级为数据库模糊匹配。
func (s *directoryService) List(ctx context.Context, q DirectoryQuery) ([]OrganizationView, error) {
	filter := repository.OrganizationFilter{
		Query:      q.Query,
		Tag:        q.Tag,
		CategoryID: q.CategoryID,
	}
	if keyword := strings.TrimSpace(q.Query); keyword != "" && s.index != nil {
		ids, err := s.index.Search(ctx, keyword, searchHitLimit)
		if err != nil {
			log.Warnf("DirectoryService.List: search index unavailable, falling back to database: %v", err)
		} else {
			filter.Query = ""
			filter.IDs = ids
			if filter.IDs == nil {
				filter.IDs = []uint{}
			}
		}
	}

	orgs, err := s.orgRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return buildViews(ctx, s.tagRepo, orgs)
}

func (s *directoryService) GetBySlug(ctx context.Context, slug string) (*OrganizationProfile, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, ErrInvalidInput
	}
	org, err := s.orgRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return loadProfile(ctx, org, s.tagRepo, s.photoRepo, s.adminRepo)
}

func (s *directoryService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

func (s *directoryService) Tags(ctx context.Context) ([]model.Tag, error) {
	return s.tagRepo.FindAll(ctx)
}

// buildViews 批量读取标签，组装列表视图。
func buildViews(ctx context.Context, tagRepo repository.TagRepository, orgs []model.Organization) ([]OrganizationView, error) {
	views := make([]OrganizationView, 0, len(orgs))
	if len(orgs) == 0 {
		return views, nil
	}
	ids := make([]uint, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.OrgID)
	}
	tagsByOrg, err := tagRepo.FindNamesByOrgs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orgs {
		views = append(views, newOrganizationView(&orgs[i], tagsByOrg[orgs[i].OrgID]))
	}
	return views, nil
}

func newOrganizationView(org *model.Organization, tags []string) OrganizationView {
	if tags == nil {
		tags = []string{}
	}
	return OrganizationView{
		Organization: org,
		SocialLinks:  org.SocialLinks(),
		Tags:         tags,
	}
}

func loadProfile(
	ctx context.Context,
	org *model.Organization,
	tagRepo repository.TagRepository,
	photoRepo repository.FeaturedPhotoRepository,
	adminRepo repository.AdminRepository,
) (*OrganizationProfile, error) {
	tags, err := tagRepo.FindNamesByOrg(ctx, org.OrgID)
	if err != nil {
		return nil, err
	}
	photos, err := photoRepo.FindByOrg(ctx, org.OrgID)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []model.FeaturedPhoto{}
	}

	profile := &OrganizationProfile{
		OrganizationView: newOrganizationView(org, tags),
		FeaturedPhotos:   photos,
	}
	admin, err := adminRepo.FindByOrgID(ctx, org.OrgID)
	switch {
	case err == nil:
		profile.AdminEmail = admin.Email
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return profile, nil
}
