package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/search"
	"orgdirectory/pkg/storage"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Upload 一个待上传的文件。
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// OrganizationEdit 编辑表单提交的完整内容。
// 指针字段为 nil 表示未提供；NewAdminEmail 为空表示不变更管理员。
type OrganizationEdit struct {
	Name             string
	Acronym          string
	President        string
	Email            string
	About            string
	CategoryID       uint
	SocialLinks      map[string]string
	ApplicationForm  string
	ApplicationStart *time.Time
	ApplicationEnd   *time.Time
	TagInput         string
	NewPhotos        []Upload
	DeletedPhotoIDs  []uint
	Logo             *Upload
	NewAdminEmail    string
	// Stay 为 true 时不返回跳转提示
	Stay bool
}

// OrganizationDraft 新建组织所需字段，其余资料创建后通过 Save 编辑。
type OrganizationDraft struct {
	Name       string
	Acronym    string
	President  string
	Email      string
	About      string
	CategoryID uint
}

// EditResult 编辑成功后的组织快照。
type EditResult struct {
	Organization   OrganizationView      `json:"organization"`
	FeaturedPhotos []model.FeaturedPhoto `json:"featuredPhotos"`
	Warnings       []string              `json:"warnings"`
	// RedirectAfter 客户端在多久后离开编辑页，0 表示留在当前页
	RedirectAfter time.Duration `json:"-"`
}

// EditOptions 编辑流程的可调参数。
type EditOptions struct {
	MaxFeaturedPhotos int
	RedirectDelay     time.Duration
	DateLayout        string
}

// OrgEditService 组织编辑对账流程。
type OrgEditService interface {
	// Save 把编辑后的状态写回存储，按固定顺序执行各步骤，任何一步失败即停止，
	// 已完成的步骤不回滚（管理员绑定与角色写入的配对除外）。
	Save(ctx context.Context, session *Session, orgID uint, edit OrganizationEdit) (*EditResult, error)
	Create(ctx context.Context, session *Session, draft OrganizationDraft) (*model.Organization, error)
}

type orgEditService struct {
	orgRepo      repository.OrganizationRepository
	tagRepo      repository.TagRepository
	photoRepo    repository.FeaturedPhotoRepository
	categoryRepo repository.CategoryRepository
	adminRepo    repository.AdminRepository
	userRepo     repository.UserRepository
	roleRepo     repository.RoleRepository
	store        storage.ObjectStore
	activity     activityRecorder
	indexer      orgIndexer
	opts         EditOptions
	now          func() time.Time
}

// OrgEditDeps 编辑流程依赖的仓储与外部服务。Index 与 Publisher 可为 nil。
type OrgEditDeps struct {
	Organizations repository.OrganizationRepository
	Tags          repository.TagRepository
	Photos        repository.FeaturedPhotoRepository
	Categories    repository.CategoryRepository
	Admins        repository.AdminRepository
	Users         repository.UserRepository
	Roles         repository.RoleRepository
	Activity      repository.ActivityRepository
	Store         storage.ObjectStore
	Index         search.Index
	Publisher     ActivityPublisher
}

func NewOrgEditService(deps OrgEditDeps, opts EditOptions) OrgEditService {
	if opts.MaxFeaturedPhotos <= 0 {
		opts.MaxFeaturedPhotos = 3
	}
	if opts.DateLayout == "" {
		opts.DateLayout = "January 2, 2006"
	}
	return &orgEditService{
		orgRepo:      deps.Organizations,
		tagRepo:      deps.Tags,
		photoRepo:    deps.Photos,
		categoryRepo: deps.Categories,
		adminRepo:    deps.Admins,
		userRepo:     deps.Users,
		roleRepo:     deps.Roles,
		store:        deps.Store,
		activity:     activityRecorder{repo: deps.Activity, publisher: deps.Publisher},
		indexer:      orgIndexer{index: deps.Index},
		opts:         opts,
		now:          time.Now,
	}
}

func (s *orgEditService) Save(ctx context.Context, session *Session, orgID uint, edit OrganizationEdit) (*EditResult, error) {
	if !session.CanEdit(orgID) {
		return nil, ErrForbidden
	}

	edit.Name = strings.TrimSpace(edit.Name)
	edit.President = strings.TrimSpace(edit.President)
	edit.NewAdminEmail = strings.ToLower(strings.TrimSpace(edit.NewAdminEmail))
	if edit.Name == "" || edit.President == "" {
		return nil, fmt.Errorf("%w: name and president are required", ErrInvalidInput)
	}
	if edit.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	category, err := s.categoryRepo.FindByID(ctx, edit.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}

	existing, err := s.photoRepo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	toDelete, err := selectPhotos(existing, edit.DeletedPhotoIDs)
	if err != nil {
		return nil, err
	}

	// 管理员变更的拒绝条件在任何写入之前检查
	var candidate *model.User
	if edit.NewAdminEmail != "" {
		if candidate, err = s.checkAdminCandidate(ctx, session, orgID, edit.NewAdminEmail); err != nil {
			return nil, err
		}
	}

	// 1. logo
	if edit.Logo != nil {
		logoURL, err := s.replaceLogo(ctx, org.Slug, edit.Logo)
		if err != nil {
			return nil, err
		}
		org.LogoURL = &logoURL
	}

	// 2. 申请时间段
	org.ApplicationDateRange = formatDateRange(edit.ApplicationStart, edit.ApplicationEnd, s.opts.DateLayout)

	// 3. 新增精选照片
	var warnings []string
	if len(edit.NewPhotos) > 0 {
		w, err := s.addPhotos(ctx, org, existing, edit.NewPhotos)
		if err != nil {
			return nil, err
		}
		warnings = append(warnings, w...)
	}

	// 4. 删除精选照片：先删对象再删记录
	for _, p := range toDelete {
		if err := s.store.Remove(ctx, p.StoragePath); err != nil {
			log.Warnf("OrgEditService.Save: failed to remove object %s: %v", p.StoragePath, err)
			return nil, fmt.Errorf("%w: photo %d", ErrPhotoDeleteFailed, p.ID)
		}
		if err := s.photoRepo.Delete(ctx, p.ID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("delete photo record %d: %w", p.ID, err)
		}
	}

	// 5. 基本字段、社交链接与分类一次写入
	org.Name = edit.Name
	org.Acronym = strings.TrimSpace(edit.Acronym)
	org.President = edit.President
	org.Email = strings.TrimSpace(edit.Email)
	org.About = edit.About
	org.CategoryID = category.ID
	org.Category = category
	org.ApplicationForm = strings.TrimSpace(edit.ApplicationForm)
	org.SetSocialLinks(trimLinks(edit.SocialLinks))
	if err := s.orgRepo.UpdateProfile(ctx, org); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}

	// 6. 标签对账
	tags, err := s.reconcileTags(ctx, orgID, edit.TagInput)
	if err != nil {
		return nil, err
	}

	// 7. 管理员变更
	if candidate != nil {
		admin := &model.Admin{UserID: candidate.ID, OrgID: orgID, Email: strings.ToLower(candidate.Email)}
		if err := bindAdmin(ctx, s.adminRepo, s.roleRepo, admin); err != nil {
			return nil, err
		}
		s.activity.record(ctx, session, model.ActionAdminAssigned, uintPtr(orgID), admin.Email)
	}

	photos, err := s.photoRepo.FindByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []model.FeaturedPhoto{}
	}

	s.activity.record(ctx, session, model.ActionOrganizationUpdated, uintPtr(orgID), org.Name)
	s.indexer.upsert(ctx, org, tags)

	result := &EditResult{
		Organization:   newOrganizationView(org, tags),
		FeaturedPhotos: photos,
		Warnings:       warnings,
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	if !edit.Stay {
		result.RedirectAfter = s.opts.RedirectDelay
	}
	return result, nil
}

func (s *orgEditService) checkAdminCandidate(ctx context.Context, session *Session, orgID uint, email string) (*model.User, error) {
	if !session.IsSuperadmin() {
		return nil, ErrForbidden
	}
	bound, err := s.adminRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if bound.OrgID == orgID {
			return nil, ErrAdminAlreadyAssigned
		}
		return nil, ErrAdminBoundElsewhere
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	// 同一身份可能以不同邮箱大小写登记过绑定
	if admin, err := s.adminRepo.FindByUserID(ctx, user.ID); err == nil {
		if admin.OrgID == orgID {
			return nil, ErrAdminAlreadyAssigned
		}
		return nil, ErrAdminBoundElsewhere
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return user, nil
}

// replaceLogo 覆盖 <slug>/logo，返回带时间戳参数的公开 URL，避免客户端命中旧缓存。
func (s *orgEditService) replaceLogo(ctx context.Context, slug string, logo *Upload) (string, error) {
	objectPath := storage.LogoPath(slug)
	if err := s.store.Remove(ctx, objectPath); err != nil {
		log.Warnf("OrgEditService.replaceLogo: failed to remove old logo %s: %v", objectPath, err)
	}
	if err := s.store.Upload(ctx, objectPath, logo.Reader, logo.Size, logo.ContentType); err != nil {
		log.Errorf("OrgEditService.replaceLogo: upload %s failed: %v", objectPath, err)
		return "", fmt.Errorf("%w: logo", ErrUploadFailed)
	}
	return s.store.PublicURL(objectPath) + "?t=" + strconv.FormatInt(s.now().UnixMilli(), 10), nil
}

// addPhotos 按剩余名额截断后逐个上传，编号从已有数量之后继续。
// 中途失败直接返回错误，之前已上传的照片保留。
func (s *orgEditService) addPhotos(ctx context.Context, org *model.Organization, existing []model.FeaturedPhoto, uploads []Upload) ([]string, error) {
	var warnings []string
	slots := s.opts.MaxFeaturedPhotos - len(existing)
	if slots < 0 {
		slots = 0
	}
	if len(uploads) > slots {
		warnings = append(warnings, fmt.Sprintf(
			"only %d of %d new featured photos were added: an organization can have at most %d",
			slots, len(uploads), s.opts.MaxFeaturedPhotos))
		uploads = uploads[:slots]
	}

	next := nextPhotoIndex(existing)
	for i, up := range uploads {
		index := next + i
		objectPath := storage.FeaturedPhotoPath(org.Slug, index, filepath.Ext(up.Filename))
		if err := s.store.Upload(ctx, objectPath, up.Reader, up.Size, up.ContentType); err != nil {
			log.Errorf("OrgEditService.addPhotos: upload %s failed: %v", objectPath, err)
			return nil, fmt.Errorf("%w: featured photo %d", ErrUploadFailed, index)
		}
		photo := &model.FeaturedPhoto{
			OrgID:       org.OrgID,
			PhotoURL:    s.store.PublicURL(objectPath),
			StoragePath: objectPath,
			Position:    index,
		}
		if err := s.photoRepo.Create(ctx, photo); err != nil {
			return nil, fmt.Errorf("save featured photo %d: %w", index, err)
		}
	}
	return warnings, nil
}

// reconcileTags 只删除本组织的关联，标签本身从不删除；缺失的标签先创建再关联。
func (s *orgEditService) reconcileTags(ctx context.Context, orgID uint, input string) ([]string, error) {
	edited := ParseTagInput(input)
	current, err := s.tagRepo.FindNamesByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	toAdd, toRemove := DiffTags(current, edited)

	if len(toRemove) > 0 {
		tags, err := s.tagRepo.FindByNames(ctx, toRemove)
		if err != nil {
			return nil, err
		}
		if err := s.tagRepo.DetachFromOrg(ctx, orgID, tagIDs(tags)); err != nil {
			return nil, fmt.Errorf("detach tags: %w", err)
		}
	}

	if len(toAdd) > 0 {
		found, err := s.tagRepo.FindByNames(ctx, toAdd)
		if err != nil {
			return nil, err
		}
		if missing := missingTagNames(toAdd, found); len(missing) > 0 {
			if err := s.tagRepo.CreateMissing(ctx, missing); err != nil {
				return nil, fmt.Errorf("create tags: %w", err)
			}
			if found, err = s.tagRepo.FindByNames(ctx, toAdd); err != nil {
				return nil, err
			}
		}
		if err := s.tagRepo.AttachToOrg(ctx, orgID, tagIDs(found)); err != nil {
			return nil, fmt.Errorf("attach tags: %w", err)
		}
	}
	return edited, nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 小写化并把连续的非字母数字字符折叠为一个 "-"。
func Slugify(s string) string {
	s = slugInvalid.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
	return strings.Trim(s, "-")
}

func (s *orgEditService) Create(ctx context.Context, session *Session, draft OrganizationDraft) (*model.Organization, error) {
	if !session.IsSuperadmin() {
		return nil, ErrForbidden
	}
	draft.Name = strings.TrimSpace(draft.Name)
	draft.President = strings.TrimSpace(draft.President)
	if draft.Name == "" || draft.President == "" || draft.CategoryID == 0 {
		return nil, ErrInvalidInput
	}
	slug := Slugify(draft.Acronym)
	if slug == "" {
		slug = Slugify(draft.Name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: cannot derive slug", ErrInvalidInput)
	}

	category, err := s.categoryRepo.FindByID(ctx, draft.CategoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	if _, err := s.orgRepo.FindBySlug(ctx, slug); err == nil {
		return nil, ErrSlugTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	org := &model.Organization{
		Name:       draft.Name,
		Acronym:    strings.TrimSpace(draft.Acronym),
		Slug:       slug,
		President:  draft.President,
		Email:      strings.TrimSpace(draft.Email),
		About:      draft.About,
		CategoryID: category.ID,
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	org.Category = category

	s.activity.record(ctx, session, model.ActionOrganizationCreated, uintPtr(org.OrgID), org.Name)
	s.indexer.upsert(ctx, org, []string{})
	return org, nil
}

// formatDateRange 起止日期都提供时输出 "<start> to <end>"，否则为空串。
func formatDateRange(start, end *time.Time, layout string) string {
	if start == nil || end == nil {
		return ""
	}
	return start.Format(layout) + " to " + end.Format(layout)
}

// nextPhotoIndex 新照片从已有数量之后编号；若历史删除导致已有编号更大，则从最大编号之后继续，避免覆盖现有对象。
func nextPhotoIndex(existing []model.FeaturedPhoto) int {
	next := len(existing)
	for _, p := range existing {
		if p.Position > next {
			next = p.Position
		}
	}
	return next + 1
}

// selectPhotos 找出待删除的照片，ID 必须属于当前组织。
func selectPhotos(existing []model.FeaturedPhoto, ids []uint) ([]model.FeaturedPhoto, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	byID := make(map[uint]model.FeaturedPhoto, len(existing))
	for _, p := range existing {
		byID[p.ID] = p
	}
	seen := make(map[uint]struct{}, len(ids))
	selected := make([]model.FeaturedPhoto, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: photo %d does not belong to this organization", ErrInvalidInput, id)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

func trimLinks(links map[string]string) map[string]string {
	out := make(map[string]string, len(links))
	for k, v := range links {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out
}

func tagIDs(tags []model.Tag) []uint {
	ids := make([]uint, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func missingTagNames(names []string, found []model.Tag) []string {
	have := make(map[string]struct{}, len(found))
	for _, t := range found {
		have[t.Name] = struct{}{}
	}
	var missing []string
	for _, n := range names {
		if _, ok := have[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
