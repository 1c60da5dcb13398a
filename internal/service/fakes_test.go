package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/identity"
	"orgdirectory/pkg/search"

	"gorm.io/gorm"
)

// 以下 fake 通过函数字段注入行为，未设置的方法返回零值或 gorm.ErrRecordNotFound。

type fakeOrgRepo struct {
	createFn        func(ctx context.Context, org *model.Organization) error
	findByIDFn      func(ctx context.Context, orgID uint) (*model.Organization, error)
	findBySlugFn    func(ctx context.Context, slug string) (*model.Organization, error)
	listFn          func(ctx context.Context, filter repository.OrganizationFilter) ([]model.Organization, error)
	updateProfileFn func(ctx context.Context, org *model.Organization) error
	deleteCascadeFn func(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error)
}

func (f *fakeOrgRepo) Create(ctx context.Context, org *model.Organization) error {
	if f.createFn != nil {
		return f.createFn(ctx, org)
	}
	return nil
}

func (f *fakeOrgRepo) FindByID(ctx context.Context, orgID uint) (*model.Organization, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, orgID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) FindBySlug(ctx context.Context, slug string) (*model.Organization, error) {
	if f.findBySlugFn != nil {
		return f.findBySlugFn(ctx, slug)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) List(ctx context.Context, filter repository.OrganizationFilter) ([]model.Organization, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeOrgRepo) UpdateProfile(ctx context.Context, org *model.Organization) error {
	if f.updateProfileFn != nil {
		return f.updateProfileFn(ctx, org)
	}
	return nil
}

func (f *fakeOrgRepo) DeleteCascade(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error) {
	if f.deleteCascadeFn != nil {
		return f.deleteCascadeFn(ctx, orgID)
	}
	return nil, nil
}

type fakeTagRepo struct {
	findAllFn         func(ctx context.Context) ([]model.Tag, error)
	findByNamesFn     func(ctx context.Context, names []string) ([]model.Tag, error)
	createMissingFn   func(ctx context.Context, names []string) error
	findNamesByOrgFn  func(ctx context.Context, orgID uint) ([]string, error)
	findNamesByOrgsFn func(ctx context.Context, orgIDs []uint) (map[uint][]string, error)
	attachFn          func(ctx context.Context, orgID uint, tagIDs []uint) error
	detachFn          func(ctx context.Context, orgID uint, tagIDs []uint) error
}

func (f *fakeTagRepo) FindAll(ctx context.Context) ([]model.Tag, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeTagRepo) FindByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	if f.findByNamesFn != nil {
		return f.findByNamesFn(ctx, names)
	}
	return nil, nil
}

func (f *fakeTagRepo) CreateMissing(ctx context.Context, names []string) error {
	if f.createMissingFn != nil {
		return f.createMissingFn(ctx, names)
	}
	return nil
}

func (f *fakeTagRepo) FindNamesByOrg(ctx context.Context, orgID uint) ([]string, error) {
	if f.findNamesByOrgFn != nil {
		return f.findNamesByOrgFn(ctx, orgID)
	}
	return nil, nil
}

func (f *fakeTagRepo) FindNamesByOrgs(ctx context.Context, orgIDs []uint) (map[uint][]string, error) {
	if f.findNamesByOrgsFn != nil {
		return f.findNamesByOrgsFn(ctx, orgIDs)
	}
	return map[uint][]string{}, nil
}

func (f *fakeTagRepo) AttachToOrg(ctx context.Context, orgID uint, tagIDs []uint) error {
	if f.attachFn != nil {
		return f.attachFn(ctx, orgID, tagIDs)
	}
	return nil
}

func (f *fakeTagRepo) DetachFromOrg(ctx context.Context, orgID uint, tagIDs []uint) error {
	if f.detachFn != nil {
		return f.detachFn(ctx, orgID, tagIDs)
	}
	return nil
}

type fakePhotoRepo struct {
	findByOrgFn func(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error)
	createFn    func(ctx context.Context, photo *model.FeaturedPhoto) error
	deleteFn    func(ctx context.Context, photoID uint) error
}

func (f *fakePhotoRepo) FindByOrg(ctx context.Context, orgID uint) ([]model.FeaturedPhoto, error) {
	if f.findByOrgFn != nil {
		return f.findByOrgFn(ctx, orgID)
	}
	return nil, nil
}

func (f *fakePhotoRepo) Create(ctx context.Context, photo *model.FeaturedPhoto) error {
	if f.createFn != nil {
		return f.createFn(ctx, photo)
	}
	return nil
}

func (f *fakePhotoRepo) Delete(ctx context.Context, photoID uint) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, photoID)
	}
	return nil
}

type fakeCategoryRepo struct {
	findAllFn  func(ctx context.Context) ([]model.Category, error)
	findByIDFn func(ctx context.Context, id uint) (*model.Category, error)
}

func (f *fakeCategoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx)
	}
	return nil, nil
}

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return &model.Category{ID: id, Name: "Category"}, nil
}

type fakeAdminRepo struct {
	findByIDFn     func(ctx context.Context, id uint) (*model.Admin, error)
	findByEmailFn  func(ctx context.Context, email string) (*model.Admin, error)
	findByUserIDFn func(ctx context.Context, userID string) (*model.Admin, error)
	findByOrgIDFn  func(ctx context.Context, orgID uint) (*model.Admin, error)
	listFn         func(ctx context.Context, query string) ([]model.Admin, error)
	createFn       func(ctx context.Context, admin *model.Admin) error
	deleteFn       func(ctx context.Context, id uint) error
}

func (f *fakeAdminRepo) FindByID(ctx context.Context, id uint) (*model.Admin, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) FindByEmail(ctx context.Context, email string) (*model.Admin, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) FindByUserID(ctx context.Context, userID string) (*model.Admin, error) {
	if f.findByUserIDFn != nil {
		return f.findByUserIDFn(ctx, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) FindByOrgID(ctx context.Context, orgID uint) (*model.Admin, error) {
	if f.findByOrgIDFn != nil {
		return f.findByOrgIDFn(ctx, orgID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeAdminRepo) List(ctx context.Context, query string) ([]model.Admin, error) {
	if f.listFn != nil {
		return f.listFn(ctx, query)
	}
	return nil, nil
}

func (f *fakeAdminRepo) Create(ctx context.Context, admin *model.Admin) error {
	if f.createFn != nil {
		return f.createFn(ctx, admin)
	}
	return nil
}

func (f *fakeAdminRepo) Delete(ctx context.Context, id uint) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

type fakeUserRepo struct {
	findByIDFn    func(ctx context.Context, userID string) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	upsertFn      func(ctx context.Context, user *model.User) error
	deleteFn      func(ctx context.Context, userID string) error
}

func (f *fakeUserRepo) FindByID(ctx context.Context, userID string) (*model.User, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, userID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.findByEmailFn != nil {
		return f.findByEmailFn(ctx, email)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, user)
	}
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, userID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID)
	}
	return nil
}

type fakeRoleRepo struct {
	getFn    func(ctx context.Context, userID string) (string, error)
	upsertFn func(ctx context.Context, userID, role string) error
	deleteFn func(ctx context.Context, userID string) error
}

func (f *fakeRoleRepo) Get(ctx context.Context, userID string) (string, error) {
	if f.getFn != nil {
		return f.getFn(ctx, userID)
	}
	return "", gorm.ErrRecordNotFound
}

func (f *fakeRoleRepo) Upsert(ctx context.Context, userID, role string) error {
	if f.upsertFn != nil {
		return f.upsertFn(ctx, userID, role)
	}
	return nil
}

func (f *fakeRoleRepo) Delete(ctx context.Context, userID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID)
	}
	return nil
}

// fakeInvitationRepo 按 email+org 保存邀请的内存实现。
type fakeInvitationRepo struct {
	mu        sync.Mutex
	nextID    uint
	pending   map[string]model.AdminInvitation
	createErr error
}

func invitationKey(email string, orgID uint) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(email), orgID)
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *model.AdminInvitation) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending == nil {
		f.pending = map[string]model.AdminInvitation{}
	}
	f.nextID++
	inv.ID = f.nextID
	inv.Email = strings.ToLower(inv.Email)
	f.pending[invitationKey(inv.Email, inv.OrgID)] = *inv
	return nil
}

func (f *fakeInvitationRepo) FindPending(_ context.Context, email string, orgID uint) (*model.AdminInvitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.pending[invitationKey(email, orgID)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &inv, nil
}

func (f *fakeInvitationRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, inv := range f.pending {
		if inv.ID == id {
			delete(f.pending, k)
		}
	}
	return nil
}

func (f *fakeInvitationRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

// fakeActivityRepo 记录写入的日志，便于断言。
type fakeActivityRepo struct {
	mu      sync.Mutex
	entries []model.ActivityLog
	listFn  func(ctx context.Context, query string, limit int) ([]model.ActivityLog, error)
}

func (f *fakeActivityRepo) Create(_ context.Context, entry *model.ActivityLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry.ID = uint(len(f.entries) + 1)
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeActivityRepo) List(ctx context.Context, query string, limit int) ([]model.ActivityLog, error) {
	if f.listFn != nil {
		return f.listFn(ctx, query, limit)
	}
	return f.entries, nil
}

func (f *fakeActivityRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

// fakeStore 内存对象存储，failUpload/failRemove 中的路径会返回错误。
type fakeStore struct {
	objects    map[string][]byte
	uploaded   []string
	removed    []string
	failUpload map[string]bool
	failRemove map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:    map[string][]byte{},
		failUpload: map[string]bool{},
		failRemove: map[string]bool{},
	}
}

func (s *fakeStore) Upload(_ context.Context, objectPath string, r io.Reader, _ int64, _ string) error {
	if s.failUpload[objectPath] {
		return errors.New("quota exceeded")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.objects[objectPath] = data
	s.uploaded = append(s.uploaded, objectPath)
	return nil
}

func (s *fakeStore) Remove(_ context.Context, objectPath string) error {
	if s.failRemove[objectPath] {
		return errors.New("network unreachable")
	}
	delete(s.objects, objectPath)
	s.removed = append(s.removed, objectPath)
	return nil
}

func (s *fakeStore) PublicURL(objectPath string) string {
	return "https://cdn.example.com/org-assets/" + objectPath
}

type fakeIndex struct {
	upserted []search.Document
	deleted  []uint
	searchFn func(ctx context.Context, query string, limit int) ([]uint, error)
}

func (f *fakeIndex) Upsert(_ context.Context, doc search.Document) error {
	f.upserted = append(f.upserted, doc)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, orgID uint) error {
	f.deleted = append(f.deleted, orgID)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query string, limit int) ([]uint, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, query, limit)
	}
	return nil, nil
}

type fakePublisher struct {
	published []interface{}
}

func (p *fakePublisher) Publish(v interface{}) {
	p.published = append(p.published, v)
}

type fakeIdentity struct {
	inviteFn  func(ctx context.Context, email string, data map[string]interface{}) (*identity.User, error)
	deleteFn  func(ctx context.Context, userID string) error
	getUserFn func(ctx context.Context, accessToken string) (*identity.User, error)
}

func (f *fakeIdentity) InviteUserByEmail(ctx context.Context, email string, data map[string]interface{}) (*identity.User, error) {
	if f.inviteFn != nil {
		return f.inviteFn(ctx, email, data)
	}
	return &identity.User{ID: "invited", Email: email, UserMetadata: data}, nil
}

func (f *fakeIdentity) DeleteUser(ctx context.Context, userID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID)
	}
	return nil
}

func (f *fakeIdentity) GetUser(ctx context.Context, accessToken string) (*identity.User, error) {
	if f.getUserFn != nil {
		return f.getUserFn(ctx, accessToken)
	}
	return &identity.User{ID: "caller"}, nil
}
