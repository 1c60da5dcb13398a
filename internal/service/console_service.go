package service

import (
	"context"
	"errors"
	"fmt"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/search"
	"orgdirectory/pkg/storage"

	"gorm.io/gorm"
)

// ConsoleService 超级管理员控制台：组织、管理员与操作日志三个列表及删除操作。
type ConsoleService interface {
	ListOrganizations(ctx context.Context, session *Session, query string) ([]OrganizationView, error)
	ListAdmins(ctx context.Context, session *Session, query string) ([]model.Admin, error)
	ListActivity(ctx context.Context, session *Session, query string, limit int) ([]model.ActivityLog, error)
	// DeleteOrganization 级联删除组织；对象存储与搜索索引的清理尽力而为
	DeleteOrganization(ctx context.Context, session *Session, orgID uint) error
	// RemoveAdmin 解除绑定并把该身份的角色降为 user
	RemoveAdmin(ctx context.Context, session *Session, adminID uint) error
}

type consoleService struct {
	orgRepo   repository.OrganizationRepository
	tagRepo   repository.TagRepository
	adminRepo repository.AdminRepository
	roleRepo  repository.RoleRepository
	logRepo   repository.ActivityRepository
	store     storage.ObjectStore
	activity  activityRecorder
	indexer   orgIndexer
}

func NewConsoleService(
	orgRepo repository.OrganizationRepository,
	tagRepo repository.TagRepository,
	adminRepo repository.AdminRepository,
	roleRepo repository.RoleRepository,
	activityRepo repository.ActivityRepository,
	store storage.ObjectStore,
	index search.Index,
	publisher ActivityPublisher,
) ConsoleService {
	return &consoleService{
		orgRepo:   orgRepo,
		tagRepo:   tagRepo,
		adminRepo: adminRepo,
		roleRepo:  roleRepo,
		logRepo:   activityRepo,
		store:     store,
		activity:  activityRecorder{repo: activityRepo, publisher: publisher},
		indexer:   orgIndexer{index: index},
	}
}

func (s *consoleService) ListOrganizations(ctx context.Context, session *Session, query string) ([]OrganizationView, error) {
	if !session.IsSuperadmin() {
		return nil, ErrForbidden
	}
	orgs, err := s.orgRepo.List(ctx, repository.OrganizationFilter{Query: query})
	if err != nil {
		return nil, err
	}
	return buildViews(ctx, s.tagRepo, orgs)
}

func (s *consoleService) ListAdmins(ctx context.Context, session *Session, query string) ([]model.Admin, error) {
	if !session.IsSuperadmin() {
		return nil, ErrForbidden
	}
	return s.adminRepo.List(ctx, query)
}

func (s *consoleService) ListActivity(ctx context.Context, session *Session, query string, limit int) ([]model.ActivityLog, error) {
	if !session.IsSuperadmin() {
		return nil, ErrForbidden
	}
	return s.logRepo.List(ctx, query, limit)
}

func (s *consoleService) DeleteOrganization(ctx context.Context, session *Session, orgID uint) error {
	if !session.IsSuperadmin() {
		return ErrForbidden
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return err
	}

	photos, err := s.orgRepo.DeleteCascade(ctx, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOrganizationNotFound
		}
		return fmt.Errorf("delete organization %d: %w", orgID, err)
	}

	if s.store != nil {
		paths := make([]string, 0, len(photos)+1)
		for _, p := range photos {
			paths = append(paths, p.StoragePath)
		}
		if org.LogoURL != nil {
			paths = append(paths, storage.LogoPath(org.Slug))
		}
		for _, p := range paths {
			if err := s.store.Remove(ctx, p); err != nil {
				log.Warnf("ConsoleService.DeleteOrganization: orphaned object %s: %v", p, err)
			}
		}
	}
	s.indexer.remove(ctx, orgID)
	s.activity.record(ctx, session, model.ActionOrganizationDeleted, uintPtr(orgID), org.Name)
	return nil
}

func (s *consoleService) RemoveAdmin(ctx context.Context, session *Session, adminID uint) error {
	if !session.IsSuperadmin() {
		return ErrForbidden
	}
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	if err := s.adminRepo.Delete(ctx, admin.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAdminNotFound
		}
		return err
	}
	if err := s.roleRepo.Upsert(ctx, admin.UserID, model.RoleUser); err != nil {
		return fmt.Errorf("%w: %v", ErrRoleUpdateFailed, err)
	}
	s.activity.record(ctx, session, model.ActionAdminRemoved, uintPtr(admin.OrgID), admin.Email)
	return nil
}
