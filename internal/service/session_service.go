package service

import (
	"context"
	"errors"
	"fmt"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/database"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/token"
	"strings"
	"time"

	"gorm.io/gorm"
)

// SessionService 角色解析与登出。
type SessionService interface {
	// Resolve 根据已验证的 token 载荷解析调用方角色。
	// 会同步用户资料镜像，并在首次登录时接受邀请：user_metadata.org_id 指向的组织
	// 必须有一条发给该登录邮箱的待接受邀请。
	Resolve(ctx context.Context, claims *token.Claims) (*Session, error)
	// SignOut 吊销 access token 直到其自然过期。
	SignOut(ctx context.Context, accessToken string, claims *token.Claims) error
}

type sessionService struct {
	userRepo  repository.UserRepository
	roleRepo  repository.RoleRepository
	adminRepo repository.AdminRepository
	orgRepo   repository.OrganizationRepository
	invites   repository.InvitationRepository
	revoker   database.TokenRevoker
	activity  activityRecorder
	now       func() time.Time
}

func NewSessionService(
	userRepo repository.UserRepository,
	roleRepo repository.RoleRepository,
	adminRepo repository.AdminRepository,
	orgRepo repository.OrganizationRepository,
	invitationRepo repository.InvitationRepository,
	activityRepo repository.ActivityRepository,
	revoker database.TokenRevoker,
	publisher ActivityPublisher,
) SessionService {
	return &sessionService{
		userRepo:  userRepo,
		roleRepo:  roleRepo,
		adminRepo: adminRepo,
		orgRepo:   orgRepo,
		invites:   invitationRepo,
		revoker:   revoker,
		activity:  activityRecorder{repo: activityRepo, publisher: publisher},
		now:       time.Now,
	}
}

func (s *sessionService) Resolve(ctx context.Context, claims *token.Claims) (*Session, error) {
	if claims == nil || claims.Subject == "" {
		return GuestSession(), nil
	}

	profile := &model.User{
		ID:    claims.Subject,
		Email: strings.ToLower(strings.TrimSpace(claims.Email)),
		Name:  claims.DisplayName(),
	}
	if err := s.userRepo.Upsert(ctx, profile); err != nil {
		return nil, fmt.Errorf("sync user profile: %w", err)
	}

	session := &Session{UserID: profile.ID, Email: profile.Email, Role: model.RoleUser}

	role, err := s.roleRepo.Get(ctx, profile.ID)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		role = model.RoleUser
	default:
		return nil, fmt.Errorf("load role: %w", err)
	}

	switch role {
	case model.RoleSuperadmin:
		session.Role = model.RoleSuperadmin
		return session, nil
	case model.RoleAdmin:
		admin, err := s.adminRepo.FindByUserID(ctx, profile.ID)
		if err == nil {
			session.Role = model.RoleAdmin
			session.OrgID = uintPtr(admin.OrgID)
			return session, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load admin binding: %w", err)
		}
		// 角色是 admin 但组织已被删除，按普通用户处理
	}

	if orgID, ok := claims.InvitedOrgID(); ok {
		if bound, err := s.acceptInvite(ctx, session, orgID); err != nil {
			log.Warnf("SessionService.Resolve: invite for org %d not accepted: %v", orgID, err)
		} else if bound {
			session.Role = model.RoleAdmin
			session.OrgID = uintPtr(orgID)
		}
	}
	return session, nil
}

// acceptInvite 存在发给该邮箱的邀请、组织存在、尚无管理员且调用方未绑定其他组织时完成绑定。
// user_metadata 可由用户自行修改，只作为查找邀请的线索。
// 角色写入失败会撤销刚插入的绑定。
func (s *sessionService) acceptInvite(ctx context.Context, session *Session, orgID uint) (bool, error) {
	if s.invites == nil || session.Email == "" {
		return false, ErrInvitationNotFound
	}
	invite, err := s.invites.FindPending(ctx, session.Email, orgID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrInvitationNotFound
		}
		return false, err
	}
	if _, err := s.adminRepo.FindByUserID(ctx, session.UserID); err == nil {
		return false, ErrAdminBoundElsewhere
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if _, err := s.orgRepo.FindByID(ctx, orgID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrOrganizationNotFound
		}
		return false, err
	}
	if _, err := s.adminRepo.FindByOrgID(ctx, orgID); err == nil {
		return false, ErrOrganizationHasAdmin
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	admin := &model.Admin{UserID: session.UserID, OrgID: orgID, Email: session.Email}
	if err := bindAdmin(ctx, s.adminRepo, s.roleRepo, admin); err != nil {
		return false, err
	}
	if err := s.invites.Delete(ctx, invite.ID); err != nil {
		log.Warnf("SessionService.acceptInvite: failed to consume invitation %d: %v", invite.ID, err)
	}
	s.activity.record(ctx, session, model.ActionAdminAssigned, uintPtr(orgID), session.Email+" accepted invitation")
	return true, nil
}

func (s *sessionService) SignOut(ctx context.Context, accessToken string, claims *token.Claims) error {
	if strings.TrimSpace(accessToken) == "" {
		return ErrInvalidInput
	}
	if s.revoker == nil {
		return ErrInternal
	}
	return s.revoker.Revoke(ctx, accessToken, token.Remaining(claims, s.now()))
}

// bindAdmin 插入管理员绑定并把角色写为 admin。
// 两步不在同一事务中：角色写入失败时显式删除刚插入的绑定。
func bindAdmin(ctx context.Context, adminRepo repository.AdminRepository, roleRepo repository.RoleRepository, admin *model.Admin) error {
	if err := adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrOrganizationHasAdmin
		}
		return err
	}
	if err := roleRepo.Upsert(ctx, admin.UserID, model.RoleAdmin); err != nil {
		if delErr := adminRepo.Delete(ctx, admin.ID); delErr != nil {
			log.Errorf("bindAdmin: failed to roll back admin %d after role error: %v", admin.ID, delErr)
		}
		return fmt.Errorf("%w: %v", ErrRoleUpdateFailed, err)
	}
	return nil
}
