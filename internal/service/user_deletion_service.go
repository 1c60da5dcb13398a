package service

import (
	"context"
	"errors"
	"fmt"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/identity"
	"orgdirectory/pkg/log"
	"strings"

	"gorm.io/gorm"
)

// UserDeletionService 删除身份服务中的用户。
// 任何通过身份服务校验的调用方都可以发起删除，不区分角色。
type UserDeletionService interface {
	DeleteUser(ctx context.Context, accessToken, userID string) error
}

type userDeletionService struct {
	client    identity.Client
	adminRepo repository.AdminRepository
	roleRepo  repository.RoleRepository
	userRepo  repository.UserRepository
}

func NewUserDeletionService(
	client identity.Client,
	adminRepo repository.AdminRepository,
	roleRepo repository.RoleRepository,
	userRepo repository.UserRepository,
) UserDeletionService {
	return &userDeletionService{client: client, adminRepo: adminRepo, roleRepo: roleRepo, userRepo: userRepo}
}

// DeleteUser 调用方校验失败返回包装了 ErrUnauthorized 的错误；删除失败返回身份服务的原始错误。
// 身份删除成功后清理本地的管理员绑定、角色与资料镜像，清理失败只记录日志。
func (s *userDeletionService) DeleteUser(ctx context.Context, accessToken, userID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrInvalidInput
	}
	if s.client == nil {
		return ErrInternal
	}
	caller, err := s.client.GetUser(ctx, accessToken)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	if caller == nil || caller.ID == "" {
		return ErrUnauthorized
	}
	if err := s.client.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.cleanupLocal(ctx, userID)
	return nil
}

func (s *userDeletionService) cleanupLocal(ctx context.Context, userID string) {
	if s.adminRepo != nil {
		admin, err := s.adminRepo.FindByUserID(ctx, userID)
		switch {
		case err == nil:
			if err := s.adminRepo.Delete(ctx, admin.ID); err != nil {
				log.Warnf("UserDeletionService: failed to remove admin binding %d of user %s: %v", admin.ID, userID, err)
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			log.Warnf("UserDeletionService: failed to load admin binding of user %s: %v", userID, err)
		}
	}
	if s.roleRepo != nil {
		if err := s.roleRepo.Delete(ctx, userID); err != nil {
			log.Warnf("UserDeletionService: failed to remove role of user %s: %v", userID, err)
		}
	}
	if s.userRepo != nil {
		if err := s.userRepo.Delete(ctx, userID); err != nil {
			log.Warnf("UserDeletionService: failed to remove profile of user %s: %v", userID, err)
		}
	}
}
