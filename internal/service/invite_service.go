package service

import (
	"context"
	"fmt"
	"orgdirectory/internal/model"
	"orgdirectory/internal/repository"
	"orgdirectory/pkg/identity"
	"strconv"
	"strings"
)

// InviteService 通过身份服务按邮箱邀请组织管理员。
type InviteService interface {
	// InviteAdmin 元数据中写入字符串形式的 org_id 与占位名称，并在本地记录待接受邀请，
	// 受邀者首次登录时两者匹配才完成绑定。身份服务的错误原样返回。
	InviteAdmin(ctx context.Context, email string, orgID int64) (*identity.User, error)
}

type inviteService struct {
	client          identity.Client
	invites         repository.InvitationRepository
	placeholderName string
}

func NewInviteService(client identity.Client, invites repository.InvitationRepository, placeholderName string) InviteService {
	if placeholderName == "" {
		placeholderName = "Organization Admin"
	}
	return &inviteService{client: client, invites: invites, placeholderName: placeholderName}
}

func (s *inviteService) InviteAdmin(ctx context.Context, email string, orgID int64) (*identity.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrInvalidInput
	}
	if s.client == nil || s.invites == nil {
		return nil, ErrInternal
	}
	user, err := s.client.InviteUserByEmail(ctx, email, map[string]interface{}{
		"org_id": strconv.FormatInt(orgID, 10),
		"name":   s.placeholderName,
	})
	if err != nil {
		return nil, err
	}
	// 邀请邮件已发出，本地记录失败时受邀者无法完成绑定，需要重新邀请
	if err := s.invites.Create(ctx, &model.AdminInvitation{Email: email, OrgID: uint(orgID)}); err != nil {
		return nil, fmt.Errorf("record invitation: %w", err)
	}
	return user, nil
}
