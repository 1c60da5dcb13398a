package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"orgdirectory/internal/model"
	"orgdirectory/pkg/token"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

type fakeRevoker struct {
	token string
	ttl   time.Duration
}

func (f *fakeRevoker) Revoke(_ context.Context, tok string, ttl time.Duration) error {
	f.token, f.ttl = tok, ttl
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tok string) (bool, error) {
	return tok == f.token, nil
}

type sessionFixture struct {
	users    *fakeUserRepo
	roles    *fakeRoleRepo
	admins   *fakeAdminRepo
	orgs     *fakeOrgRepo
	invites  *fakeInvitationRepo
	activity *fakeActivityRepo
	revoker  *fakeRevoker
}

func newSessionFixture() *sessionFixture {
	return &sessionFixture{
		users:    &fakeUserRepo{},
		roles:    &fakeRoleRepo{},
		admins:   &fakeAdminRepo{},
		orgs:     &fakeOrgRepo{},
		invites:  &fakeInvitationRepo{},
		activity: &fakeActivityRepo{},
		revoker:  &fakeRevoker{},
	}
}

func (f *sessionFixture) service() *sessionService {
	return NewSessionService(f.users, f.roles, f.admins, f.orgs, f.invites, f.activity, f.revoker, nil).(*sessionService)
}

func claimsFor(sub, email string, metadata map[string]interface{}) *token.Claims {
	return &token.Claims{
		Email:            email,
		Role:             token.AuthenticatedAudience,
		UserMetadata:     metadata,
		RegisteredClaims: jwt.RegisteredClaims{Subject: sub},
	}
}

func TestSessionService_Resolve_Guest(t *testing.T) {
	s, err := newSessionFixture().service().Resolve(context.Background(), nil)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if s.Role != model.RoleGuest || s.IsAuthenticated() {
		t.Fatalf("unexpected session: %+v", s)
	}
}

func TestSessionService_Resolve_Roles(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		roleErr   error
		binding   *model.Admin
		wantRole  string
		wantOrgID uint
	}{
		{name: "no role row", roleErr: gorm.ErrRecordNotFound, wantRole: model.RoleUser},
		{name: "superadmin", role: model.RoleSuperadmin, wantRole: model.RoleSuperadmin},
		{name: "admin with binding", role: model.RoleAdmin, binding: &model.Admin{ID: 1, UserID: "u-1", OrgID: 7}, wantRole: model.RoleAdmin, wantOrgID: 7},
		{name: "admin without binding", role: model.RoleAdmin, wantRole: model.RoleUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			var synced *model.User
			f.users.upsertFn = func(_ context.Context, u *model.User) error {
				synced = u
				return nil
			}
			f.roles.getFn = func(context.Context, string) (string, error) {
				return tt.role, tt.roleErr
			}
			if tt.binding != nil {
				f.admins.findByUserIDFn = func(context.Context, string) (*model.Admin, error) {
					return tt.binding, nil
				}
			}

			s, err := f.service().Resolve(context.Background(), claimsFor("u-1", "A@Uni.edu", nil))
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if s.Role != tt.wantRole {
				t.Fatalf("Role = %q, want %q", s.Role, tt.wantRole)
			}
			if tt.wantOrgID != 0 && (s.OrgID == nil || *s.OrgID != tt.wantOrgID) {
				t.Fatalf("OrgID = %v, want %d", s.OrgID, tt.wantOrgID)
			}
			if synced == nil || synced.Email != "a@uni.edu" {
				t.Fatalf("资料未同步: %+v", synced)
			}
		})
	}
}

func TestSessionService_Resolve_RoleLookupError(t *testing.T) {
	f := newSessionFixture()
	f.roles.getFn = func(context.Context, string) (string, error) {
		return "", errors.New("db down")
	}

	if _, err := f.service().Resolve(context.Background(), claimsFor("u-1", "a@uni.edu", nil)); err == nil {
		t.Fatal("角色读取失败应返回错误")
	}
}

func TestSessionService_Resolve_AcceptsInvite(t *testing.T) {
	f := newSessionFixture()
	if err := f.invites.Create(context.Background(), &model.AdminInvitation{Email: "New@uni.edu", OrgID: 7}); err != nil {
		t.Fatal(err)
	}
	f.orgs.findByIDFn = func(_ context.Context, id uint) (*model.Organization, error) {
		return &model.Organization{OrgID: id, Slug: "ms"}, nil
	}
	var bound *model.Admin
	f.admins.createFn = func(_ context.Context, a *model.Admin) error {
		bound = a
		return nil
	}
	var role string
	f.roles.upsertFn = func(_ context.Context, _ string, r string) error {
		role = r
		return nil
	}

	s, err := f.service().Resolve(context.Background(), claimsFor("u-9", "new@uni.edu", map[string]interface{}{
		"org_id": "7",
		"name":   "Organization Admin",
	}))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if s.Role != model.RoleAdmin || s.OrgID == nil || *s.OrgID != 7 {
		t.Fatalf("unexpected session: %+v", s)
	}
	if bound == nil || bound.UserID != "u-9" || bound.OrgID != 7 || role != model.RoleAdmin {
		t.Fatalf("邀请未正确绑定: admin=%+v role=%q", bound, role)
	}
	if got := f.activity.actions(); len(got) != 1 || got[0] != model.ActionAdminAssigned {
		t.Fatalf("unexpected activity: %v", got)
	}
	if f.invites.count() != 0 {
		t.Fatal("绑定后邀请应被消费")
	}
}

func TestSessionService_Resolve_MetadataWithoutInvitation(t *testing.T) {
	tests := []struct {
		name   string
		invite *model.AdminInvitation
		email  string
	}{
		{name: "no invitation", email: "self@uni.edu"},
		{name: "invitation for another org", invite: &model.AdminInvitation{Email: "self@uni.edu", OrgID: 8}, email: "self@uni.edu"},
		{name: "invitation for another email", invite: &model.AdminInvitation{Email: "lead@uni.edu", OrgID: 7}, email: "self@uni.edu"},
		{name: "no email", invite: &model.AdminInvitation{Email: "lead@uni.edu", OrgID: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture()
			if tt.invite != nil {
				if err := f.invites.Create(context.Background(), tt.invite); err != nil {
					t.Fatal(err)
				}
			}
			f.orgs.findByIDFn = func(_ context.Context, id uint) (*model.Organization, error) {
				return &model.Organization{OrgID: id}, nil
			}
			f.admins.createFn = func(context.Context, *model.Admin) error {
				t.Fatal("没有匹配的邀请时不应插入绑定")
				return nil
			}
			f.roles.upsertFn = func(context.Context, string, string) error {
				t.Fatal("没有匹配的邀请时不应写入角色")
				return nil
			}

			// 用户自行写入 user_metadata.org_id
			s, err := f.service().Resolve(context.Background(), claimsFor("u-5", tt.email, map[string]interface{}{"org_id": "7"}))
			if err != nil {
				t.Fatalf("Resolve() error: %v", err)
			}
			if s.Role != model.RoleUser || s.OrgID != nil {
				t.Fatalf("unexpected session: %+v", s)
			}
		})
	}
}

func TestSessionService_Resolve_InviteIgnoredWhenOrgHasAdmin(t *testing.T) {
	f := newSessionFixture()
	if err := f.invites.Create(context.Background(), &model.AdminInvitation{Email: "new@uni.edu", OrgID: 7}); err != nil {
		t.Fatal(err)
	}
	f.orgs.findByIDFn = func(_ context.Context, id uint) (*model.Organization, error) {
		return &model.Organization{OrgID: id}, nil
	}
	f.admins.findByOrgIDFn = func(context.Context, uint) (*model.Admin, error) {
		return &model.Admin{ID: 1, UserID: "someone-else", OrgID: 7}, nil
	}
	f.admins.createFn = func(context.Context, *model.Admin) error {
		t.Fatal("组织已有管理员时不应插入绑定")
		return nil
	}

	s, err := f.service().Resolve(context.Background(), claimsFor("u-9", "new@uni.edu", map[string]interface{}{"org_id": "7"}))
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if s.Role != model.RoleUser {
		t.Fatalf("Role = %q, want user", s.Role)
	}
	if f.invites.count() != 1 {
		t.Fatal("未绑定时邀请应保留")
	}
}

func TestSessionService_SignOut(t *testing.T) {
	f := newSessionFixture()
	svc := f.service()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	claims := claimsFor("u-1", "a@uni.edu", nil)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(30 * time.Minute))

	if err := svc.SignOut(context.Background(), "tok", claims); err != nil {
		t.Fatalf("SignOut() error: %v", err)
	}
	if f.revoker.token != "tok" || f.revoker.ttl != 30*time.Minute {
		t.Fatalf("unexpected revoke: token=%q ttl=%v", f.revoker.token, f.revoker.ttl)
	}
	if err := svc.SignOut(context.Background(), "", claims); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("空 token 期望 ErrInvalidInput, 实际 %v", err)
	}
}

func TestSession_CanEdit(t *testing.T) {
	if !superadmin().CanEdit(99) {
		t.Error("superadmin 应可编辑任意组织")
	}
	if !adminOf(7).CanEdit(7) || adminOf(7).CanEdit(8) {
		t.Error("admin 只能编辑自己的组织")
	}
	if (&Session{Role: model.RoleUser, UserID: "u"}).CanEdit(7) {
		t.Error("普通用户不能编辑")
	}
	var nilSession *Session
	if nilSession.CanEdit(7) {
		t.Error("nil session 不能编辑")
	}
}
