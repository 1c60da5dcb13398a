package service

import "orgdirectory/internal/model"

// Session 是一次请求解析出的调用方身份，由中间件放入 gin 上下文并显式传给 Service。
// 每个受保护请求都会重新解析，不缓存角色。
type Session struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	// OrgID 仅 admin 有值，指向其唯一绑定的组织
	OrgID *uint `json:"orgId,omitempty"`
}

// GuestSession 未登录调用方。
func GuestSession() *Session {
	return &Session{Role: model.RoleGuest}
}

func (s *Session) IsSuperadmin() bool {
	return s != nil && s.Role == model.RoleSuperadmin
}

func (s *Session) IsAuthenticated() bool {
	return s != nil && s.Role != model.RoleGuest && s.UserID != ""
}

// CanEdit 超级管理员可编辑任意组织，管理员只能编辑自己绑定的组织。
func (s *Session) CanEdit(orgID uint) bool {
	if s == nil {
		return false
	}
	if s.IsSuperadmin() {
		return true
	}
	return s.Role == model.RoleAdmin && s.OrgID != nil && *s.OrgID == orgID
}
