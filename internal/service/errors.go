// Package service 实现目录的业务规则：会话解析、组织编辑对账、控制台管理与两个托管函数。
// Handler 只依赖这里的接口与哨兵错误，不直接接触 Repository。
package service

import "errors"

// 哨兵错误：对外统一语义，隐藏底层实现细节
var (
	// ErrInvalidInput 必填字段缺失或格式不合法
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized 调用方身份无法确认
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden 已登录但无权执行该操作
	ErrForbidden = errors.New("forbidden")

	ErrOrganizationNotFound = errors.New("organization not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrAdminNotFound        = errors.New("admin not found")
	ErrSlugTaken            = errors.New("organization slug already taken")

	// ErrUploadFailed 对象存储写入失败（配额、网络等）
	ErrUploadFailed = errors.New("upload failed")
	// ErrPhotoDeleteFailed 照片对象删除失败，对应记录保留
	ErrPhotoDeleteFailed = errors.New("featured photo delete failed")

	ErrAdminBoundElsewhere  = errors.New("admin already bound to another organization")
	ErrAdminAlreadyAssigned = errors.New("admin already assigned to this organization")
	ErrOrganizationHasAdmin = errors.New("organization already has an admin")
	// ErrInvitationNotFound 登录邮箱与组织没有对应的待接受邀请
	ErrInvitationNotFound = errors.New("no pending invitation")
	// ErrRoleUpdateFailed 角色写入失败，新插入的管理员绑定已被撤销
	ErrRoleUpdateFailed = errors.New("role update failed")

	// ErrInternal 内部错误（对外不暴露细节）
	ErrInternal = errors.New("internal server error")
)
