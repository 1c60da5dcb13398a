package handler

import (
	"errors"
	"net/http"
	"orgdirectory/internal/middleware"
	"orgdirectory/internal/service"
	"strconv"

	"github.com/gin-gonic/gin"
)

// mapServiceError 把 Service 层哨兵错误转换为 HTTP 状态码和对外消息。
// 每种失败对应一条独立的可读消息，客户端据此提示用户后可重试。
func mapServiceError(err error) (httpStatus int, message string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request parameters"
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "You do not have permission to perform this action"
	case errors.Is(err, service.ErrOrganizationNotFound):
		return http.StatusNotFound, "Organization not found"
	case errors.Is(err, service.ErrCategoryNotFound):
		return http.StatusBadRequest, "Category does not exist"
	case errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound, "No user with this email has signed in yet"
	case errors.Is(err, service.ErrAdminNotFound):
		return http.StatusNotFound, "Admin not found"
	case errors.Is(err, service.ErrSlugTaken):
		return http.StatusConflict, "An organization with this acronym already exists"
	case errors.Is(err, service.ErrUploadFailed):
		return http.StatusBadGateway, "File upload failed"
	case errors.Is(err, service.ErrPhotoDeleteFailed):
		return http.StatusBadGateway, "Failed to delete featured photo"
	case errors.Is(err, service.ErrAdminBoundElsewhere):
		return http.StatusConflict, "This user is already an admin of another organization"
	case errors.Is(err, service.ErrAdminAlreadyAssigned):
		return http.StatusConflict, "This user is already the admin of this organization"
	case errors.Is(err, service.ErrOrganizationHasAdmin):
		return http.StatusConflict, "This organization already has an admin"
	case errors.Is(err, service.ErrRoleUpdateFailed):
		return http.StatusInternalServerError, "Failed to update user role"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(c *gin.Context, err error) {
	status, msg := mapServiceError(err)
	c.JSON(status, gin.H{
		"code":    status,
		"message": msg,
	})
}

// getSessionFromContext 读取 AuthMiddleware 注入的会话。
// 如果上下文异常，该函数会直接写错误响应并返回 false，调用方只需 `if !ok { return }`。
func getSessionFromContext(c *gin.Context) (*service.Session, bool) {
	session := middleware.SessionFromContext(c)
	if session == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "Session not found in context",
		})
		return nil, false
	}
	return session, true
}

// parseIDParam 读取正整数路径参数，非法时写 400 并返回 false。
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "Invalid " + name,
		})
		return 0, false
	}
	return uint(id), true
}
