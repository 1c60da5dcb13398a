package middleware

import (
	"net/http"
	"orgdirectory/internal/model"
	"strconv"

	"github.com/gin-gonic/gin"
)

// RequireSuperadmin 只放行超级管理员，必须在 AuthMiddleware 之后执行。
func RequireSuperadmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil || !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Session not found in context",
			})
			return
		}
		if session.Role != model.RoleSuperadmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Forbidden: Only superadmin can access this resource",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin 放行已绑定组织的管理员与超级管理员。
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil || !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Session not found in context",
			})
			return
		}
		if !session.IsSuperadmin() && (session.Role != model.RoleAdmin || session.OrgID == nil) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Forbidden: Only admins can access this resource",
			})
			return
		}
		c.Next()
	}
}

// RequireOrgEditor 放行超级管理员，或绑定组织与路径参数 param 一致的管理员。
func RequireOrgEditor(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := SessionFromContext(c)
		if session == nil || !session.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Session not found in context",
			})
			return
		}
		orgID, err := strconv.ParseUint(c.Param(param), 10, 64)
		if err != nil || orgID == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"code":    http.StatusBadRequest,
				"message": "Invalid organization id",
			})
			return
		}
		if !session.CanEdit(uint(orgID)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    http.StatusForbidden,
				"message": "Forbidden: You cannot edit this organization",
			})
			return
		}
		c.Next()
	}
}
