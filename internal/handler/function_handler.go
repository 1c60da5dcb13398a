package handler

import (
	"errors"
	"math"
	"net/http"
	"orgdirectory/internal/middleware"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/identity"
	"orgdirectory/pkg/log"
	"strings"

	"github.com/gin-gonic/gin"
)

// FunctionHandler 兼容原托管函数路由的两个接口：邀请管理员与删除用户。
// 响应体沿用函数运行时的格式，不使用 code/message/data 包装。
type FunctionHandler struct {
	invites   service.InviteService
	deletions service.UserDeletionService
}

func NewFunctionHandler(invites service.InviteService, deletions service.UserDeletionService) *FunctionHandler {
	return &FunctionHandler{invites: invites, deletions: deletions}
}

// Register 使用 Any 挂载，由 handler 自己返回 405，CORS 预检在中间件中处理。
func (h *FunctionHandler) Register(rg *gin.RouterGroup) {
	cors := middleware.CORS()
	rg.Any("/invite-admin", cors, h.InviteAdmin)
	rg.Any("/delete-user", cors, h.DeleteUser)
}

func (h *FunctionHandler) InviteAdmin(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	email, _ := body["email"].(string)
	if strings.TrimSpace(email) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is required and must be a string"})
		return
	}
	orgID, ok := integralNumber(body["org_id"])
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "org_id is required and must be a number"})
		return
	}

	user, err := h.invites.InviteAdmin(c.Request.Context(), email, orgID)
	if err != nil {
		log.Warnf("InviteAdmin: invite %s for org %d failed: %v", email, orgID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": identity.Message(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invitation sent successfully",
		"data":    user,
	})
}

func (h *FunctionHandler) DeleteUser(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "message": "Method not allowed"})
		return
	}

	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Missing authorization header"})
		return
	}
	accessToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

	var body struct {
		UserID string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.UserID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing userId"})
		return
	}

	err := h.deletions.DeleteUser(c.Request.Context(), accessToken, body.UserID)
	switch {
	case err == nil:
		log.Infof("DeleteUser: user %s deleted", body.UserID)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted successfully"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing userId"})
	default:
		log.Errorf("DeleteUser: delete %s failed: %v", body.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": identity.Message(err)})
	}
}

// integralNumber 只接受 JSON 数字形式的正整数，字符串形式的数字同样视为非法。
// float64(math.MaxInt64) 等于 2^63，因此上界用 >= 比较。
func integralNumber(v interface{}) (int64, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || f <= 0 || f >= float64(math.MaxInt64) {
		return 0, false
	}
	return int64(f), true
}
