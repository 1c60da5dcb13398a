package handler

import (
	"net/http"
	"orgdirectory/internal/middleware"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/token"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions service.SessionService
}

func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Get 返回当前请求解析出的角色与绑定组织。
func (h *SessionHandler) Get(c *gin.Context) {
	session, ok := getSessionFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Session retrieved successfully",
		"data":    session,
	})
}

// SignOut 吊销当前 access token 直到其自然过期。
func (h *SessionHandler) SignOut(c *gin.Context) {
	claims, _ := c.Get(middleware.ContextClaimsKey)
	tokenClaims, ok := claims.(*token.Claims)
	accessToken := c.GetString(middleware.ContextTokenKey)
	if !ok || accessToken == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "Session not found in context",
		})
		return
	}
	if err := h.sessions.SignOut(c.Request.Context(), accessToken, tokenClaims); err != nil {
		log.Errorf("SessionHandler.SignOut: %v", err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":    http.StatusOK,
		"message": "Signed out successfully",
	})
}
