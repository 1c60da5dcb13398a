package middleware

import (
	"errors"
	"net/http"
	"orgdirectory/internal/service"
	"orgdirectory/pkg/database"
	"orgdirectory/pkg/log"
	"orgdirectory/pkg/token"
	"strings"

	"github.com/gin-gonic/gin"
)

// gin 上下文中由 AuthMiddleware 注入的键
const (
	ContextSessionKey = "session"
	ContextClaimsKey  = "claims"
	ContextTokenKey   = "access_token"
)

// AuthMiddleware 是 access token 认证中间件，用于保护需要登录才能访问的接口。
// 工作流程：
//  1. 从请求头 Authorization 中提取 Bearer Token（websocket 握手也可使用 access_token 查询参数）
//  2. 验证身份服务签发的 token（签名、有效期、已登录用户）
//  3. 检查 token 是否已通过登出被吊销
//  4. 解析当前角色（每次请求都重新读取，不缓存）
//  5. 将 session、claims 与原始 token 注入 Gin 上下文
func AuthMiddleware(verifier *token.Verifier, revoker database.TokenRevoker, sessions service.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil || revoker == nil || sessions == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}

		tokenString, err := requestToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid authorization header",
			})
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil || claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid or expired access token",
			})
			return
		}

		revoked, err := revoker.IsRevoked(c.Request.Context(), tokenString)
		if err != nil {
			log.Errorf("AuthMiddleware: revocation lookup failed: %v", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}
		if revoked {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    http.StatusUnauthorized,
				"message": "Invalid or expired access token",
			})
			return
		}

		session, err := sessions.Resolve(c.Request.Context(), claims)
		if err != nil {
			log.Errorf("AuthMiddleware: failed to resolve session for %s: %v", claims.Subject, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    http.StatusInternalServerError,
				"message": "Internal server error",
			})
			return
		}

		c.Set(ContextSessionKey, session)
		c.Set(ContextClaimsKey, claims)
		c.Set(ContextTokenKey, tokenString)
		c.Next()
	}
}

// WebSocketTokenParam 浏览器 websocket 无法设置请求头，握手请求改用该查询参数携带 token。
const WebSocketTokenParam = "access_token"

// requestToken 优先读取 Authorization 头；仅 websocket 升级请求接受查询参数。
func requestToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" && isWebSocketUpgrade(c.Request) {
		if tok := strings.TrimSpace(c.Query(WebSocketTokenParam)); tok != "" {
			return tok, nil
		}
	}
	return extractBearerToken(header)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// extractBearerToken 从 Authorization 请求头中提取 Bearer Token。
// 期望格式：Bearer <token>，scheme 大小写不敏感。
func extractBearerToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	if parts[1] == "" {
		return "", errors.New("empty token")
	}
	return parts[1], nil
}

// SessionFromContext 读取 AuthMiddleware 注入的会话，未认证时返回 nil。
func SessionFromContext(c *gin.Context) *service.Session {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil
	}
	s, _ := v.(*service.Session)
	return s
}
