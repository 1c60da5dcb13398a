package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// 托管函数客户端会携带的请求头
const corsAllowHeaders = "authorization, x-client-info, apikey, content-type"

// CORS 允许任意来源访问，预检请求直接返回 200 "ok"。
// methods 为空时默认 POST, OPTIONS。
func CORS(methods ...string) gin.HandlerFunc {
	if len(methods) == 0 {
		methods = []string{http.MethodPost, http.MethodOptions}
	}
	allowMethods := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
		h.Set("Access-Control-Allow-Methods", allowMethods)
		if c.Request.Method == http.MethodOptions {
			c.String(http.StatusOK, "ok")
			c.Abort()
			return
		}
		c.Next()
	}
}
