package middleware

import (
	"bytes"
	"fmt"
	"io"
	"orgdirectory/pkg/log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody 单个请求/响应体最多记录的字节数
const maxLoggedBody = 4 << 10

// BodyLogWriter 用于记录请求和响应的body
type BodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 实现了 io.Writer 接口，将响应写入 gin.ResponseWriter 和一个内部的 buffer
func (w *BodyLogWriter) Write(b []byte) (int, error) {
	if room := maxLoggedBody - w.body.Len(); room > 0 {
		if len(b) > room {
			w.body.Write(b[:room])
		} else {
			w.body.Write(b)
		}
	}
	return w.ResponseWriter.Write(b)
}

// RequestLogger 记录每个请求的耗时、状态与请求/响应体。
// multipart 上传只记录大小；websocket 升级请求不包装 ResponseWriter。
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		if strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
			c.Next()
			log.Infow("HTTP request",
				"latency", time.Since(startTime),
				"status", c.Writer.Status(),
				"client_ip", c.ClientIP(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"upgrade", "websocket",
			)
			return
		}

		requestBody := ""
		if strings.HasPrefix(c.ContentType(), "multipart/") {
			requestBody = fmt.Sprintf("<multipart %d bytes>", c.Request.ContentLength)
		} else if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			// 重新放回，后续处理函数可以正常读取
			c.Request.Body = io.NopCloser(bytes.NewBuffer(raw))
			if len(raw) > maxLoggedBody {
				raw = raw[:maxLoggedBody]
			}
			requestBody = string(raw)
		}

		blw := &BodyLogWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = blw

		c.Next()

		log.Infow("HTTP request",
			"latency", time.Since(startTime),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_body", requestBody,
			"response_body", blw.body.String(),
		)
	}
}
