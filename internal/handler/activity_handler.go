package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ActivityStream 控制台活动流的 websocket 端点，实现方为 realtime.Hub。
type ActivityStream interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type ActivityHandler struct {
	stream ActivityStream
}

func NewActivityHandler(stream ActivityStream) *ActivityHandler {
	return &ActivityHandler{stream: stream}
}

// Stream 升级为 websocket 连接，之后每条新的活动记录以 JSON 推送。
func (h *ActivityHandler) Stream(c *gin.Context) {
	h.stream.ServeWS(c.Writer, c.Request)
}
