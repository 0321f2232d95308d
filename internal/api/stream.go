package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// streamEvent SSE で送るイベント
type streamEvent struct {
	Type      string      `json:"type"` // start/progress/info/warning/done/error
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// openEventStream SSE のヘッダーを書き、送信関数を返す
func openEventStream(c *gin.Context) (func(streamEvent), bool) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, http.StatusInternalServerError, codeStreaming, "ストリーミングに対応していません")
		return nil, false
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	return func(event streamEvent) {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}, true
}
