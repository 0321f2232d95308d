package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

// 業務エラーコード
const (
	codeOK           = 0
	codeBadRequest   = 1001
	codeNotFound     = 1004
	codeNotReady     = 2001
	codeImportFailed = 3001
	codeResolution   = 3002
	codeInvalidView  = 3003
	codeExportFailed = 4001
	codeStreaming    = 5001
)

// Response 共通レスポンス
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    codeOK,
		Message: "success",
		Data:    data,
	})
}

func errorResponse(c *gin.Context, status, code int, message string) {
	c.JSON(status, Response{
		Code:    code,
		Message: message,
	})
}

// failWith エラーを通知つきで返す。Data は apperr.Notification
func failWith(c *gin.Context, status, code int, err error) {
	n := apperr.Notify(err)
	c.JSON(status, Response{
		Code:    code,
		Message: n.Description,
		Data:    n,
	})
}
