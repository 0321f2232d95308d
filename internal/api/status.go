package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/resolution"
)

// StatusResponse 状態の概要
type StatusResponse struct {
	Initialized     bool             `json:"initialized"`     // ファイルを取り込んだか
	Ready           bool             `json:"ready"`           // 予定が確定しているか
	UploadID        string           `json:"uploadId"`        // 取込 ID
	FileName        string           `json:"fileName"`        // ファイル名
	Rows            int              `json:"rows"`            // 行数
	Users           int              `json:"users"`           // 利用者数
	UnresolvedStaff int              `json:"unresolvedStaff"` // 職種未設定の職員数
	Resolution      resolution.State `json:"resolution"`      // 手動入力の状態
	CurrentYear     int              `json:"currentYear"`     // 表示中の年
	CurrentMonth    int              `json:"currentMonth"`    // 表示中の月
	LastImportTime  string           `json:"lastImportTime"`  // 最後に取り込んだ時刻
}

// GetStatus 状態の概要
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	st := h.store.Snapshot()

	resp := StatusResponse{
		Ready:        st.Ready(),
		Resolution:   st.Workflow.State(),
		CurrentYear:  st.Year,
		CurrentMonth: st.Month,
	}
	if u := st.Upload; u != nil {
		resp.Initialized = true
		resp.UploadID = u.ID
		resp.FileName = u.FileName
		resp.Rows = u.Rows
		resp.Users = u.Users
		resp.UnresolvedStaff = u.UnresolvedStaff
		resp.LastImportTime = u.UploadedAt.Format(time.RFC3339)
	}
	success(c, resp)
}
