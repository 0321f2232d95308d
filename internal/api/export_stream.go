package api

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
)

// ExportRequest 出力の指定。省略した項目は表示状態の値を使う
type ExportRequest struct {
	Users     []string `json:"users"`
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	Office    string   `json:"office"`
	ColorMode string   `json:"colorMode"` // color / grayscale
	Format    string   `json:"format"`    // pdf / xlsx / html
}

// ExportStream 帳票を出力する（SSE で進捗、完了時にダウンロード URL）
// POST /api/export
func (h *Handler) ExportStream(c *gin.Context) {
	var req ExportRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errorResponse(c, http.StatusBadRequest, codeBadRequest, "パラメータが正しくありません: "+err.Error())
			return
		}
	}

	st := h.store.Snapshot()
	if !st.Ready() {
		failWith(c, http.StatusConflict, codeNotReady, notReadyError())
		return
	}

	opts := exporter.Options{
		Index:     st.Index(),
		Users:     req.Users,
		Year:      req.Year,
		Month:     req.Month,
		Office:    model.Office(req.Office),
		ColorMode: exporter.ColorMode(req.ColorMode),
		Format:    exporter.Format(req.Format),
	}
	if opts.Users == nil {
		opts.Users = st.SelectedUsers
	}
	if opts.Year == 0 && opts.Month == 0 {
		opts.Year, opts.Month = st.Year, st.Month
	}
	if opts.Office == "" {
		opts.Office = st.ExportOffice
	}
	if opts.Format == "" {
		opts.Format = exporter.Format(h.cfg.Export.Format)
	}

	send, ok := openEventStream(c)
	if !ok {
		return
	}

	send(streamEvent{
		Type:    "start",
		Message: "帳票の出力を開始します",
		Data: map[string]any{
			"year":   opts.Year,
			"month":  opts.Month,
			"users":  len(opts.Users),
			"format": opts.Format,
		},
	})

	h.progress.begin()
	lastPercent := -1
	opts.Progress = func(p exporter.ProgressEvent) {
		h.progress.update(p)
		if p.Percent == lastPercent {
			return
		}
		lastPercent = p.Percent
		send(streamEvent{
			Type:    "progress",
			Message: p.Stage,
			Data:    map[string]any{"percent": p.Percent},
		})
	}

	artifact, err := h.exporter.Export(c.Request.Context(), opts)
	h.progress.finish(err)
	if err != nil {
		err = apperr.Ensure(err, apperr.KindExportGeneration)
		send(streamEvent{
			Type:    "error",
			Message: err.Error(),
			Data:    apperr.Notify(err),
		})
		return
	}

	token := h.downloads.Put(artifact)
	downloadURL := downloadPrefix(c.Request.URL.Path) + "/export/download/" + token

	h.log.WithFields(logrus.Fields{
		"file":  artifact.FileName,
		"pages": artifact.Pages,
	}).Debug("ダウンロードを用意しました")

	send(streamEvent{
		Type:    "done",
		Message: "帳票の出力が完了しました",
		Data: map[string]any{
			"percent":     100,
			"downloadUrl": downloadURL,
			"fileName":    artifact.FileName,
			"pages":       artifact.Pages,
		},
	})
}

// downloadPrefix "/api/export" -> "/api"
func downloadPrefix(path string) string {
	if i := strings.LastIndex(path, "/export"); i >= 0 {
		return path[:i]
	}
	return "/api"
}

// GetExportProgress 直近の出力の進捗
// GET /api/export/progress
func (h *Handler) GetExportProgress(c *gin.Context) {
	success(c, h.progress.view())
}

// DownloadExport 出力した帳票を返す（1 回限り）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "トークンがありません")
		return
	}

	artifact, ok := h.downloads.Take(token)
	if !ok {
		errorResponse(c, http.StatusNotFound, codeNotFound, "ダウンロードの有効期限が切れています")
		return
	}

	disposition := "attachment"
	if strings.HasPrefix(artifact.ContentType, "text/html") {
		disposition = "inline"
	}
	c.Header("Content-Disposition", contentDisposition(disposition, artifact.FileName))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Data)
}

// contentDisposition ASCII の代替名と RFC 5987 の UTF-8 名を並べる
func contentDisposition(disposition, fileName string) string {
	fallback := "calendar" + filepath.Ext(fileName)
	return fmt.Sprintf("%s; filename=%q; filename*=UTF-8''%s", disposition, fallback, url.PathEscape(fileName))
}
