package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/importer"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

// uploadResponse 取込結果
type uploadResponse struct {
	Report *importer.ImportReport `json:"report"`
	View   session.View           `json:"view"`
}

// Upload 予定ファイルを取り込む
// POST /api/upload （multipart: file）。?stream=true なら進捗を SSE で返す
func (h *Handler) Upload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "ファイルを選択してください")
		return
	}
	if limit := h.cfg.Input.MaxBytes; limit > 0 && fh.Size > limit {
		failWith(c, http.StatusRequestEntityTooLarge, codeImportFailed,
			apperr.New(apperr.KindFileProcessing, "ファイルが大きすぎます"))
		return
	}

	f, err := fh.Open()
	if err != nil {
		failWith(c, http.StatusBadRequest, codeImportFailed, apperr.Wrap(err, apperr.KindFileProcessing))
		return
	}
	defer f.Close()

	// 読み込み前に前回の予定と入力フローを消す
	h.store.Apply(session.Reset)

	opts := importer.ImportOptions{
		FileName: fh.Filename,
		Reader:   f,
		Read:     h.readOptions(),
	}
	if c.Query("stream") == "true" {
		h.uploadStream(c, opts)
		return
	}

	report, err := h.coordinator.Run(c.Request.Context(), opts)
	if err != nil {
		failWith(c, http.StatusUnprocessableEntity, codeImportFailed, err)
		return
	}
	success(c, h.applyReport(report))
}

func (h *Handler) uploadStream(c *gin.Context, opts importer.ImportOptions) {
	send, ok := openEventStream(c)
	if !ok {
		return
	}

	for evt := range h.coordinator.Import(c.Request.Context(), opts) {
		out := streamEvent{
			Type:      evt.Type,
			Message:   evt.Message,
			Data:      evt.Data,
			Timestamp: evt.Timestamp,
		}
		if report, ok := evt.Data.(*importer.ImportReport); ok && evt.Type == "done" {
			out.Data = h.applyReport(report)
		}
		send(out)
	}
}

func (h *Handler) applyReport(report *importer.ImportReport) uploadResponse {
	st := h.store.Apply(func(s session.State) session.State {
		return session.ApplyUpload(s, report, h.now())
	})
	return uploadResponse{Report: report, View: st.View()}
}

// ClearUpload 取り込んだ予定を消す
// DELETE /api/upload
func (h *Handler) ClearUpload(c *gin.Context) {
	st := h.store.Apply(session.Reset)
	success(c, st.View())
}
