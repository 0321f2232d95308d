package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

// GetResolution 職種の手動入力の状態
// GET /api/resolution
func (h *Handler) GetResolution(c *gin.Context) {
	success(c, h.store.Snapshot().Workflow.Snapshot())
}

type jobTypeChoice struct {
	Staff   string        `json:"staff" binding:"required"`
	JobType model.JobType `json:"jobType" binding:"required"`
}

// ChooseJobTypesRequest 職種の選択。choices は選んだ順に適用する
type ChooseJobTypesRequest struct {
	Choices []jobTypeChoice `json:"choices" binding:"required,min=1,dive"`
}

// ChooseJobTypes 職員の職種を選ぶ
// PUT /api/resolution/choices
func (h *Handler) ChooseJobTypes(c *gin.Context) {
	var req ChooseJobTypesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "パラメータが正しくありません: "+err.Error())
		return
	}

	st, err := h.store.Update(func(s session.State) (session.State, error) {
		for _, ch := range req.Choices {
			var err error
			if s, err = session.ChooseJobType(s, ch.Staff, ch.JobType); err != nil {
				return s, err
			}
		}
		return s, nil
	})
	if err != nil {
		failWith(c, http.StatusUnprocessableEntity, codeResolution, err)
		return
	}
	success(c, st.Workflow.Snapshot())
}

// ConfirmResolution 選んだ職種を確定する。全員分が揃っていなければ何もしない
// POST /api/resolution/confirm
func (h *Handler) ConfirmResolution(c *gin.Context) {
	st, err := h.store.Update(session.ConfirmResolution)
	if err != nil {
		failWith(c, http.StatusConflict, codeResolution, err)
		return
	}
	h.metrics.ResolutionsTotal.Inc()
	h.log.WithField("users", len(st.Users)).Info("職種の入力を確定しました")
	success(c, st.View())
}
