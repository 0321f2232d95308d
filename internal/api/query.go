package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/calendar"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

type staffItem struct {
	Name    string        `json:"name"`
	Family  string        `json:"family"`
	JobType model.JobType `json:"jobType"`
}

// ListStaff 職員一覧（職種順、同じ職種は日本語順）
// GET /api/staff
func (h *Handler) ListStaff(c *gin.Context) {
	idx := h.store.Snapshot().Index()

	names := idx.AllStaff()
	items := make([]staffItem, 0, len(names))
	for _, name := range names {
		items = append(items, staffItem{
			Name:    name,
			Family:  model.FamilyName(name),
			JobType: idx.JobTypeOf(name),
		})
	}
	success(c, gin.H{
		"staff":  items,
		"roster": idx.StaffByJobType(),
	})
}

type officeItem struct {
	Name  model.Office `json:"name"`
	Phone string       `json:"phone"`
}

// ListOffices 予定に現れる事業所名と、帳票に印字できる事業所
// GET /api/offices
func (h *Handler) ListOffices(c *gin.Context) {
	exportOffices := make([]officeItem, 0, len(model.Offices))
	for _, o := range model.Offices {
		exportOffices = append(exportOffices, officeItem{Name: o, Phone: o.Phone()})
	}
	success(c, gin.H{
		"inUse":  h.store.Snapshot().Index().OfficesInUse(),
		"export": exportOffices,
	})
}

// ListUsers 利用者の絞り込み
// GET /api/users?office=&staff=&q=
func (h *Handler) ListUsers(c *gin.Context) {
	st := h.store.Snapshot()
	users := st.Index().FilteredUsers(schedule.Filter{
		Office: c.Query("office"),
		Staff:  c.Query("staff"),
		Text:   c.Query("q"),
	})
	success(c, gin.H{
		"users":    users,
		"selected": st.SelectedUsers,
	})
}

type calendarResponse struct {
	User       string             `json:"user"`
	Office     string             `json:"office"`
	MonthLabel string             `json:"monthLabel"`
	Headers    []calendar.Weekday `json:"headers"`
	Offset     int                `json:"offset"`
	Weeks      [][]*calendar.Cell `json:"weeks"`
}

// GetCalendar 利用者の月間カレンダー。指定がなければ表示中の利用者と月
// GET /api/calendar?user=&year=&month=
func (h *Handler) GetCalendar(c *gin.Context) {
	st := h.store.Snapshot()
	if !st.Ready() {
		failWith(c, http.StatusConflict, codeNotReady, notReadyError())
		return
	}

	user := c.DefaultQuery("user", st.SelectedUser)
	year, month := st.Year, st.Month
	if v := c.Query("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, codeBadRequest, "year が正しくありません")
			return
		}
		year = n
	}
	if v := c.Query("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, codeBadRequest, "month が正しくありません")
			return
		}
		month = n
	}
	if !calendar.ValidMonth(year, month) {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "年月が正しくありません")
		return
	}

	idx := st.Index()
	if !idx.HasUser(user) {
		failWith(c, http.StatusNotFound, codeNotFound, apperr.New(apperr.KindInvalidData, "利用者が見つかりません: "+user))
		return
	}

	grid := calendar.ProjectUser(idx, user, year, month)
	success(c, calendarResponse{
		User:       user,
		Office:     idx.OfficeOf(user),
		MonthLabel: grid.Label(),
		Headers:    grid.Headers,
		Offset:     grid.Offset,
		Weeks:      grid.Weeks(),
	})
}

func notReadyError() error {
	return apperr.New(apperr.KindInvalidData, "予定データがありません。CSVファイルを読み込んでください")
}

// GetView 表示状態
// GET /api/view
func (h *Handler) GetView(c *gin.Context) {
	success(c, h.store.Snapshot().View())
}

// UpdateViewRequest 表示状態の変更。指定した項目だけ変える
type UpdateViewRequest struct {
	SelectedUser *string          `json:"selectedUser"`
	Year         *int             `json:"year"`
	Month        *int             `json:"month"`
	Filter       *schedule.Filter `json:"filter"`
	ExportOffice *string          `json:"exportOffice"`
}

// UpdateView 表示状態を変える
// PATCH /api/view
func (h *Handler) UpdateView(c *gin.Context) {
	var req UpdateViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "パラメータが正しくありません: "+err.Error())
		return
	}

	st, err := h.store.Update(func(s session.State) (session.State, error) {
		var err error
		if req.Filter != nil {
			s = session.SetFilter(s, *req.Filter)
		}
		if req.SelectedUser != nil {
			if s, err = session.SelectUser(s, *req.SelectedUser); err != nil {
				return s, err
			}
		}
		if req.Year != nil || req.Month != nil {
			year, month := s.Year, s.Month
			if req.Year != nil {
				year = *req.Year
			}
			if req.Month != nil {
				month = *req.Month
			}
			if s, err = session.SetMonth(s, year, month); err != nil {
				return s, err
			}
		}
		if req.ExportOffice != nil {
			if s, err = session.SetExportOffice(s, *req.ExportOffice); err != nil {
				return s, err
			}
		}
		return s, nil
	})
	if err != nil {
		failWith(c, http.StatusUnprocessableEntity, codeInvalidView, err)
		return
	}
	success(c, st.View())
}

// ShiftMonth 表示月を前後に移動する
// POST /api/view/month {"delta": -1}
func (h *Handler) ShiftMonth(c *gin.Context) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "パラメータが正しくありません: "+err.Error())
		return
	}
	st := h.store.Apply(func(s session.State) session.State {
		return session.ShiftMonth(s, req.Delta)
	})
	success(c, st.View())
}

// ToggleSelection 出力対象の選択を切り替える
// POST /api/selection/toggle {"user": "..."}
func (h *Handler) ToggleSelection(c *gin.Context) {
	var req struct {
		User string `json:"user" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, codeBadRequest, "利用者を指定してください")
		return
	}
	st, err := h.store.Update(func(s session.State) (session.State, error) {
		return session.ToggleUser(s, req.User)
	})
	if err != nil {
		failWith(c, http.StatusNotFound, codeNotFound, err)
		return
	}
	success(c, st.View())
}

// SelectAll 絞り込み結果の全員を出力対象にする
// POST /api/selection/all
func (h *Handler) SelectAll(c *gin.Context) {
	success(c, h.store.Apply(session.SelectAllFiltered).View())
}

// ClearSelection 出力対象を空にする
// DELETE /api/selection
func (h *Handler) ClearSelection(c *gin.Context) {
	success(c, h.store.Apply(session.ClearSelection).View())
}
