package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/config"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/logging"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/store"
)

const csvHeader = "日付,開始時間,終了時間,職員名１,利用者,職種１,事業所名\n"

const unresolvedCSV = csvHeader +
	"2024-05-06,13:00,14:00,田中　太郎,やまだ　はなこ,看護師,西東京事業所\n" +
	"2024-05-06,09:30,10:30,鈴木　次郎,やまだ　はなこ,,西東京事業所\n" +
	"2024-05-07,10:00,11:00,田中　太郎,あおき　たろう,看護師,横浜戸塚事業所\n"

var fixedNow = time.Date(2024, time.April, 1, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Input.Encoding = "utf-8"
	cfg.Export.Format = "html"

	log := logging.Discard()
	h := NewHandler(Options{
		Config:    cfg,
		Store:     store.NewMemoryStore(session.New(fixedNow, "")),
		Downloads: store.NewDownloadStore(time.Minute),
		Exporter:  exporter.NewExporter(log, 0, exporter.HTMLRenderer{}, exporter.WorkbookRenderer{}),
		Log:       log,
		Now:       func() time.Time { return fixedNow },
	})
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r, h
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func upload(t *testing.T, r http.Handler, name, content, query string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload"+query, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) Response {
	t.Helper()
	var resp Response
	if data != nil {
		resp.Data = data
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func readEvents(t *testing.T, body string) []streamEvent {
	t.Helper()
	var events []streamEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev streamEvent
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	return events
}

func TestStatus_Empty(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status StatusResponse
	resp := decode(t, w, &status)
	assert.Equal(t, codeOK, resp.Code)
	assert.False(t, status.Initialized)
	assert.False(t, status.Ready)
	assert.Equal(t, 2024, status.CurrentYear)
	assert.Equal(t, 4, status.CurrentMonth)
}

func TestUploadResolveCalendarExport(t *testing.T) {
	r, _ := newTestRouter(t)

	// 取込: 鈴木 の職種が決まらない
	w := upload(t, r, "schedule.csv", unresolvedCSV, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var up uploadResponse
	decode(t, w, &up)
	assert.Equal(t, 3, up.Report.Rows)
	assert.Equal(t, 1, up.Report.UnresolvedStaff)
	assert.False(t, up.View.Ready)
	assert.Equal(t, []string{"鈴木　次郎"}, up.View.Resolution.Pending)

	// 確定はまだできない
	w = do(t, r, http.MethodPost, "/api/resolution/confirm", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// カレンダーも見られない
	w = do(t, r, http.MethodGet, "/api/calendar", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, http.MethodPut, "/api/resolution/choices", ChooseJobTypesRequest{
		Choices: []jobTypeChoice{{Staff: "鈴木　次郎", JobType: "理学療法士"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/api/resolution/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view session.View
	decode(t, w, &view)
	assert.True(t, view.Ready)
	assert.Equal(t, "やまだ　はなこ", view.SelectedUser)
	assert.Equal(t, []string{"あおき　たろう", "やまだ　はなこ"}, view.SelectedUsers)
	assert.Equal(t, 2024, view.Year)
	assert.Equal(t, 5, view.Month)

	// カレンダー: 2024-05-01 は水曜、5/6 は 2 週目の月曜
	w = do(t, r, http.MethodGet, "/api/calendar", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cal struct {
		User       string `json:"user"`
		Office     string `json:"office"`
		MonthLabel string `json:"monthLabel"`
		Offset     int    `json:"offset"`
		Weeks      [][]*struct {
			Day     int `json:"day"`
			Entries []struct {
				StartTime string `json:"startTime"`
				Staff     string `json:"staff"`
				JobType   string `json:"jobType"`
			} `json:"entries"`
		} `json:"weeks"`
	}
	decode(t, w, &cal)
	assert.Equal(t, "やまだ　はなこ", cal.User)
	assert.Equal(t, "西東京事業所", cal.Office)
	assert.Equal(t, "2024年05月", cal.MonthLabel)
	assert.Equal(t, 2, cal.Offset)
	assert.Nil(t, cal.Weeks[0][0])
	monday := cal.Weeks[1][0]
	require.NotNil(t, monday)
	assert.Equal(t, 6, monday.Day)
	require.Len(t, monday.Entries, 2)
	assert.Equal(t, "09:30", monday.Entries[0].StartTime)
	assert.Equal(t, "理学療法士", monday.Entries[0].JobType)

	// 出力
	w = do(t, r, http.MethodPost, "/api/export", ExportRequest{Users: []string{"やまだ　はなこ"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0].Type)
	last := events[len(events)-1]
	require.Equal(t, "done", last.Type, last.Message)

	var percents []float64
	for _, ev := range events {
		if ev.Type == "progress" {
			percents = append(percents, ev.Data.(map[string]interface{})["percent"].(float64))
		}
	}
	assert.Equal(t, []float64{0, 30, 50, 80, 100}, percents)

	done := last.Data.(map[string]interface{})
	downloadURL := done["downloadUrl"].(string)
	assert.True(t, strings.HasPrefix(downloadURL, "/api/export/download/"))
	assert.Equal(t, "やまだ　はなこ_2024年05月_カレンダー.html", done["fileName"])

	w = do(t, r, http.MethodGet, downloadURL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inline")
	assert.Contains(t, w.Body.String(), "2024年05月 やまだ　はなこ様")

	// 1 回限り
	w = do(t, r, http.MethodGet, downloadURL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_StreamEmitsDone(t *testing.T) {
	r, h := newTestRouter(t)

	csv := csvHeader + "2024-05-06,13:00,14:00,田中　太郎,やまだ　はなこ,看護師,\n"
	w := upload(t, r, "schedule.csv", csv, "?stream=true")
	require.Equal(t, http.StatusOK, w.Code)

	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	assert.Equal(t, "start", events[0].Type)
	assert.Equal(t, "done", events[len(events)-1].Type)

	var sawWarning bool
	for _, ev := range events {
		if ev.Type == "warning" {
			sawWarning = true
		}
	}
	assert.False(t, sawWarning)
	assert.True(t, h.store.Snapshot().Ready())
}

func TestUpload_MissingColumns(t *testing.T) {
	r, h := newTestRouter(t)

	w := upload(t, r, "schedule.csv", "日付,開始時間\n2024-05-06,13:00\n", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var n struct {
		Kind        string `json:"kind"`
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	resp := decode(t, w, &n)
	assert.Equal(t, codeImportFailed, resp.Code)
	assert.Equal(t, "MISSING_COLUMNS", n.Kind)
	assert.Equal(t, "エラー", n.Title)
	assert.Contains(t, n.Description, "利用者")
	assert.Nil(t, h.store.Snapshot().Upload)
}

func TestUpload_NoFile(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/upload", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSelectionAndView(t *testing.T) {
	r, _ := newTestRouter(t)

	csv := csvHeader +
		"2024-05-06,13:00,14:00,田中　太郎,やまだ　はなこ,看護師,西東京事業所\n" +
		"2024-05-07,10:00,11:00,鈴木　次郎,あおき　たろう,作業療法士,横浜戸塚事業所\n"
	require.Equal(t, http.StatusOK, upload(t, r, "schedule.csv", csv, "").Code)

	var view session.View
	w := do(t, r, http.MethodDelete, "/api/selection", nil)
	decode(t, w, &view)
	assert.Empty(t, view.SelectedUsers)

	w = do(t, r, http.MethodPost, "/api/selection/toggle", map[string]string{"user": "あおき　たろう"})
	decode(t, w, &view)
	assert.Equal(t, []string{"あおき　たろう"}, view.SelectedUsers)
	assert.Equal(t, "あおき　たろう", view.SelectedUser)

	w = do(t, r, http.MethodPost, "/api/selection/toggle", map[string]string{"user": "だれか"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPatch, "/api/view", map[string]interface{}{
		"filter":       map[string]string{"office": "西東京事業所"},
		"exportOffice": "小平サテライト",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	assert.Equal(t, []string{"やまだ　はなこ"}, view.SelectedUsers)
	assert.Equal(t, "小平サテライト", string(view.ExportOffice))

	w = do(t, r, http.MethodPatch, "/api/view", map[string]interface{}{"month": 13})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, r, http.MethodPost, "/api/view/month", map[string]int{"delta": -5})
	decode(t, w, &view)
	assert.Equal(t, 2023, view.Year)
	assert.Equal(t, 12, view.Month)

	w = do(t, r, http.MethodGet, "/api/users?q="+url.QueryEscape("あお"), nil)
	var users struct {
		Users []string `json:"users"`
	}
	decode(t, w, &users)
	assert.Equal(t, []string{"あおき　たろう"}, users.Users)

	w = do(t, r, http.MethodGet, "/api/staff", nil)
	var staff struct {
		Staff []staffItem `json:"staff"`
	}
	decode(t, w, &staff)
	require.Len(t, staff.Staff, 2)
	assert.Equal(t, "田中　太郎", staff.Staff[0].Name)
	assert.Equal(t, "田中", staff.Staff[0].Family)
	assert.Equal(t, "鈴木　次郎", staff.Staff[1].Name)
}

func TestExport_NoUsersSelected(t *testing.T) {
	r, _ := newTestRouter(t)

	csv := csvHeader + "2024-05-06,13:00,14:00,田中　太郎,やまだ　はなこ,看護師,\n"
	require.Equal(t, http.StatusOK, upload(t, r, "schedule.csv", csv, "").Code)
	require.Equal(t, http.StatusOK, do(t, r, http.MethodDelete, "/api/selection", nil).Code)

	w := do(t, r, http.MethodPost, "/api/export", nil)
	events := readEvents(t, w.Body.String())
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.Type)
	n := last.Data.(map[string]interface{})
	assert.Contains(t, n["description"], "利用者を選択してください")
}

func TestExport_BeforeUpload(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/export", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportProgress_ClearsAfterHold(t *testing.T) {
	t.Parallel()

	current := fixedNow
	p := newExportProgress(time.Second, func() time.Time { return current })
	assert.False(t, p.view().Active)

	p.begin()
	p.update(exporter.ProgressEvent{Percent: 50, Stage: "生成中"})
	assert.Equal(t, ExportProgressView{Active: true, Percent: 50, Stage: "生成中"}, p.view())

	p.finish(nil)
	assert.True(t, p.view().Active)

	current = current.Add(2 * time.Second)
	assert.False(t, p.view().Active)
}

func TestContentDisposition(t *testing.T) {
	t.Parallel()

	got := contentDisposition("attachment", "やまだ_2024年05月_カレンダー.pdf")
	assert.True(t, strings.HasPrefix(got, `attachment; filename="calendar.pdf"; filename*=UTF-8''`))
	assert.NotContains(t, got, "やまだ")
}
