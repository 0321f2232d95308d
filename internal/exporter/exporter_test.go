package exporter

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/calendar"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/logging"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

func fixtureIndex() *schedule.Index {
	return schedule.NewIndex(model.UserScheduleMap{
		"さとう　はなこ": {
			{Date: 6, StartTime: "13:00", EndTime: "14:00", Staff: "いとう　りえ"},
			{Date: 6, StartTime: "09:30", EndTime: "10:30", Staff: "あべ　けん"},
		},
		"かとう　じろう": {
			{Date: 1, StartTime: "10:00", EndTime: "11:00", Staff: "あべ　けん"},
		},
	}, model.StaffJobTypeMap{
		"いとう　りえ": model.JobTypeNurse,
		"あべ　けん":  model.JobTypePhysicalTherapist,
	})
}

func baseOptions() Options {
	return Options{
		Index:  fixtureIndex(),
		Users:  []string{"さとう　はなこ"},
		Year:   2025,
		Month:  1,
		Office: model.OfficeNishiTokyo,
	}
}

type stubRenderer struct {
	format Format
	data   []byte
	err    error
	got    *Document
}

func (s *stubRenderer) Format() Format      { return s.format }
func (s *stubRenderer) ContentType() string { return "application/octet-stream" }
func (s *stubRenderer) Render(_ context.Context, doc *Document) ([]byte, error) {
	s.got = doc
	return s.data, s.err
}

func TestExport_ProgressMilestones(t *testing.T) {
	t.Parallel()

	r := &stubRenderer{format: FormatPDF, data: []byte("%PDF-1.4")}
	e := NewExporter(logging.Discard(), 0, r)

	var events []ProgressEvent
	opts := baseOptions()
	opts.Progress = func(ev ProgressEvent) { events = append(events, ev) }

	art, err := e.Export(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, events, 5)
	percents := make([]int, 0, len(events))
	for _, ev := range events {
		percents = append(percents, ev.Percent)
		assert.NotEmpty(t, ev.Stage)
	}
	assert.Equal(t, []int{0, 30, 50, 80, 100}, percents)
	assert.Equal(t, "完了しました", events[4].Stage)
	assert.Equal(t, "さとう　はなこ_2025年01月_カレンダー.pdf", art.FileName)
	assert.Equal(t, 1, art.Pages)
	assert.Equal(t, []byte("%PDF-1.4"), art.Data)
	require.NotNil(t, r.got)
	assert.Equal(t, model.OfficeNishiTokyo.Phone(), r.got.Phone)
}

func TestExport_NoUsersSelected(t *testing.T) {
	t.Parallel()

	e := NewExporter(logging.Discard(), 0, &stubRenderer{format: FormatPDF, data: []byte("x")})
	opts := baseOptions()
	opts.Users = nil

	_, err := e.Export(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidData, apperr.KindOf(err, ""))
	assert.Contains(t, err.Error(), "利用者を選択してください")
}

func TestExport_EmptyRenderIsGenerationError(t *testing.T) {
	t.Parallel()

	e := NewExporter(logging.Discard(), 0, &stubRenderer{format: FormatPDF})
	var last int
	opts := baseOptions()
	opts.Progress = func(ev ProgressEvent) { last = ev.Percent }

	_, err := e.Export(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, apperr.KindExportGeneration, apperr.KindOf(err, ""))
	assert.Equal(t, 50, last)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	t.Parallel()

	e := NewExporter(logging.Discard(), 0, &stubRenderer{format: FormatPDF, data: []byte("x")})
	opts := baseOptions()
	opts.Format = FormatXLSX

	_, err := e.Export(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, apperr.KindExportGeneration, apperr.KindOf(err, ""))
	assert.False(t, e.Supports(FormatXLSX))
	assert.True(t, e.Supports(FormatPDF))
}

func TestFileName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "さとう　はなこ_2025年03月_カレンダー.pdf", FileName([]string{"さとう　はなこ"}, 2025, 3, FormatPDF))
	assert.Equal(t, "カレンダー_2025年12月_3名.xlsx", FileName([]string{"a", "b", "c"}, 2025, 12, FormatXLSX))
	assert.Equal(t, "a_b_2025年01月_カレンダー.html", FileName([]string{"a/b"}, 2025, 1, FormatHTML))
}

func TestBuildDocument_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{"nil index", func(o *Options) { o.Index = nil }},
		{"unknown office", func(o *Options) { o.Office = "大阪事業所" }},
		{"bad month", func(o *Options) { o.Month = 13 }},
		{"bad color mode", func(o *Options) { o.ColorMode = "sepia" }},
		{"unknown user", func(o *Options) { o.Users = []string{"だれか"} }},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			opts := baseOptions()
			tc.mutate(&opts)
			_, err := BuildDocument(opts.Index, opts)
			require.Error(t, err)
			assert.Equal(t, apperr.KindInvalidData, apperr.KindOf(err, ""))
		})
	}
}

func TestBuildDocument_Layout(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.Users = []string{"さとう　はなこ", "かとう　じろう"}
	doc, err := BuildDocument(opts.Index, opts)
	require.NoError(t, err)

	require.Len(t, doc.Pages, 2)
	assert.Equal(t, "2025年01月 さとう　はなこ様", doc.Pages[0].Title)
	assert.Equal(t, FooterNote, doc.Note)
	assert.Equal(t, model.OfficeNishiTokyo.Phone(), doc.Phone)
	require.Len(t, doc.Headers, 7)
	assert.Equal(t, "月", doc.Headers[0].Label)
	assert.Equal(t, "#E53E3E", doc.Headers[6].Color)

	// 2025-01-01 は水曜
	weeks := doc.Pages[0].Weeks
	require.Len(t, weeks, 5)
	assert.True(t, weeks[0][0].Empty)
	assert.True(t, weeks[0][1].Empty)
	assert.Equal(t, 1, weeks[0][2].Day)
	assert.Equal(t, calendar.ClassHoliday, weeks[0][2].Class)
	assert.Equal(t, "#3182CE", weeks[0][5].Color)

	// 1/6 月曜
	monday := weeks[1][0]
	require.Equal(t, 6, monday.Day)
	require.Len(t, monday.Entries, 2)
	assert.Equal(t, "09:30 - 10:30", monday.Entries[0].TimeRange)
	assert.Equal(t, "あべ", monday.Entries[0].StaffFamily)
	assert.Equal(t, "#E0FFE0", monday.Entries[0].Background)
	assert.Equal(t, "#FFE4E1", monday.Entries[1].Background)
	assert.Equal(t, "#BEE3F8", monday.Entries[1].Border)
}

func TestBuildDocument_Grayscale(t *testing.T) {
	t.Parallel()

	opts := baseOptions()
	opts.ColorMode = ColorModeGrayscale
	doc, err := BuildDocument(opts.Index, opts)
	require.NoError(t, err)

	entries := doc.Pages[0].Weeks[1][0].Entries
	require.Len(t, entries, 2)
	assert.Equal(t, "#E2E8F0", entries[0].Background)
	assert.Equal(t, "#FFFFFF", entries[1].Background)
	assert.Equal(t, "#000000", entries[1].Border)
	assert.Equal(t, "#000000", entries[1].TimeColor)
	assert.Equal(t, "#000000", doc.Headers[6].Color)
}

func TestParseColorMode(t *testing.T) {
	t.Parallel()

	m, ok := ParseColorMode("")
	assert.True(t, ok)
	assert.Equal(t, ColorModeColor, m)
	m, ok = ParseColorMode("gray")
	assert.True(t, ok)
	assert.Equal(t, ColorModeGrayscale, m)
	_, ok = ParseColorMode("sepia")
	assert.False(t, ok)
}

func TestHTMLRenderer(t *testing.T) {
	t.Parallel()

	e := NewExporter(logging.Discard(), 0, HTMLRenderer{})
	opts := baseOptions()
	opts.Format = FormatHTML
	art, err := e.Export(context.Background(), opts)
	require.NoError(t, err)

	html := string(art.Data)
	assert.Equal(t, "text/html; charset=utf-8", art.ContentType)
	assert.Contains(t, html, "2025年01月 さとう　はなこ様")
	assert.Contains(t, html, "09:30 - 10:30")
	assert.Contains(t, html, FooterNote)
	assert.Contains(t, html, model.OfficeNishiTokyo.Phone())
	assert.Contains(t, html, "A4 landscape")
	assert.Equal(t, 1, strings.Count(html, `<section class="page">`))
}

func TestWorkbookRenderer(t *testing.T) {
	t.Parallel()

	e := NewExporter(logging.Discard(), 0, WorkbookRenderer{})
	opts := baseOptions()
	opts.Users = []string{"さとう　はなこ", "かとう　じろう"}
	opts.Format = FormatXLSX
	art, err := e.Export(context.Background(), opts)
	require.NoError(t, err)
	assert.Equal(t, "カレンダー_2025年01月_2名.xlsx", art.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(art.Data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"さとう　はなこ", "かとう　じろう"}, f.GetSheetList())

	title, err := f.GetCellValue("さとう　はなこ", "A1")
	require.NoError(t, err)
	assert.Equal(t, "2025年01月 さとう　はなこ様", title)

	header, err := f.GetCellValue("さとう　はなこ", "G2")
	require.NoError(t, err)
	assert.Equal(t, "日", header)

	// 1/6 は 2 週目の月曜 (A4)
	runs, err := f.GetCellRichText("さとう　はなこ", "A4")
	require.NoError(t, err)
	var text strings.Builder
	for _, r := range runs {
		text.WriteString(r.Text)
	}
	assert.Equal(t, "6\n09:30 - 10:30\nあべ（理学療法士）\n13:00 - 14:00\nいとう（看護師）", text.String())

	note, err := f.GetCellValue("さとう　はなこ", "A8")
	require.NoError(t, err)
	assert.Equal(t, FooterNote, note)
}

func TestUniqueSheetName(t *testing.T) {
	t.Parallel()

	used := map[string]struct{}{}
	assert.Equal(t, "a_b", uniqueSheetName("a/b", used))
	assert.Equal(t, "a_b(2)", uniqueSheetName("a:b", used))
	assert.Equal(t, "A_B(3)", uniqueSheetName("A?B", used))
	assert.Equal(t, "Sheet", uniqueSheetName("''", used))

	long := strings.Repeat("あ", 40)
	first := uniqueSheetName(long, used)
	assert.Len(t, []rune(first), sheetNameMaxRunes)
	second := uniqueSheetName(long, used)
	assert.Len(t, []rune(second), sheetNameMaxRunes)
	assert.True(t, strings.HasSuffix(second, "(2)"))
}
