package exporter

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

const (
	sheetNameMaxRunes = 31
	workbookColumns   = 7
	entryLineHeight   = 30.0
	dayRowMinHeight   = 92.0
)

// WorkbookRenderer 利用者ごとに 1 シートの Excel ブックにする
type WorkbookRenderer struct{}

// Format 出力形式
func (WorkbookRenderer) Format() Format { return FormatXLSX }

// ContentType MIME タイプ
func (WorkbookRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Render 帳票を xlsx にする
func (WorkbookRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	styles, err := newWorkbookStyles(f, doc.Palette)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}

	used := make(map[string]struct{})
	for i, page := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Wrap(err, apperr.KindExportGeneration)
		}

		name := uniqueSheetName(page.User, used)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, apperr.Wrap(err, apperr.KindExportGeneration)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, apperr.Wrap(err, apperr.KindExportGeneration)
		}

		if err := writeCalendarSheet(f, name, doc, page, styles); err != nil {
			return nil, apperr.Wrap(errors.Wrapf(err, "sheet %s", name), apperr.KindExportGeneration)
		}
	}
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}
	return buf.Bytes(), nil
}

type workbookStyles struct {
	title   int
	header  int
	day     int
	empty   int
	note    int
	officeR int
}

func newWorkbookStyles(f *excelize.File, p Palette) (*workbookStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: hex(p.GridBorder), Style: 1},
		{Type: "right", Color: hex(p.GridBorder), Style: 1},
		{Type: "top", Color: hex(p.GridBorder), Style: 1},
		{Type: "bottom", Color: hex(p.GridBorder), Style: 1},
	}

	var s workbookStyles
	var err error
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 20},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex(p.HeaderBackground)}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.day, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "top", WrapText: true},
		Border:    border,
	}); err != nil {
		return nil, err
	}
	if s.empty, err = f.NewStyle(&excelize.Style{
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{hex(p.EmptyCell)}},
		Border: border,
	}); err != nil {
		return nil, err
	}
	if s.note, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	if s.officeR, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Size: 12},
		Alignment: &excelize.Alignment{Horizontal: "right", Vertical: "center"},
	}); err != nil {
		return nil, err
	}
	return &s, nil
}

func writeCalendarSheet(f *excelize.File, sheet string, doc *Document, page Page, styles *workbookStyles) error {
	orientation := "landscape"
	paperA4 := 9
	if err := f.SetPageLayout(sheet, &excelize.PageLayoutOptions{
		Orientation: &orientation,
		Size:        &paperA4,
	}); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "G", 20); err != nil {
		return err
	}

	// タイトル
	if err := f.MergeCell(sheet, "A1", "G1"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", page.Title); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "G1", styles.title); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 32); err != nil {
		return err
	}

	// 曜日見出し
	for i, h := range doc.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 2)
		if err != nil {
			return err
		}
		if err := f.SetCellRichText(sheet, cell, []excelize.RichTextRun{{
			Text: h.Label,
			Font: &excelize.Font{Bold: true, Color: hex(h.Color)},
		}}); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A2", "G2", styles.header); err != nil {
		return err
	}

	row := 3
	for _, week := range page.Weeks {
		maxEntries := 0
		for col, box := range week {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if box.Empty {
				if err := f.SetCellStyle(sheet, cell, cell, styles.empty); err != nil {
					return err
				}
				continue
			}
			if err := f.SetCellRichText(sheet, cell, dayRuns(box)); err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, cell, styles.day); err != nil {
				return err
			}
			if len(box.Entries) > maxEntries {
				maxEntries = len(box.Entries)
			}
		}
		height := dayRowMinHeight
		if h := 18 + entryLineHeight*float64(maxEntries); h > height {
			height = h
		}
		if err := f.SetRowHeight(sheet, row, height); err != nil {
			return err
		}
		row++
	}

	// 注意書きと連絡先
	noteRow := strconv.Itoa(row)
	if err := f.MergeCell(sheet, "A"+noteRow, "D"+noteRow); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A"+noteRow, doc.Note); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A"+noteRow, "D"+noteRow, styles.note); err != nil {
		return err
	}
	if err := f.MergeCell(sheet, "E"+noteRow, "G"+noteRow); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "E"+noteRow, doc.Phone); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "E"+noteRow, "G"+noteRow, styles.officeR)
}

// dayRuns 日付と予定をセル内のリッチテキストにする
func dayRuns(box DayBox) []excelize.RichTextRun {
	runs := []excelize.RichTextRun{{
		Text: box.Label,
		Font: &excelize.Font{Bold: true, Size: 11, Color: hex(box.Color)},
	}}
	for _, e := range box.Entries {
		runs = append(runs,
			excelize.RichTextRun{
				Text: "\n" + e.TimeRange,
				Font: &excelize.Font{Bold: true, Size: 11, Color: hex(e.TimeColor)},
			},
			excelize.RichTextRun{
				Text: "\n" + e.StaffFamily + "（" + string(e.JobType) + "）",
				Font: &excelize.Font{Size: 9, Color: hex(e.StaffColor)},
			},
		)
	}
	return runs
}

// uniqueSheetName Excel のシート名の制約（31 文字、使用不可文字、重複不可）に合わせる
func uniqueSheetName(name string, used map[string]struct{}) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(name, "'")
	if name == "" {
		name = "Sheet"
	}
	base := truncateRunes(name, sheetNameMaxRunes)

	candidate := base
	for n := 2; ; n++ {
		if _, taken := used[strings.ToLower(candidate)]; !taken {
			break
		}
		suffix := "(" + strconv.Itoa(n) + ")"
		candidate = truncateRunes(base, sheetNameMaxRunes-len([]rune(suffix))) + suffix
	}
	used[strings.ToLower(candidate)] = struct{}{}
	return candidate
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func hex(color string) string {
	return strings.TrimPrefix(color, "#")
}
