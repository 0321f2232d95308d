package exporter

import (
	"fmt"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/calendar"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

// FooterNote 帳票下部の注意書き
const FooterNote = "※交通事情により、10分程前後する可能性があります。"

// ColorMode 帳票の配色
type ColorMode string

const (
	ColorModeColor     ColorMode = "color"
	ColorModeGrayscale ColorMode = "grayscale"
)

// ParseColorMode 文字列から配色を取得する。空はカラー
func ParseColorMode(s string) (ColorMode, bool) {
	switch ColorMode(s) {
	case "", ColorModeColor:
		return ColorModeColor, true
	case ColorModeGrayscale, "gray", "grey":
		return ColorModeGrayscale, true
	}
	return "", false
}

// Palette 配色（#RRGGBB）
type Palette struct {
	Grayscale        bool
	NurseBackground  string
	OtherBackground  string
	EntryBorder      string
	TimeText         string
	StaffText        string
	DefaultText      string
	SaturdayText     string
	HolidayText      string
	GridBorder       string
	EmptyCell        string
	HeaderBackground string
}

// PaletteFor 配色モードごとの色
func PaletteFor(mode ColorMode) Palette {
	p := Palette{
		NurseBackground:  "#FFE4E1",
		OtherBackground:  "#E0FFE0",
		EntryBorder:      "#BEE3F8",
		TimeText:         "#2C5282",
		StaffText:        "#2B6CB0",
		DefaultText:      "#000000",
		SaturdayText:     "#3182CE",
		HolidayText:      "#E53E3E",
		GridBorder:       "#E2E8F0",
		EmptyCell:        "#F7FAFC",
		HeaderBackground: "#F7FAFC",
	}
	if mode == ColorModeGrayscale {
		p.Grayscale = true
		p.NurseBackground = "#FFFFFF"
		p.OtherBackground = "#E2E8F0"
		p.EntryBorder = "#000000"
		p.TimeText = "#000000"
		p.StaffText = "#000000"
		p.SaturdayText = "#000000"
		p.HolidayText = "#000000"
	}
	return p
}

// EntryBackground 職種ごとの予定の背景色
func (p Palette) EntryBackground(jt model.JobType) string {
	if jt.OrDefault() == model.JobTypeNurse {
		return p.NurseBackground
	}
	return p.OtherBackground
}

// DayText 日付・曜日の文字色
func (p Palette) DayText(class calendar.DayClass) string {
	switch class {
	case calendar.ClassSaturday:
		return p.SaturdayText
	case calendar.ClassHoliday:
		return p.HolidayText
	default:
		return p.DefaultText
	}
}

// Document 帳票全体の記述（レンダラーに渡す）
type Document struct {
	Year       int
	Month      int
	MonthLabel string
	Office     model.Office
	Phone      string
	Note       string
	ColorMode  ColorMode
	Palette    Palette
	Headers    []HeaderCell
	Pages      []Page
}

// HeaderCell 曜日見出し
type HeaderCell struct {
	Label string
	Color string
}

// Page 利用者 1 名分のページ
type Page struct {
	User  string
	Title string // "YYYY年MM月 <利用者>様"
	Weeks [][]DayBox
	Grid  calendar.Grid
}

// DayBox 日付セル。Empty なら月の前後の空白
type DayBox struct {
	Empty   bool
	Day     int
	Label   string
	Color   string
	Class   calendar.DayClass
	Entries []EntryBox
}

// EntryBox 予定 1 件の表示
type EntryBox struct {
	TimeRange   string
	Staff       string
	StaffFamily string
	JobType     model.JobType
	Background  string
	Border      string
	TimeColor   string
	StaffColor  string
}

// BuildDocument 選択された利用者ごとに 1 ページの帳票を組み立てる
func BuildDocument(idx *schedule.Index, opts Options) (*Document, error) {
	if len(opts.Users) == 0 {
		return nil, apperr.New(apperr.KindInvalidData, "利用者を選択してください")
	}
	if idx == nil {
		return nil, apperr.New(apperr.KindInvalidData, "予定データがありません。CSVファイルを読み込んでください")
	}
	office, ok := model.ParseOffice(string(opts.Office))
	if !ok {
		return nil, apperr.New(apperr.KindInvalidData, fmt.Sprintf("事業所を選択してください: %q", opts.Office))
	}
	if !calendar.ValidMonth(opts.Year, opts.Month) {
		return nil, apperr.New(apperr.KindInvalidData, fmt.Sprintf("年月が正しくありません: %d-%d", opts.Year, opts.Month))
	}
	mode, ok := ParseColorMode(string(opts.ColorMode))
	if !ok {
		return nil, apperr.New(apperr.KindInvalidData, fmt.Sprintf("配色が正しくありません: %q", opts.ColorMode))
	}

	var unknown []string
	for _, u := range opts.Users {
		if !idx.HasUser(u) {
			unknown = append(unknown, "利用者が見つかりません: "+u)
		}
	}
	if len(unknown) > 0 {
		return nil, apperr.New(apperr.KindInvalidData, unknown...)
	}

	palette := PaletteFor(mode)
	doc := &Document{
		Year:       opts.Year,
		Month:      opts.Month,
		MonthLabel: calendar.MonthLabel(opts.Year, opts.Month),
		Office:     office,
		Phone:      office.Phone(),
		Note:       FooterNote,
		ColorMode:  mode,
		Palette:    palette,
	}
	for _, h := range calendar.WeekdayHeaders {
		doc.Headers = append(doc.Headers, HeaderCell{Label: h.Label, Color: palette.DayText(h.Class)})
	}

	for _, user := range opts.Users {
		grid := calendar.ProjectUser(idx, user, opts.Year, opts.Month)
		doc.Pages = append(doc.Pages, Page{
			User:  user,
			Title: doc.MonthLabel + " " + user + "様",
			Weeks: buildWeeks(grid, palette),
			Grid:  grid,
		})
	}
	return doc, nil
}

func buildWeeks(grid calendar.Grid, palette Palette) [][]DayBox {
	weeks := grid.Weeks()
	out := make([][]DayBox, 0, len(weeks))
	for _, week := range weeks {
		row := make([]DayBox, 0, len(week))
		for _, cell := range week {
			if cell == nil {
				row = append(row, DayBox{Empty: true})
				continue
			}
			box := DayBox{
				Day:   cell.Day,
				Label: cell.Label(),
				Color: palette.DayText(cell.Class),
				Class: cell.Class,
			}
			for _, e := range cell.Entries {
				box.Entries = append(box.Entries, EntryBox{
					TimeRange:   e.TimeRange(),
					Staff:       e.Staff,
					StaffFamily: model.FamilyName(e.Staff),
					JobType:     e.JobType,
					Background:  palette.EntryBackground(e.JobType),
					Border:      palette.EntryBorder,
					TimeColor:   palette.TimeText,
					StaffColor:  palette.StaffText,
				})
			}
			row = append(row, box)
		}
		out = append(out, row)
	}
	return out
}
