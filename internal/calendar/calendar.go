// Package calendar 月間カレンダーの升目を組み立てる
//
// 週は月曜始まり。祝日は月日の固定表で判定する（年ごとの移動は考慮しない）。
package calendar

import (
	"strconv"
	"time"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

// DayClass 日付セルの色分け
type DayClass string

const (
	ClassWeekday  DayClass = "weekday"
	ClassSaturday DayClass = "saturday"
	ClassHoliday  DayClass = "holiday" // 日曜または祝日表の日付
)

// Weekday 曜日見出し
type Weekday struct {
	Label string   `json:"label"`
	Class DayClass `json:"class"`
}

// WeekdayHeaders 月曜始まりの曜日見出し
var WeekdayHeaders = []Weekday{
	{Label: "月", Class: ClassWeekday},
	{Label: "火", Class: ClassWeekday},
	{Label: "水", Class: ClassWeekday},
	{Label: "木", Class: ClassWeekday},
	{Label: "金", Class: ClassWeekday},
	{Label: "土", Class: ClassSaturday},
	{Label: "日", Class: ClassHoliday},
}

type monthDay struct {
	month time.Month
	day   int
}

var holidays = map[monthDay]struct{}{
	{time.January, 1}:    {},
	{time.January, 8}:    {},
	{time.February, 11}:  {},
	{time.February, 23}:  {},
	{time.March, 20}:     {},
	{time.April, 29}:     {},
	{time.May, 3}:        {},
	{time.May, 4}:        {},
	{time.May, 5}:        {},
	{time.July, 15}:      {},
	{time.August, 11}:    {},
	{time.September, 16}: {},
	{time.September, 22}: {},
	{time.October, 14}:   {},
	{time.November, 3}:   {},
	{time.November, 23}:  {},
}

// IsHoliday 祝日表に含まれる月日か
func IsHoliday(month time.Month, day int) bool {
	_, ok := holidays[monthDay{month, day}]
	return ok
}

// Cell 日付セル
type Cell struct {
	Day     int              `json:"day"`
	Date    time.Time        `json:"date"`
	Weekday time.Weekday     `json:"weekday"`
	Class   DayClass         `json:"class"`
	Entries []schedule.Entry `json:"entries"`
}

// Label 日付の表示
func (c Cell) Label() string {
	return strconv.Itoa(c.Day)
}

// Grid 1 か月分の升目
type Grid struct {
	Year     int       `json:"year"`
	Month    int       `json:"month"`
	Offset   int       `json:"offset"` // 1 日の前に置く空セルの数
	Headers  []Weekday `json:"headers"`
	Days     []Cell    `json:"days"`
	FirstDay time.Time `json:"firstDay"`
	LastDay  time.Time `json:"lastDay"`
}

// EntryLookup 日ごとの予定の取得
type EntryLookup func(day int) []schedule.Entry

// MondayOffset 月曜始まりでの曜日の位置（月曜 0、日曜 6）
func MondayOffset(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// Classify 日付セルの色分け
func Classify(date time.Time) DayClass {
	switch {
	case date.Weekday() == time.Sunday || IsHoliday(date.Month(), date.Day()):
		return ClassHoliday
	case date.Weekday() == time.Saturday:
		return ClassSaturday
	default:
		return ClassWeekday
	}
}

// Project 年月の升目を作る。lookup が nil なら予定なし
func Project(year, month int, lookup EntryLookup) Grid {
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1)

	g := Grid{
		Year:     first.Year(),
		Month:    int(first.Month()),
		Offset:   MondayOffset(first.Weekday()),
		Headers:  WeekdayHeaders,
		FirstDay: first,
		LastDay:  last,
	}
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		cell := Cell{
			Day:     d.Day(),
			Date:    d,
			Weekday: d.Weekday(),
			Class:   Classify(d),
		}
		if lookup != nil {
			cell.Entries = lookup(d.Day())
		}
		g.Days = append(g.Days, cell)
	}
	return g
}

// ProjectUser 利用者の予定入りの升目を作る
func ProjectUser(idx *schedule.Index, user string, year, month int) Grid {
	return Project(year, month, func(day int) []schedule.Entry {
		return idx.EntriesForDay(user, day)
	})
}

// Weeks 7 列ごとに区切った行。先頭と末尾の空きは nil
func (g Grid) Weeks() [][]*Cell {
	total := g.Offset + len(g.Days)
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	cells := make([]*Cell, total)
	for i := range g.Days {
		cells[g.Offset+i] = &g.Days[i]
	}

	weeks := make([][]*Cell, 0, total/7)
	for i := 0; i < total; i += 7 {
		weeks = append(weeks, cells[i:i+7])
	}
	return weeks
}

// Label "YYYY年MM月"
func (g Grid) Label() string {
	return MonthLabel(g.Year, g.Month)
}

// MonthLabel "YYYY年MM月"（月は 2 桁）
func MonthLabel(year, month int) string {
	m := strconv.Itoa(month)
	if month < 10 {
		m = "0" + m
	}
	return strconv.Itoa(year) + "年" + m + "月"
}

// ShiftMonth 年月を delta か月ずらす
func ShiftMonth(year, month, delta int) (int, int) {
	t := time.Date(year, time.Month(month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}

// ValidMonth 年月が妥当か
func ValidMonth(year, month int) bool {
	return year >= 1900 && year <= 9999 && month >= 1 && month <= 12
}
