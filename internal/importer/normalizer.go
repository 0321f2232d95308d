package importer

import (
	"fmt"
	"strings"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/parser"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/util"
)

// Grouping 利用者ごとの予定と職種ごとの職員一覧
type Grouping struct {
	Schedule model.UserScheduleMap `json:"schedule"`
	Users    []string              `json:"users"` // 初出順
	Roster   model.StaffRoster     `json:"roster"`
}

// Result 正規化結果
// Grouping は Unresolved が空のときのみ設定される。DataYear/DataMonth は日付列から
// 読み取れた年月で、日だけの列なら 0
type Result struct {
	Grouping
	Records    []model.Record          `json:"records"`
	Unresolved []model.UnresolvedEntry `json:"unresolved"`
	DataYear   int                     `json:"dataYear"`
	DataMonth  int                     `json:"dataMonth"`
	Warnings   []string                `json:"warnings"`
}

// Resolved 職種の手動入力が不要か
func (r *Result) Resolved() bool {
	return len(r.Unresolved) == 0
}

// Normalize 読み込んだ表を検証し、職種を補完して予定に変換する
//
// 検証エラーはすべて集めて 1 つのエラーとして返す。職種が決まらない行が残った場合は
// Unresolved を返し、Schedule/Roster は作らない。
func Normalize(table *parser.Table) (*Result, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, apperr.New(apperr.KindParsing, parser.EmptyFileMessage)
	}
	if missing := table.MissingColumns(model.RequiredColumns); len(missing) > 0 {
		return nil, apperr.New(apperr.KindMissingColumns, strings.Join(missing, ", "))
	}

	result := &Result{}
	var problems []string
	for i, raw := range table.Rows {
		rec, errs := toRecord(i, raw)
		problems = append(problems, errs...)
		result.Records = append(result.Records, rec)

		if result.DataYear == 0 {
			if y, m, ok := parser.ExtractYearMonth(raw.Get(model.ColumnDate)); ok {
				result.DataYear, result.DataMonth = y, m
			}
		}
	}
	if len(problems) > 0 {
		return nil, apperr.New(apperr.KindInvalidData, problems...)
	}

	result.Unresolved, result.Warnings = fillJobTypes(result.Records)
	if result.Resolved() {
		result.Grouping = Group(result.Records)
	}
	return result, nil
}

// toRecord 1 行を検証して Record にする
func toRecord(index int, raw parser.RawRow) (model.Record, []string) {
	n := index + 1
	var errs []string
	rec := model.Record{
		Index:      index,
		Line:       raw.Line,
		User:       raw.Get(model.ColumnUser),
		RawJobType: raw.Get(model.ColumnJobType),
		Row: model.ScheduleRow{
			Staff:      raw.Get(model.ColumnStaff),
			OfficeName: raw.Get(model.ColumnOfficeName),
		},
	}

	if rec.User == "" {
		errs = append(errs, fmt.Sprintf("%d行目: 利用者名が入力されていません", n))
	}

	if date := raw.Get(model.ColumnDate); date == "" {
		errs = append(errs, fmt.Sprintf("%d行目: 日付が入力されていません", n))
	} else if day, ok := parser.ParseDay(date); ok {
		rec.Row.Date = day
	} else {
		errs = append(errs, fmt.Sprintf("%d行目: 日付の形式が正しくありません (%s)", n, date))
	}

	if start := raw.Get(model.ColumnStartTime); start == "" {
		errs = append(errs, fmt.Sprintf("%d行目: 開始時間が入力されていません", n))
	} else if t, ok := parser.NormalizeTime(start); ok {
		rec.Row.StartTime = t
	} else {
		errs = append(errs, fmt.Sprintf("%d行目: 開始時間の形式が正しくありません (%s)", n, start))
	}

	if end := raw.Get(model.ColumnEndTime); end == "" {
		errs = append(errs, fmt.Sprintf("%d行目: 終了時間が入力されていません", n))
	} else if t, ok := parser.NormalizeTime(end); ok {
		rec.Row.EndTime = t
	} else {
		errs = append(errs, fmt.Sprintf("%d行目: 終了時間の形式が正しくありません (%s)", n, end))
	}

	if rec.Row.Staff == "" {
		errs = append(errs, fmt.Sprintf("%d行目: 職員名が入力されていません", n))
	}

	if jt, ok := model.ParseJobType(rec.RawJobType); ok {
		rec.JobType = jt
	}
	return rec, errs
}

// fillJobTypes 職種が空または不正な行を同じ職員の他の行から補完する
// 補完できなかった行を UnresolvedEntry として返す
func fillJobTypes(records []model.Record) ([]model.UnresolvedEntry, []string) {
	known := make(map[string]model.JobType)
	for _, rec := range records {
		if !rec.JobType.Valid() {
			continue
		}
		if _, ok := known[rec.Row.Staff]; !ok {
			known[rec.Row.Staff] = rec.JobType
		}
	}

	var unresolved []model.UnresolvedEntry
	var warnings []string
	for i := range records {
		rec := &records[i]
		if rec.JobType.Valid() {
			continue
		}
		if rec.RawJobType != "" {
			warnings = append(warnings, fmt.Sprintf("%d行目: 無効な職種が含まれています (%s)", rec.Index+1, rec.RawJobType))
		}
		if jt, ok := known[rec.Row.Staff]; ok {
			rec.JobType = jt
			continue
		}
		unresolved = append(unresolved, model.UnresolvedEntry{
			StaffName: rec.Row.Staff,
			RowIndex:  rec.Index,
		})
	}
	return unresolved, warnings
}

// Group 利用者ごとに予定をまとめ、職種ごとの職員一覧を作る
// 予定は入力順のまま、職員一覧は重複を除いて日本語順に並べる
func Group(records []model.Record) Grouping {
	g := Grouping{
		Schedule: make(model.UserScheduleMap),
		Roster:   model.NewStaffRoster(),
	}
	staffByType := make(map[model.JobType][]string, len(model.JobTypes))

	for _, rec := range records {
		if rec.User == "" {
			continue
		}
		if _, ok := g.Schedule[rec.User]; !ok {
			g.Users = append(g.Users, rec.User)
		}
		g.Schedule[rec.User] = append(g.Schedule[rec.User], rec.Row)

		if rec.JobType.Valid() {
			staffByType[rec.JobType] = append(staffByType[rec.JobType], rec.Row.Staff)
		}
	}

	for _, jt := range model.JobTypes {
		g.Roster[jt] = util.UniqueSortedJapanese(staffByType[jt])
	}
	return g
}
