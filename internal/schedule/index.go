// Package schedule 利用者ごとの予定に対する検索・並べ替え
package schedule

import (
	"sort"
	"strings"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/util"
)

// Entry 職種付きの予定
type Entry struct {
	model.ScheduleRow
	JobType model.JobType `json:"jobType"`
}

// Filter 利用者一覧の絞り込み条件（空文字は条件なし）
type Filter struct {
	Office string `json:"office"`
	Staff  string `json:"staff"`
	Text   string `json:"text"`
}

// Index 予定と職種の読み取り専用ビュー
type Index struct {
	schedule  model.UserScheduleMap
	jobTypes  model.StaffJobTypeMap
	userOrder []string
}

// NewIndex 予定と職種から Index を作る。引数は変更しない
func NewIndex(schedule model.UserScheduleMap, jobTypes model.StaffJobTypeMap) *Index {
	idx := &Index{
		schedule: schedule,
		jobTypes: jobTypes,
	}
	users := make([]string, 0, len(schedule))
	for user := range schedule {
		users = append(users, user)
	}
	idx.userOrder = util.UniqueSortedJapanese(users)
	return idx
}

// Empty 予定が 1 件もないか
func (x *Index) Empty() bool {
	return len(x.schedule) == 0
}

// Users 全利用者（日本語順）
func (x *Index) Users() []string {
	return append([]string(nil), x.userOrder...)
}

// HasUser 利用者が存在するか
func (x *Index) HasUser(user string) bool {
	_, ok := x.schedule[user]
	return ok
}

// JobTypeOf 職員の職種。未確定なら DefaultJobType
func (x *Index) JobTypeOf(staff string) model.JobType {
	return x.jobTypes[staff].OrDefault()
}

// Rows 利用者の予定（入力順のコピー）
func (x *Index) Rows(user string) []model.ScheduleRow {
	return append([]model.ScheduleRow(nil), x.schedule[user]...)
}

// AllStaff 予定に登場する全職員
// 職種の優先度順、同じ職種の中では日本語順
func (x *Index) AllStaff() []string {
	seen := make(map[string]struct{})
	var staff []string
	for _, rows := range x.schedule {
		for _, row := range rows {
			if _, ok := seen[row.Staff]; ok {
				continue
			}
			seen[row.Staff] = struct{}{}
			staff = append(staff, row.Staff)
		}
	}

	c := util.NewJapaneseCollator()
	sort.SliceStable(staff, func(i, j int) bool {
		pi, pj := x.JobTypeOf(staff[i]).Priority(), x.JobTypeOf(staff[j]).Priority()
		if pi != pj {
			return pi < pj
		}
		return util.Less(c, staff[i], staff[j])
	})
	return staff
}

// StaffByJobType 職種ごとの職員（各職種とも日本語順）
func (x *Index) StaffByJobType() model.StaffRoster {
	roster := model.NewStaffRoster()
	for _, s := range x.AllStaff() {
		jt := x.JobTypeOf(s)
		roster[jt] = append(roster[jt], s)
	}
	return roster
}

// OfficesInUse 予定に登場する事業所名（空を除く、日本語順）
func (x *Index) OfficesInUse() []string {
	var offices []string
	for _, rows := range x.schedule {
		for _, row := range rows {
			if row.OfficeName != "" {
				offices = append(offices, row.OfficeName)
			}
		}
	}
	return util.UniqueSortedJapanese(offices)
}

// UsersByOffice 事業所の予定を持つ利用者（日本語順）
func (x *Index) UsersByOffice(office string) []string {
	return x.usersWhere(func(row model.ScheduleRow) bool {
		return row.OfficeName == office
	})
}

// UsersByStaff 職員が担当する利用者（日本語順）
func (x *Index) UsersByStaff(staff string) []string {
	return x.usersWhere(func(row model.ScheduleRow) bool {
		return row.Staff == staff
	})
}

// FilteredUsers 全利用者を事業所・職員・名前（部分一致、大文字小文字を区別）で絞り込む
func (x *Index) FilteredUsers(f Filter) []string {
	users := x.Users()
	if f.Office != "" {
		users = intersect(users, x.UsersByOffice(f.Office))
	}
	if f.Staff != "" {
		users = intersect(users, x.UsersByStaff(f.Staff))
	}
	if f.Text == "" {
		return users
	}
	out := users[:0]
	for _, u := range users {
		if strings.Contains(u, f.Text) {
			out = append(out, u)
		}
	}
	return out
}

// EntriesForDay 利用者のその日の予定（開始時刻順、同時刻は入力順）
func (x *Index) EntriesForDay(user string, day int) []Entry {
	var entries []Entry
	for _, row := range x.schedule[user] {
		if row.Date != day {
			continue
		}
		entries = append(entries, Entry{
			ScheduleRow: row,
			JobType:     x.JobTypeOf(row.Staff),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].StartMinutes() < entries[j].StartMinutes()
	})
	return entries
}

// OfficeOf 利用者の予定に最初に現れる事業所名
func (x *Index) OfficeOf(user string) string {
	for _, row := range x.schedule[user] {
		if row.OfficeName != "" {
			return row.OfficeName
		}
	}
	return ""
}

func (x *Index) usersWhere(match func(model.ScheduleRow) bool) []string {
	var users []string
	for _, user := range x.userOrder {
		for _, row := range x.schedule[user] {
			if match(row) {
				users = append(users, user)
				break
			}
		}
	}
	return users
}

func intersect(base, other []string) []string {
	keep := make(map[string]struct{}, len(other))
	for _, s := range other {
		keep[s] = struct{}{}
	}
	out := make([]string, 0, len(base))
	for _, s := range base {
		if _, ok := keep[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
