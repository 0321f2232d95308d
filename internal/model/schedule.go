package model

import (
	"strconv"
	"strings"
)

// CSV 列名
const (
	ColumnDate       = "日付"
	ColumnStartTime  = "開始時間"
	ColumnEndTime    = "終了時間"
	ColumnStaff      = "職員名１"
	ColumnUser       = "利用者"
	ColumnJobType    = "職種１"
	ColumnOfficeName = "事業所名"
)

// RequiredColumns 必須列
var RequiredColumns = []string{
	ColumnDate,
	ColumnStartTime,
	ColumnEndTime,
	ColumnStaff,
	ColumnUser,
}

// ScheduleRow 訪問予定 1 件
type ScheduleRow struct {
	Date       int    `json:"date"`                 // 日（1-31）
	StartTime  string `json:"startTime"`            // HH:MM
	EndTime    string `json:"endTime"`              // HH:MM
	Staff      string `json:"staff"`                // 職員名（姓と名は全角スペース区切り）
	OfficeName string `json:"officeName,omitempty"` // 事業所名
}

// StartMinutes 開始時刻のコロンを除いた数値（"09:30" -> 930）
func (r ScheduleRow) StartMinutes() int {
	n, err := strconv.Atoi(strings.ReplaceAll(r.StartTime, ":", ""))
	if err != nil {
		return 0
	}
	return n
}

// TimeRange "HH:MM - HH:MM"
func (r ScheduleRow) TimeRange() string {
	return r.StartTime + " - " + r.EndTime
}

// FamilyName 職員の姓（最初の全角スペースより前）
func FamilyName(fullName string) string {
	name, _, _ := strings.Cut(fullName, "　")
	return name
}

// Record 取込中の 1 行（正規化の作業単位）
type Record struct {
	Index      int         `json:"index"`      // データ行の 0 始まりの位置
	Line       int         `json:"line"`       // ファイル上の行番号
	User       string      `json:"user"`       // 利用者
	Row        ScheduleRow `json:"row"`        // 予定
	JobType    JobType     `json:"jobType"`    // 確定した職種（未確定は空）
	RawJobType string      `json:"rawJobType"` // CSV 上の職種１
}

// UnresolvedEntry 職種の手動入力待ち
type UnresolvedEntry struct {
	StaffName string `json:"staffName"`
	RowIndex  int    `json:"rowIndex"`
}

// UserScheduleMap 利用者ごとの予定
type UserScheduleMap map[string][]ScheduleRow

// Count 予定の総件数
func (m UserScheduleMap) Count() int {
	n := 0
	for _, rows := range m {
		n += len(rows)
	}
	return n
}

// Clone 読み取り用のコピー
func (m UserScheduleMap) Clone() UserScheduleMap {
	if m == nil {
		return nil
	}
	out := make(UserScheduleMap, len(m))
	for user, rows := range m {
		out[user] = append([]ScheduleRow(nil), rows...)
	}
	return out
}

// StaffJobTypeMap 職員名 -> 職種
type StaffJobTypeMap map[string]JobType

// StaffRoster 職種 -> 職員名一覧
type StaffRoster map[JobType][]string

// NewStaffRoster 3 職種すべてのキーを持つ空の一覧
func NewStaffRoster() StaffRoster {
	r := make(StaffRoster, len(JobTypes))
	for _, jt := range JobTypes {
		r[jt] = []string{}
	}
	return r
}

// JobTypeMap 職員名 -> 職種 に変換する
func (r StaffRoster) JobTypeMap() StaffJobTypeMap {
	m := make(StaffJobTypeMap)
	for _, jt := range JobTypes {
		for _, staff := range r[jt] {
			m[staff] = jt
		}
	}
	return m
}

// Contains 職員が一覧に含まれるか
func (r StaffRoster) Contains(staff string) bool {
	for _, list := range r {
		for _, s := range list {
			if s == staff {
				return true
			}
		}
	}
	return false
}
