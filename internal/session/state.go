// Package session 画面の状態をひとつのレコードで持つ
//
// 各ハンドラーは State を受け取り、新しい State を返す。引数の State は変更しない。
// スライスやマップは共有されうるので、変更するときは必ず作り直す。
package session

import (
	"time"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/resolution"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

// Upload 取り込んだファイルの情報
type Upload struct {
	ID              string    `json:"id"`
	FileName        string    `json:"fileName"`
	Rows            int       `json:"rows"`
	Users           int       `json:"users"`
	UnresolvedStaff int       `json:"unresolvedStaff"`
	DataYear        int       `json:"dataYear"`
	DataMonth       int       `json:"dataMonth"`
	Warnings        []string  `json:"warnings"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// State アプリケーションの状態
type State struct {
	Upload   *Upload
	Workflow resolution.Workflow

	Schedule model.UserScheduleMap
	Users    []string // 初出順
	Roster   model.StaffRoster
	JobTypes model.StaffJobTypeMap

	SelectedUser  string
	Year          int
	Month         int
	Filter        schedule.Filter
	SelectedUsers []string
	ExportOffice  model.Office

	index *schedule.Index
}

// New 初期状態。表示月は now の年月
func New(now time.Time, office model.Office) State {
	if _, ok := model.ParseOffice(string(office)); !ok {
		office = model.DefaultOffice
	}
	return State{
		Year:         now.Year(),
		Month:        int(now.Month()),
		ExportOffice: office,
	}
}

// Index 予定の検索。予定がなければ空の Index
func (s State) Index() *schedule.Index {
	if s.index == nil {
		return schedule.NewIndex(nil, nil)
	}
	return s.index
}

// Ready 予定が確定していて、表示・出力できるか
func (s State) Ready() bool {
	return s.index != nil && !s.index.Empty()
}

// IsSelected 出力対象に選ばれているか
func (s State) IsSelected(user string) bool {
	for _, u := range s.SelectedUsers {
		if u == user {
			return true
		}
	}
	return false
}

// View JSON 表示用
type View struct {
	Upload        *Upload             `json:"upload"`
	Resolution    resolution.Snapshot `json:"resolution"`
	Ready         bool                `json:"ready"`
	Users         []string            `json:"users"`
	SelectedUser  string              `json:"selectedUser"`
	Year          int                 `json:"year"`
	Month         int                 `json:"month"`
	MonthLabel    string              `json:"monthLabel"`
	Filter        schedule.Filter     `json:"filter"`
	FilteredUsers []string            `json:"filteredUsers"`
	SelectedUsers []string            `json:"selectedUsers"`
	ExportOffice  model.Office        `json:"exportOffice"`
	Offices       []model.Office      `json:"offices"`
}
