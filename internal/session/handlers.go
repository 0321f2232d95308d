package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/calendar"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/importer"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/resolution"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

// ApplyUpload 取込結果を反映する
//
// 前回の予定と職種の入力は破棄する。職種が決まらない職員がいれば入力待ちになり、
// 予定は ConfirmResolution まで表示されない。日付列に年月があれば表示月をそこに合わせる。
func ApplyUpload(s State, report *importer.ImportReport, now time.Time) State {
	next := Reset(s)
	if report == nil || report.Result == nil {
		return next
	}

	next.Upload = &Upload{
		ID:              uuid.NewString(),
		FileName:        report.FileName,
		Rows:            report.Rows,
		Users:           report.Users,
		UnresolvedStaff: report.UnresolvedStaff,
		DataYear:        report.DataYear,
		DataMonth:       report.DataMonth,
		Warnings:        append([]string(nil), report.Warnings...),
		UploadedAt:      now,
	}
	if calendar.ValidMonth(report.DataYear, report.DataMonth) {
		next.Year, next.Month = report.DataYear, report.DataMonth
	}

	next.Workflow = resolution.Begin(report.Result)
	if report.Result.Resolved() {
		next = withGrouping(next, report.Result.Grouping)
	}
	return next
}

// Reset 予定・入力フロー・選択を消す。表示月と出力先の事業所は残す
func Reset(s State) State {
	return State{
		Year:         s.Year,
		Month:        s.Month,
		ExportOffice: s.ExportOffice,
		Workflow:     s.Workflow.Reset(),
	}
}

// ChooseJobType 入力待ちの職員の職種を選ぶ
func ChooseJobType(s State, staff string, jobType model.JobType) (State, error) {
	w, err := s.Workflow.Choose(staff, jobType)
	if err != nil {
		return s, apperr.Wrap(err, apperr.KindInvalidData, err.Error())
	}
	s.Workflow = w
	return s, nil
}

// ConfirmResolution 選んだ職種を確定し、予定を作る
// 全員分が選ばれていなければ何もせずエラーを返す
func ConfirmResolution(s State) (State, error) {
	w, grouping, err := s.Workflow.Confirm()
	if err != nil {
		return s, apperr.Wrap(err, apperr.KindInvalidData, err.Error())
	}
	s.Workflow = w
	if s.Upload != nil {
		u := *s.Upload
		u.UnresolvedStaff = 0
		u.Users = len(grouping.Users)
		s.Upload = &u
	}
	return withGrouping(s, grouping), nil
}

// withGrouping 予定を設定する。最初の利用者（初出順）を表示し、全員を出力対象にする
func withGrouping(s State, g importer.Grouping) State {
	s.Schedule = g.Schedule
	s.Users = g.Users
	s.Roster = g.Roster
	s.JobTypes = g.Roster.JobTypeMap()
	s.index = schedule.NewIndex(s.Schedule, s.JobTypes)
	s.Filter = schedule.Filter{}

	s.SelectedUser = ""
	if len(g.Users) > 0 {
		s.SelectedUser = g.Users[0]
	}
	s.SelectedUsers = s.index.Users()
	return s
}

// SelectUser カレンダーに表示する利用者を選ぶ
func SelectUser(s State, user string) (State, error) {
	if !s.Index().HasUser(user) {
		return s, apperr.New(apperr.KindInvalidData, "利用者が見つかりません: "+user)
	}
	s.SelectedUser = user
	return s, nil
}

// ToggleUser 出力対象の選択を切り替える
// 選択した利用者はカレンダーにも表示する。表示中の利用者を外したら表示を空にする
func ToggleUser(s State, user string) (State, error) {
	if !s.Index().HasUser(user) {
		return s, apperr.New(apperr.KindInvalidData, "利用者が見つかりません: "+user)
	}

	selected := make([]string, 0, len(s.SelectedUsers)+1)
	found := false
	for _, u := range s.SelectedUsers {
		if u == user {
			found = true
			continue
		}
		selected = append(selected, u)
	}
	if found {
		if s.SelectedUser == user {
			s.SelectedUser = ""
		}
	} else {
		selected = append(selected, user)
		s.SelectedUser = user
	}
	s.SelectedUsers = selected
	return s, nil
}

// SelectAllFiltered 絞り込み結果の全員を出力対象にする
func SelectAllFiltered(s State) State {
	s.SelectedUsers = s.Index().FilteredUsers(s.Filter)
	return s
}

// ClearSelection 出力対象を空にする
func ClearSelection(s State) State {
	s.SelectedUsers = nil
	return s
}

// SetFilter 絞り込み条件を変える
//
// 事業所か職員の条件が変わったら、絞り込み結果の全員を出力対象にして先頭の利用者を表示する。
// 名前の条件だけの変更では選択は変えない。
func SetFilter(s State, f schedule.Filter) State {
	changed := f.Office != s.Filter.Office || f.Staff != s.Filter.Staff
	s.Filter = f
	if !changed {
		return s
	}

	users := s.Index().FilteredUsers(schedule.Filter{Office: f.Office, Staff: f.Staff})
	s.SelectedUsers = users
	if len(users) > 0 {
		s.SelectedUser = users[0]
	}
	return s
}

// SetExportOffice 帳票に印字する事業所を選ぶ
func SetExportOffice(s State, office string) (State, error) {
	o, ok := model.ParseOffice(office)
	if !ok {
		return s, apperr.New(apperr.KindInvalidData, fmt.Sprintf("事業所を選択してください: %q", office))
	}
	s.ExportOffice = o
	return s, nil
}

// ShiftMonth 表示月を delta か月ずらす
func ShiftMonth(s State, delta int) State {
	s.Year, s.Month = calendar.ShiftMonth(s.Year, s.Month, delta)
	return s
}

// SetMonth 表示月を指定する
func SetMonth(s State, year, month int) (State, error) {
	if !calendar.ValidMonth(year, month) {
		return s, apperr.New(apperr.KindInvalidData, fmt.Sprintf("年月が正しくありません: %d-%d", year, month))
	}
	s.Year, s.Month = year, month
	return s, nil
}

// View 表示用にまとめる
func (s State) View() View {
	idx := s.Index()
	return View{
		Upload:        s.Upload,
		Resolution:    s.Workflow.Snapshot(),
		Ready:         s.Ready(),
		Users:         idx.Users(),
		SelectedUser:  s.SelectedUser,
		Year:          s.Year,
		Month:         s.Month,
		MonthLabel:    calendar.MonthLabel(s.Year, s.Month),
		Filter:        s.Filter,
		FilteredUsers: idx.FilteredUsers(s.Filter),
		SelectedUsers: append([]string{}, s.SelectedUsers...),
		ExportOffice:  s.ExportOffice,
		Offices:       model.Offices,
	}
}
