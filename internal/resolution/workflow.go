// Package resolution 職種が決まらなかった職員の手動入力フロー
//
// Workflow は値として扱い、各操作は新しい Workflow を返す。受け取った Workflow は変更しない。
package resolution

import (
	"github.com/pkg/errors"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/importer"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
)

// State フローの状態
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingInput State = "awaiting_input"
	StateAllSelected   State = "all_selected"
	StateApplied       State = "applied"
)

var (
	// ErrNotReady 全員分の職種が選ばれていない状態で確定しようとした
	ErrNotReady = errors.New("すべての職員の職種を選択してください")
	// ErrNotAwaiting 入力待ちでないときに職種を選ぼうとした
	ErrNotAwaiting = errors.New("職種の入力は不要です")
	// ErrUnknownStaff 入力待ちでない職員が指定された
	ErrUnknownStaff = errors.New("職種の入力対象ではない職員です")
	// ErrInvalidJobType 職種が不正
	ErrInvalidJobType = errors.New("職種は 看護師・理学療法士・作業療法士 から選択してください")
)

// Workflow 手動入力フローの状態
type Workflow struct {
	state      State
	records    []model.Record
	unresolved []model.UnresolvedEntry
	choices    map[string]model.JobType
}

// Snapshot JSON 表示用
type Snapshot struct {
	State      State                    `json:"state"`
	Pending    []string                 `json:"pending"`
	Choices    map[string]model.JobType `json:"choices"`
	Unresolved []model.UnresolvedEntry  `json:"unresolved"`
	CanConfirm bool                     `json:"canConfirm"`
	JobTypes   []model.JobType          `json:"jobTypes"`
}

// Begin 正規化結果からフローを始める
// 未解決の行があれば AwaitingInput、なければ Idle のまま
func Begin(result *importer.Result) Workflow {
	if result == nil || result.Resolved() {
		return Workflow{state: StateIdle}
	}
	return Workflow{
		state:      StateAwaitingInput,
		records:    cloneRecords(result.Records),
		unresolved: append([]model.UnresolvedEntry(nil), result.Unresolved...),
		choices:    map[string]model.JobType{},
	}
}

// Reset 再アップロード時。選択内容を捨てて Idle に戻す
func (w Workflow) Reset() Workflow {
	return Workflow{state: StateIdle}
}

// State 現在の状態
func (w Workflow) State() State {
	if w.state == "" {
		return StateIdle
	}
	return w.state
}

// Active 入力待ち（AwaitingInput または AllSelected）か
func (w Workflow) Active() bool {
	return w.state == StateAwaitingInput || w.state == StateAllSelected
}

// PendingStaff 入力待ちの職員名（初出順、重複なし）
func (w Workflow) PendingStaff() []string {
	seen := make(map[string]struct{}, len(w.unresolved))
	var names []string
	for _, u := range w.unresolved {
		if _, ok := seen[u.StaffName]; ok {
			continue
		}
		seen[u.StaffName] = struct{}{}
		names = append(names, u.StaffName)
	}
	return names
}

// Choices 選択済みの職種（コピー）
func (w Workflow) Choices() map[string]model.JobType {
	out := make(map[string]model.JobType, len(w.choices))
	for k, v := range w.choices {
		out[k] = v
	}
	return out
}

// Unresolved 未解決の行（コピー）
func (w Workflow) Unresolved() []model.UnresolvedEntry {
	return append([]model.UnresolvedEntry(nil), w.unresolved...)
}

// Choose 職員の職種を選ぶ。全員分が揃えば AllSelected
func (w Workflow) Choose(staff string, jobType model.JobType) (Workflow, error) {
	if !w.Active() {
		return w, ErrNotAwaiting
	}
	if !jobType.Valid() {
		return w, ErrInvalidJobType
	}
	if !w.isPending(staff) {
		return w, errors.Wrap(ErrUnknownStaff, staff)
	}

	next := w
	next.choices = w.Choices()
	next.choices[staff] = jobType
	next.state = StateAwaitingInput
	if next.allSelected() {
		next.state = StateAllSelected
	}
	return next, nil
}

// Confirm 選択した職種を行に書き戻し、予定を作り直す
// AllSelected 以外では ErrNotReady を返し、何もしない
func (w Workflow) Confirm() (Workflow, importer.Grouping, error) {
	if w.state != StateAllSelected {
		return w, importer.Grouping{}, ErrNotReady
	}

	records := cloneRecords(w.records)
	for _, u := range w.unresolved {
		if u.RowIndex < 0 || u.RowIndex >= len(records) {
			continue
		}
		records[u.RowIndex].JobType = w.choices[u.StaffName]
	}

	next := Workflow{
		state:   StateApplied,
		records: records,
		choices: w.Choices(),
	}
	return next, importer.Group(records), nil
}

// Records 行の一覧（Applied 後は職種が書き戻されている）
func (w Workflow) Records() []model.Record {
	return cloneRecords(w.records)
}

// Snapshot 現在の状態を表示用にまとめる
func (w Workflow) Snapshot() Snapshot {
	return Snapshot{
		State:      w.State(),
		Pending:    w.PendingStaff(),
		Choices:    w.Choices(),
		Unresolved: w.Unresolved(),
		CanConfirm: w.state == StateAllSelected,
		JobTypes:   model.JobTypes,
	}
}

func (w Workflow) isPending(staff string) bool {
	for _, u := range w.unresolved {
		if u.StaffName == staff {
			return true
		}
	}
	return false
}

func (w Workflow) allSelected() bool {
	for _, u := range w.unresolved {
		if _, ok := w.choices[u.StaffName]; !ok {
			return false
		}
	}
	return true
}

func cloneRecords(records []model.Record) []model.Record {
	return append([]model.Record(nil), records...)
}
