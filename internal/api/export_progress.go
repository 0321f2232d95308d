package api

import (
	"sync"
	"time"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
)

// exportProgress 直近の出力の進捗
// 完了後 hold の間だけ結果を見せ、その後は待機中に戻る
type exportProgress struct {
	mu         sync.Mutex
	running    bool
	percent    int
	stage      string
	failed     bool
	finishedAt time.Time
	hold       time.Duration
	now        func() time.Time
}

// ExportProgressView 進捗の表示
type ExportProgressView struct {
	Active  bool   `json:"active"`
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
	Failed  bool   `json:"failed"`
}

func newExportProgress(hold time.Duration, now func() time.Time) *exportProgress {
	return &exportProgress{hold: hold, now: now}
}

func (p *exportProgress) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = true
	p.failed = false
	p.percent = 0
	p.stage = ""
	p.finishedAt = time.Time{}
}

func (p *exportProgress) update(ev exporter.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.percent = ev.Percent
	p.stage = ev.Stage
}

func (p *exportProgress) finish(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.running = false
	p.failed = err != nil
	p.finishedAt = p.now()
}

func (p *exportProgress) view() ExportProgressView {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running && (p.finishedAt.IsZero() || p.now().Sub(p.finishedAt) > p.hold) {
		return ExportProgressView{}
	}
	return ExportProgressView{
		Active:  true,
		Percent: p.percent,
		Stage:   p.stage,
		Failed:  p.failed,
	}
}
