package importer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/metrics"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/parser"
)

// Coordinator 取込処理の調整役
type Coordinator struct {
	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewCoordinator 取込コーディネーターを作る
func NewCoordinator(log logrus.FieldLogger) *Coordinator {
	return &Coordinator{
		log:     log,
		metrics: metrics.Get(),
	}
}

// ImportOptions 取込オプション
type ImportOptions struct {
	FileName string    // 拡張子で CSV / Excel を判定する
	Reader   io.Reader // 未指定なら FileName を開く
	Read     parser.ReadOptions
}

// ProgressEvent 進捗イベント
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/warning/done/error
	Message   string      `json:"message"`   // メッセージ
	Data      interface{} `json:"data"`      // 付加データ
	Timestamp time.Time   `json:"timestamp"` // 時刻
}

// ImportReport 取込の集計
type ImportReport struct {
	FileName        string        `json:"fileName"`
	Rows            int           `json:"rows"`
	Users           int           `json:"users"`
	UnresolvedRows  int           `json:"unresolvedRows"`
	UnresolvedStaff int           `json:"unresolvedStaff"`
	DataYear        int           `json:"dataYear"`
	DataMonth       int           `json:"dataMonth"`
	Warnings        []string      `json:"warnings"`
	Duration        time.Duration `json:"duration"`
	Result          *Result       `json:"-"`
}

// Import 取込を実行し、進捗チャネルを返す
// 最後のイベントは done（Data は *ImportReport）か error（Data は apperr.Notification）
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		_, _ = c.doImport(ctx, opts, func(evt ProgressEvent) {
			progressChan <- evt
		})
	}()

	return progressChan
}

// Run 取込を同期実行する。進捗イベントは debug ログにだけ出す
func (c *Coordinator) Run(ctx context.Context, opts ImportOptions) (*ImportReport, error) {
	return c.doImport(ctx, opts, func(evt ProgressEvent) {
		c.log.WithField("type", evt.Type).Debug(evt.Message)
	})
}

func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, emit func(ProgressEvent)) (*ImportReport, error) {
	startTime := time.Now()
	name := filepath.Base(opts.FileName)
	log := c.log.WithField("file", name)

	emit(ProgressEvent{
		Type:    "start",
		Message: fmt.Sprintf("%s を読み込んでいます", name),
		Data: map[string]string{
			"filename": name,
		},
		Timestamp: time.Now(),
	})

	result, err := c.readAndNormalize(ctx, opts, emit)
	if err != nil {
		c.metrics.ImportsTotal.WithLabelValues(metrics.Result(err)).Inc()
		log.WithError(err).Warn("取込に失敗しました")
		emit(ProgressEvent{
			Type:      "error",
			Message:   err.Error(),
			Data:      apperr.Notify(err),
			Timestamp: time.Now(),
		})
		return nil, err
	}

	for _, w := range result.Warnings {
		log.Warn(w)
		emit(ProgressEvent{
			Type:      "warning",
			Message:   w,
			Timestamp: time.Now(),
		})
	}

	report := &ImportReport{
		FileName:        name,
		Rows:            len(result.Records),
		Users:           len(result.Users),
		UnresolvedRows:  len(result.Unresolved),
		UnresolvedStaff: countStaff(result),
		DataYear:        result.DataYear,
		DataMonth:       result.DataMonth,
		Warnings:        result.Warnings,
		Duration:        time.Since(startTime),
		Result:          result,
	}
	c.metrics.ImportsTotal.WithLabelValues(metrics.Result(nil)).Inc()
	c.metrics.ImportedRows.Add(float64(report.Rows))
	c.metrics.UnresolvedStaff.Add(float64(report.UnresolvedStaff))

	log.WithFields(logrus.Fields{
		"rows":       report.Rows,
		"users":      report.Users,
		"unresolved": report.UnresolvedStaff,
		"duration":   report.Duration,
	}).Info("取込が完了しました")

	message := "データの読み込み完了"
	if !result.Resolved() {
		message = fmt.Sprintf("職種が未設定の職員が %d 名います", report.UnresolvedStaff)
	}
	emit(ProgressEvent{
		Type:      "done",
		Message:   message,
		Data:      report,
		Timestamp: time.Now(),
	})
	return report, nil
}

func (c *Coordinator) readAndNormalize(ctx context.Context, opts ImportOptions, emit func(ProgressEvent)) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindFileProcessing)
	}

	r := opts.Reader
	if r == nil {
		f, err := openFile(opts.FileName)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	table, err := parser.ReadFile(opts.FileName, r, opts.Read)
	if err != nil {
		return nil, apperr.Ensure(err, apperr.KindFileProcessing)
	}

	emit(ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("%d 行を読み込みました", len(table.Rows)),
		Data: map[string]interface{}{
			"rows":    len(table.Rows),
			"columns": table.Header,
		},
		Timestamp: time.Now(),
	})
	if !table.HasColumn(model.ColumnOfficeName) {
		emit(ProgressEvent{
			Type:      "warning",
			Message:   "事業所名の列が見つかりません",
			Timestamp: time.Now(),
		})
	}

	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindFileProcessing)
	}

	result, err := Normalize(table)
	if err != nil {
		return nil, apperr.Ensure(err, apperr.KindInvalidData)
	}
	return result, nil
}

func countStaff(result *Result) int {
	seen := make(map[string]struct{})
	for _, u := range result.Unresolved {
		seen[u.StaffName] = struct{}{}
	}
	return len(seen)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindFileProcessing, "ファイルを開けません: "+filepath.Base(path))
	}
	return f, nil
}
