package exporter

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/calendar"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/metrics"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/schedule"
)

// Format 出力形式
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html" // ブラウザでのプレビュー用
)

// ParseFormat 文字列から出力形式を取得する。空は PDF
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case "", FormatPDF:
		return FormatPDF, true
	case FormatXLSX:
		return FormatXLSX, true
	case FormatHTML:
		return FormatHTML, true
	}
	return "", false
}

// Renderer 帳票の記述をファイルに変換する外部バックエンド
type Renderer interface {
	Format() Format
	ContentType() string
	Render(ctx context.Context, doc *Document) ([]byte, error)
}

// Options 出力オプション
type Options struct {
	Index     *schedule.Index
	Users     []string
	Year      int
	Month     int
	Office    model.Office
	ColorMode ColorMode
	Format    Format
	Progress  func(ProgressEvent)
}

// Artifact 出力結果
type Artifact struct {
	FileName    string
	ContentType string
	Data        []byte
	Pages       int
}

// Exporter 月間カレンダーの帳票出力
type Exporter struct {
	renderers map[Format]Renderer
	timeout   time.Duration
	log       logrus.FieldLogger
	metrics   *metrics.Metrics
}

// NewExporter 出力器を作る。timeout が 0 ならレンダリング時間を制限しない
func NewExporter(log logrus.FieldLogger, timeout time.Duration, renderers ...Renderer) *Exporter {
	e := &Exporter{
		renderers: make(map[Format]Renderer, len(renderers)),
		timeout:   timeout,
		log:       log,
		metrics:   metrics.Get(),
	}
	for _, r := range renderers {
		e.renderers[r.Format()] = r
	}
	return e
}

// Supports 形式のレンダラーが登録されているか
func (e *Exporter) Supports(f Format) bool {
	_, ok := e.renderers[f]
	return ok
}

// Export 選択された利用者の帳票を出力する
// 進捗は 0 → 30 → 50 → 80 → 100 の段階で通知する
func (e *Exporter) Export(ctx context.Context, opts Options) (artifact *Artifact, err error) {
	format, ok := ParseFormat(string(opts.Format))
	if !ok {
		return nil, apperr.New(apperr.KindExportGeneration, fmt.Sprintf("未対応の出力形式です: %q", opts.Format))
	}

	start := time.Now()
	log := e.log.WithFields(logrus.Fields{
		"format": format,
		"users":  len(opts.Users),
		"month":  calendar.MonthLabel(opts.Year, opts.Month),
	})
	defer func() {
		e.metrics.ExportsTotal.WithLabelValues(string(format), metrics.Result(err)).Inc()
		e.metrics.ExportDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
		if err != nil {
			log.WithError(err).Warn("帳票の出力に失敗しました")
		}
	}()

	opts.notify(stagePreparing)

	renderer, ok := e.renderers[format]
	if !ok {
		return nil, apperr.New(apperr.KindExportGeneration, fmt.Sprintf("未対応の出力形式です: %q", format))
	}

	doc, err := BuildDocument(opts.Index, opts)
	if err != nil {
		return nil, err
	}
	opts.notify(stageLaidOut)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	opts.notify(stageRendering)
	data, err := renderer.Render(ctx, doc)
	if err != nil {
		return nil, apperr.Ensure(err, apperr.KindExportGeneration)
	}
	if len(data) == 0 {
		return nil, apperr.New(apperr.KindExportGeneration, "PDFの生成に失敗しました。もう一度お試しください。")
	}
	opts.notify(stageRendered)

	artifact = &Artifact{
		FileName:    FileName(opts.Users, opts.Year, opts.Month, format),
		ContentType: renderer.ContentType(),
		Data:        data,
		Pages:       len(doc.Pages),
	}
	e.metrics.ExportedPages.Add(float64(artifact.Pages))
	log.WithFields(logrus.Fields{
		"file":     artifact.FileName,
		"bytes":    len(data),
		"duration": time.Since(start),
	}).Info("帳票を出力しました")

	opts.notify(stageDone)
	return artifact, nil
}

// FileName 出力ファイル名
// 1 名: "<利用者>_<YYYY年MM月>_カレンダー.pdf"、複数名: "カレンダー_<YYYY年MM月>_<n>名.pdf"
func FileName(users []string, year, month int, format Format) string {
	label := calendar.MonthLabel(year, month)
	ext := "." + string(format)
	if len(users) == 1 {
		return sanitizeFileName(users[0]) + "_" + label + "_カレンダー" + ext
	}
	return fmt.Sprintf("カレンダー_%s_%d名%s", label, len(users), ext)
}

func sanitizeFileName(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out[i] = '_'
		}
	}
	return string(out)
}
