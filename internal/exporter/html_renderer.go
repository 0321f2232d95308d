package exporter

import (
	"bytes"
	"context"
	"embed"
	"html/template"

	"github.com/pkg/errors"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

//go:embed templates/calendar.html.tmpl
var templateFS embed.FS

var calendarTemplate = template.Must(template.ParseFS(templateFS, "templates/calendar.html.tmpl"))

// HTMLRenderer 帳票を印刷用 HTML にする（プレビューと PDF の元データ）
type HTMLRenderer struct{}

// Format 出力形式
func (HTMLRenderer) Format() Format { return FormatHTML }

// ContentType MIME タイプ
func (HTMLRenderer) ContentType() string { return "text/html; charset=utf-8" }

// Render 帳票を HTML にする
func (HTMLRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}
	return renderHTML(doc)
}

func renderHTML(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := calendarTemplate.ExecuteTemplate(&buf, "calendar.html.tmpl", doc); err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "render calendar html"), apperr.KindExportGeneration)
	}
	return buf.Bytes(), nil
}
