package exporter

import (
	"context"
	"io"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

// PDFRenderer 印刷用 HTML をヘッドレス Chrome で A4 横の PDF にする
//
// ブラウザは最初の Render で起動し、Close まで使い回す。
type PDFRenderer struct {
	mu        sync.Mutex
	chromeBin string
	launcher  *launcher.Launcher
	browser   *rod.Browser
	log       logrus.FieldLogger
}

// NewPDFRenderer chromeBin が空なら rod が Chrome を探す（なければ取得する）
func NewPDFRenderer(chromeBin string, log logrus.FieldLogger) *PDFRenderer {
	return &PDFRenderer{
		chromeBin: chromeBin,
		log:       log,
	}
}

// Format 出力形式
func (r *PDFRenderer) Format() Format { return FormatPDF }

// ContentType MIME タイプ
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Render 帳票を PDF にする
func (r *PDFRenderer) Render(ctx context.Context, doc *Document) ([]byte, error) {
	html, err := renderHTML(doc)
	if err != nil {
		return nil, err
	}

	browser, err := r.ensureBrowser()
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration, "PDF 生成用のブラウザを起動できません")
	}

	page, err := browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		r.dropBrowser()
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}
	defer func() {
		_ = page.Close()
	}()

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{
		Landscape:         true,
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindExportGeneration)
	}

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, apperr.Wrap(errors.Wrap(err, "read pdf stream"), apperr.KindExportGeneration)
	}
	return data, nil
}

// Close ブラウザを終了する
func (r *PDFRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closeLocked()
}

func (r *PDFRenderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		if _, err := r.browser.Version(); err == nil {
			return r.browser, nil
		}
		r.log.Warn("ブラウザとの接続が切れたため再起動します")
		_ = r.closeLocked()
	}

	l := launcher.New().Headless(true)
	if r.chromeBin != "" {
		l = l.Bin(r.chromeBin)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, errors.Wrap(err, "launch chrome")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, errors.Wrap(err, "connect to chrome")
	}

	r.log.WithField("control_url", controlURL).Debug("ヘッドレス Chrome を起動しました")
	r.launcher = l
	r.browser = browser
	return browser, nil
}

func (r *PDFRenderer) dropBrowser() {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.closeLocked()
}

func (r *PDFRenderer) closeLocked() error {
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher = nil
	}
	return err
}
