// Package api 画面向けの HTTP API
package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/config"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/importer"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/metrics"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/parser"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/store"
)

// Options Handler の依存
type Options struct {
	Config    *config.AppConfig
	Store     *store.MemoryStore
	Downloads *store.DownloadStore
	Exporter  *exporter.Exporter
	Log       logrus.FieldLogger
	Now       func() time.Time // 未指定なら time.Now
}

// Handler API ハンドラー
type Handler struct {
	cfg         *config.AppConfig
	store       *store.MemoryStore
	downloads   *store.DownloadStore
	exporter    *exporter.Exporter
	coordinator *importer.Coordinator
	progress    *exportProgress
	log         logrus.FieldLogger
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewHandler API ハンドラーを作る
func NewHandler(opts Options) *Handler {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	downloads := opts.Downloads
	if downloads == nil {
		downloads = store.NewDownloadStore(cfg.DownloadTTL())
	}
	hold := time.Duration(cfg.Export.ProgressHoldSeconds) * time.Second

	return &Handler{
		cfg:         cfg,
		store:       opts.Store,
		downloads:   downloads,
		exporter:    opts.Exporter,
		coordinator: importer.NewCoordinator(opts.Log),
		progress:    newExportProgress(hold, now),
		log:         opts.Log,
		metrics:     metrics.Get(),
		now:         now,
	}
}

// RegisterRoutes ルートを登録する
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/status", h.GetStatus)

	// 取込
	router.POST("/upload", h.Upload)
	router.DELETE("/upload", h.ClearUpload)

	// 職種の手動入力
	router.GET("/resolution", h.GetResolution)
	router.PUT("/resolution/choices", h.ChooseJobTypes)
	router.POST("/resolution/confirm", h.ConfirmResolution)

	// 検索
	router.GET("/staff", h.ListStaff)
	router.GET("/offices", h.ListOffices)
	router.GET("/users", h.ListUsers)
	router.GET("/calendar", h.GetCalendar)

	// 表示状態
	router.GET("/view", h.GetView)
	router.PATCH("/view", h.UpdateView)
	router.POST("/view/month", h.ShiftMonth)
	router.POST("/selection/toggle", h.ToggleSelection)
	router.POST("/selection/all", h.SelectAll)
	router.DELETE("/selection", h.ClearSelection)

	// 帳票出力
	router.POST("/export", h.ExportStream)
	router.GET("/export/progress", h.GetExportProgress)
	router.GET("/export/download/:token", h.DownloadExport)
}

func (h *Handler) readOptions() parser.ReadOptions {
	return parser.ReadOptions{
		Encoding: h.cfg.InputEncoding(),
		MaxBytes: h.cfg.Input.MaxBytes,
	}
}
