package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/api"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/config"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/store"
)

// Server HTTP サーバー
type Server struct {
	router *gin.Engine
	http   *http.Server
	store  *store.MemoryStore
	api    *api.Handler
	pdf    *exporter.PDFRenderer
	log    *logrus.Logger
}

// NewServer 設定からサーバーを組み立てる
func NewServer(cfg *config.AppConfig, log *logrus.Logger) *Server {
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	st := store.NewMemoryStore(session.New(time.Now(), model.Office(cfg.Export.DefaultOffice)))
	pdf := exporter.NewPDFRenderer(cfg.PDF.ChromeBin, log.WithField("component", "pdf"))
	exp := exporter.NewExporter(log.WithField("component", "exporter"), cfg.PDFTimeout(),
		pdf,
		exporter.WorkbookRenderer{},
		exporter.HTMLRenderer{},
	)

	handler := api.NewHandler(api.Options{
		Config:    cfg,
		Store:     st,
		Downloads: store.NewDownloadStore(cfg.DownloadTTL()),
		Exporter:  exp,
		Log:       log.WithField("component", "api"),
	})

	s := &Server{
		router: gin.New(),
		store:  st,
		api:    handler,
		pdf:    pdf,
		log:    log,
	}
	s.setupRoutes(devMode)
	return s
}

// setupRoutes ルートを設定する
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Recovery(), RequestLogger(s.log))

	// ローカルのフロントエンドからの呼び出しを許可する
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if devMode {
		// 開発時はフロントエンドの開発サーバーへ
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}
	s.router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "/api/status")
	})
}

// Handler テスト用
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 起動する。Shutdown されるまで戻らない
func (s *Server) Run(port int) error {
	s.http = &http.Server{
		Addr:              ":" + strconv.Itoa(port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown 受付を止め、ヘッドレス Chrome を終了する
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	if cerr := s.pdf.Close(); cerr != nil {
		s.log.WithError(cerr).Warn("ブラウザの終了に失敗しました")
	}
	return err
}

// GetStore 状態（テスト用）
func (s *Server) GetStore() *store.MemoryStore {
	return s.store
}
