package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/config"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/logging"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/server"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/util"
)

type serveOptions struct {
	port       int
	devMode    bool
	configPath string
}

func newServeCmd() *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "ローカルサーバーを起動してブラウザで開く",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.Flags().IntVar(&opts.port, "port", 0, "待ち受けポート (config.toml で port を指定していないときだけ有効)")
	cmd.Flags().BoolVar(&opts.devMode, "dev", false, "開発モード")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "設定ファイルのパス (既定は実行ファイルと同じ場所の config.toml)")
	return cmd
}

func runServe(opts serveOptions) error {
	fmt.Println("==========================================")
	fmt.Println("  訪問カレンダー作成ツール")
	fmt.Println("==========================================")

	cfg, info, err := config.LoadConfigWithInfo(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "設定の読み込みに失敗したため既定値で起動します: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// コマンドライン引数で上書き
	if opts.port > 0 && !info.PortSpecified {
		cfg.Server.Port = opts.port
	}
	if opts.devMode {
		cfg.Server.DevMode = true
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	log.WithField("config", info.Path).Debug("設定を読み込みました")

	port := util.FindAvailablePort(cfg.Server.Port, 20)
	if port != cfg.Server.Port {
		log.WithFields(logrus.Fields{"configured": cfg.Server.Port, "port": port}).Warn("ポートが使用中のため変更しました")
		cfg.Server.Port = port
	}

	srv := server.NewServer(cfg, log)
	url := fmt.Sprintf("http://localhost:%d", port)

	errCh := make(chan error, 1)
	go func() {
		log.WithField("port", port).Info("サーバーを起動します")
		errCh <- srv.Run(port)
	}()

	if !cfg.Server.DevMode {
		fmt.Printf("ブラウザを開いています: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("ブラウザを開けませんでした。次の URL にアクセスしてください: %s\n", url)
		}
	} else {
		fmt.Printf("開発モード: %s にアクセスしてください\n", url)
	}

	fmt.Println("\nCtrl+C で終了します...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return withCode(exitFailure, err)
		}
		return nil
	case <-quit:
	}

	fmt.Println("\n終了しています...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("サーバーの終了に失敗しました")
	}
	return nil
}
