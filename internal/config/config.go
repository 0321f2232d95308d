package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/parser"
)

// EnvPrefix 環境変数の接頭辞
const EnvPrefix = "VISITCAL_"

// AppConfig アプリケーション設定
type AppConfig struct {
	Server ServerConfig `toml:"server" envPrefix:"SERVER_"`
	Input  InputConfig  `toml:"input" envPrefix:"INPUT_"`
	Export ExportConfig `toml:"export" envPrefix:"EXPORT_"`
	PDF    PDFConfig    `toml:"pdf" envPrefix:"PDF_"`
	Log    LogConfig    `toml:"log" envPrefix:"LOG_"`
}

// ServerConfig サーバー設定
type ServerConfig struct {
	Port    int  `toml:"port" env:"PORT"`
	DevMode bool `toml:"dev_mode" env:"DEV_MODE"`
}

// InputConfig 取込設定
type InputConfig struct {
	Encoding string `toml:"encoding" env:"ENCODING"` // auto / shift_jis / utf-8
	MaxBytes int64  `toml:"max_bytes" env:"MAX_BYTES"`
}

// ExportConfig 帳票出力設定
type ExportConfig struct {
	DefaultOffice       string `toml:"default_office" env:"DEFAULT_OFFICE"`
	Format              string `toml:"format" env:"FORMAT"` // pdf / xlsx
	DownloadTTLSeconds  int    `toml:"download_ttl_seconds" env:"DOWNLOAD_TTL_SECONDS"`
	ProgressHoldSeconds int    `toml:"progress_hold_seconds" env:"PROGRESS_HOLD_SECONDS"`
}

// PDFConfig ヘッドレス Chrome の設定
type PDFConfig struct {
	ChromeBin      string `toml:"chrome_bin" env:"CHROME_BIN"` // 空なら rod が自動取得
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// LogConfig ログ設定
type LogConfig struct {
	Level  string `toml:"level" env:"LEVEL"`   // debug / info / warn / error
	Format string `toml:"format" env:"FORMAT"` // text / json
}

// LoadConfigInfo 設定読み込みのメタ情報
type LoadConfigInfo struct {
	Path          string
	PortSpecified bool
	EnvFiles      int
}

// DefaultConfig 既定の設定
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Input: InputConfig{
			Encoding: string(parser.EncodingAuto),
			MaxBytes: 10 << 20,
		},
		Export: ExportConfig{
			DefaultOffice:       string(model.DefaultOffice),
			Format:              "pdf",
			DownloadTTLSeconds:  600,
			ProgressHoldSeconds: 1,
		},
		PDF: PDFConfig{
			TimeoutSeconds: 60,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate 値の範囲を確認する
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.Errorf("server.port が不正です: %d", c.Server.Port)
	}
	if _, ok := parser.ParseEncoding(c.Input.Encoding); !ok {
		return errors.Errorf("input.encoding が不正です: %q", c.Input.Encoding)
	}
	if _, ok := model.ParseOffice(c.Export.DefaultOffice); !ok {
		return errors.Errorf("export.default_office が不正です: %q", c.Export.DefaultOffice)
	}
	if c.Export.Format != "pdf" && c.Export.Format != "xlsx" {
		return errors.Errorf("export.format は pdf または xlsx を指定してください: %q", c.Export.Format)
	}
	if c.Export.DownloadTTLSeconds <= 0 {
		return errors.Errorf("export.download_ttl_seconds は正の値を指定してください: %d", c.Export.DownloadTTLSeconds)
	}
	if c.PDF.TimeoutSeconds <= 0 {
		return errors.Errorf("pdf.timeout_seconds は正の値を指定してください: %d", c.PDF.TimeoutSeconds)
	}
	return nil
}

// InputEncoding 取込時の文字コード
func (c *AppConfig) InputEncoding() parser.Encoding {
	enc, _ := parser.ParseEncoding(c.Input.Encoding)
	return enc
}

// DownloadTTL ダウンロードトークンの有効期間
func (c *AppConfig) DownloadTTL() time.Duration {
	return time.Duration(c.Export.DownloadTTLSeconds) * time.Second
}

// PDFTimeout 1 回の PDF 生成の上限時間
func (c *AppConfig) PDFTimeout() time.Duration {
	return time.Duration(c.PDF.TimeoutSeconds) * time.Second
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 実行ファイルのあるディレクトリ
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultPath 実行ファイルと同じディレクトリの config.toml
func DefaultPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 実行ファイルの場所が分からなければカレントディレクトリ
		exeDir = "."
	}
	return filepath.Join(exeDir, "config.toml")
}

// LoadEnvFiles 存在する .env ファイルだけを読み込む。読み込んだ数を返す
func LoadEnvFiles(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if st, err := os.Stat(f); err == nil && !st.IsDir() {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// LoadConfigWithInfo 設定を読み込む
// 優先順位: 既定値 < config.toml < 環境変数（.env を含む）。path が空なら DefaultPath()
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	n, err := LoadEnvFiles(".env", ".env.local")
	if err != nil {
		return nil, info, errors.Wrap(err, ".env の読み込みに失敗しました")
	}
	info.EnvFiles = n

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, errors.Wrapf(err, "%s の解析に失敗しました", path)
		}
	case os.IsNotExist(err):
		// 設定ファイルがなければ既定値
	default:
		return nil, info, errors.WithStack(err)
	}

	if err := env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, info, errors.Wrap(err, "環境変数の解析に失敗しました")
	}
	if _, ok := os.LookupEnv(EnvPrefix + "SERVER_PORT"); ok {
		info.PortSpecified = true
	}

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 設定を読み込む
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// SaveConfig 設定を書き出す
func SaveConfig(path string, config *AppConfig) error {
	if path == "" {
		path = DefaultPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(os.WriteFile(path, data, 0644))
}
