package parser

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

// SupportedExtensions 取込可能な拡張子
var SupportedExtensions = []string{".csv", ".xlsx"}

// ReadFile ファイル名の拡張子で読み込み方法を切り替える
func ReadFile(filename string, r io.Reader, opts ReadOptions) (*Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ReadTable(r, opts)
	case ".xlsx":
		return ReadWorkbook(r, opts)
	default:
		return nil, apperr.New(apperr.KindFileProcessing, "CSV（.csv）または Excel（.xlsx）ファイルを選択してください")
	}
}
