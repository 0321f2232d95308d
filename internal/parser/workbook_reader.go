package parser

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
)

// ReadWorkbook Excel ブック（.xlsx）の先頭シートを表として読み込む
func ReadWorkbook(r io.Reader, opts ReadOptions) (*Table, error) {
	data, err := readAll(r, opts.MaxBytes)
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindParsing, "Excel ファイルを開けません")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperr.New(apperr.KindParsing, EmptyFileMessage)
	}

	// 表示形式に左右されないよう、日付・時刻はシリアル値のまま受け取る
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindParsing, "シートを読み込めません: "+sheets[0])
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.KindParsing, EmptyFileMessage)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = trimCell(h)
	}

	table := &Table{Header: header}
	for i, record := range rows[1:] {
		if isBlankRecord(record) {
			continue
		}
		for col, value := range record {
			if col < len(header) {
				record[col] = workbookCellText(header[col], value)
			}
		}
		table.Rows = append(table.Rows, newRawRow(i+2, header, record))
	}
	if len(table.Rows) == 0 {
		return nil, apperr.New(apperr.KindParsing, EmptyFileMessage)
	}
	return table, nil
}

// workbookCellText 日付・時刻列のシリアル値を CSV と同じ文字列に直す
// 日付列の 31 以下の整数は「日」の数値入力として扱い、変換しない
func workbookCellText(column, value string) string {
	v := strings.TrimSpace(value)
	if v == "" || strings.Contains(v, ":") {
		return value
	}
	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial < 0 {
		return value
	}

	switch column {
	case model.ColumnDate:
		if serial <= 31 {
			return value
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return value
		}
		return t.Format("2006/01/02")
	case model.ColumnStartTime, model.ColumnEndTime:
		// 時刻を持たない整数（日付だけ）は変換しない
		if serial >= 1 && serial == math.Trunc(serial) {
			return value
		}
		_, frac := math.Modf(serial)
		t, err := excelize.ExcelDateToTime(1+frac, false)
		if err != nil {
			return value
		}
		return t.Round(time.Minute).Format("15:04")
	}
	return value
}
