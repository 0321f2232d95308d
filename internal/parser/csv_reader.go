package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EmptyFileMessage ヘッダーまたはデータ行が存在しない場合の詳細
const EmptyFileMessage = "CSVファイルにデータが含まれていません"

// ReadTable CSV を読み込み、ヘッダー付きの表にする
func ReadTable(r io.Reader, opts ReadOptions) (*Table, error) {
	data, err := readAll(r, opts.MaxBytes)
	if err != nil {
		return nil, err
	}

	text, err := decode(data, opts.Encoding)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperr.New(apperr.KindParsing, EmptyFileMessage)
		}
		return nil, apperr.Wrap(err, apperr.KindParsing)
	}
	for i := range header {
		header[i] = trimCell(header[i])
	}

	table := &Table{Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.Wrap(err, apperr.KindParsing)
		}
		if isBlankRecord(record) {
			continue
		}
		line, _ := cr.FieldPos(0)
		table.Rows = append(table.Rows, newRawRow(line, header, record))
	}

	if len(table.Rows) == 0 {
		return nil, apperr.New(apperr.KindParsing, EmptyFileMessage)
	}
	return table, nil
}

func readAll(r io.Reader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindFileProcessing)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, apperr.New(apperr.KindFileProcessing, fmt.Sprintf("ファイルが大きすぎます（最大 %d バイト）", maxBytes))
	}
	return data, nil
}

// decode 入力を UTF-8 に変換する
func decode(data []byte, enc Encoding) ([]byte, error) {
	switch enc {
	case EncodingUTF8:
		data = bytes.TrimPrefix(data, utf8BOM)
		if !utf8.Valid(data) {
			return nil, apperr.New(apperr.KindEncoding, "UTF-8 として読み込めません")
		}
		return data, nil
	case EncodingShiftJIS:
		return decodeShiftJIS(data)
	default:
		if trimmed := bytes.TrimPrefix(data, utf8BOM); utf8.Valid(trimmed) {
			return trimmed, nil
		}
		return decodeShiftJIS(data)
	}
}

func decodeShiftJIS(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.KindEncoding)
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return nil, apperr.New(apperr.KindEncoding, "Shift_JIS として読み込めない文字が含まれています")
	}
	return out, nil
}
