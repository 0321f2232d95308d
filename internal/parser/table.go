package parser

// Encoding 入力ファイルの文字コード
type Encoding string

const (
	EncodingAuto     Encoding = "auto"      // UTF-8 として妥当なら UTF-8、そうでなければ Shift_JIS
	EncodingShiftJIS Encoding = "shift_jis" // カイポケ出力の既定
	EncodingUTF8     Encoding = "utf-8"
)

// ParseEncoding 設定値から文字コードを取得する
func ParseEncoding(s string) (Encoding, bool) {
	switch Encoding(NormalizeColumnName(s)) {
	case "", EncodingAuto:
		return EncodingAuto, true
	case EncodingShiftJIS, "sjis", "shift-jis", "cp932":
		return EncodingShiftJIS, true
	case EncodingUTF8, "utf8":
		return EncodingUTF8, true
	}
	return "", false
}

// ReadOptions 読み込み設定
type ReadOptions struct {
	Encoding Encoding
	MaxBytes int64 // 0 は無制限
}

// RawRow 正規化前の 1 行（列名 -> 値）
type RawRow struct {
	Line   int               `json:"line"` // ファイル上の行番号（ヘッダーが 1 行目）
	Fields map[string]string `json:"fields"`
}

// Get 列の値（前後の空白を除去済み）。列がなければ空文字
func (r RawRow) Get(column string) string {
	return r.Fields[column]
}

// Table 読み込み結果
type Table struct {
	Header []string `json:"header"`
	Rows   []RawRow `json:"rows"`
}

// HasColumn ヘッダーに列が存在するか
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnIndex 列の位置。存在しなければ -1
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// MissingColumns ヘッダーに存在しない列（引数の順序を保つ）
func (t *Table) MissingColumns(required []string) []string {
	var missing []string
	for _, col := range required {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

func newRawRow(line int, header, record []string) RawRow {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if name == "" {
			continue
		}
		if _, dup := fields[name]; dup {
			continue
		}
		v := ""
		if i < len(record) {
			v = trimCell(record[i])
		}
		fields[name] = v
	}
	return RawRow{Line: line, Fields: fields}
}

func isBlankRecord(record []string) bool {
	for _, c := range record {
		if trimCell(c) != "" {
			return false
		}
	}
	return true
}
