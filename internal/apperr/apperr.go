// Package apperr 利用者に通知するエラーの分類
//
// どのエラーもアプリケーションを止めない。境界（アップロード・帳票出力）で Kind を持つ
// *Error に変換し、Notify でトースト相当の Notification にして返す。
package apperr

import (
	"strings"

	"github.com/pkg/errors"
)

// Kind エラー種別
type Kind string

const (
	KindFileProcessing   Kind = "FILE_PROCESSING"
	KindParsing          Kind = "CSV_PARSING"
	KindInvalidData      Kind = "INVALID_DATA"
	KindMissingColumns   Kind = "MISSING_COLUMNS"
	KindEncoding         Kind = "ENCODING"
	KindExportGeneration Kind = "PDF_GENERATION"
)

var kindMessages = map[Kind]string{
	KindFileProcessing:   "ファイルの処理に失敗しました",
	KindParsing:          "CSVファイルの解析に失敗しました",
	KindInvalidData:      "無効なデータが含まれています",
	KindMissingColumns:   "必要な列が見つかりません",
	KindEncoding:         "ファイルの文字コードが正しくありません",
	KindExportGeneration: "PDFの生成に失敗しました",
}

// Message 種別ごとの定型文
func (k Kind) Message() string {
	if m, ok := kindMessages[k]; ok {
		return m
	}
	return kindMessages[KindFileProcessing]
}

// Error 種別付きエラー
type Error struct {
	Kind    Kind
	Details []string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Message())
	if len(e.Details) > 0 {
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Details, "; "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 詳細メッセージ付きのエラーを作る
func New(kind Kind, details ...string) error {
	return &Error{Kind: kind, Details: details}
}

// Wrap 原因を保持したまま種別を付ける。err が nil なら nil
func Wrap(err error, kind Kind, details ...string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Details: details, Err: errors.WithStack(err)}
}

// KindOf err の種別。*Error を含まない場合は fallback
func KindOf(err error, fallback Kind) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return fallback
}

// Ensure *Error でなければ fallback 種別で包む
func Ensure(err error, fallback Kind) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Wrap(err, fallback)
}

// Notification 利用者向け通知
type Notification struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Notify エラーを通知に変換する。詳細は改行で連結する
func Notify(err error) Notification {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: KindFileProcessing, Err: err}
	}
	desc := e.Kind.Message()
	if len(e.Details) > 0 {
		desc += "\n" + strings.Join(e.Details, "\n")
	}
	return Notification{
		Kind:        e.Kind,
		Title:       "エラー",
		Description: desc,
	}
}
