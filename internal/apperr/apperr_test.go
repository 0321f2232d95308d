package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotify_ConcatenatesDetails(t *testing.T) {
	t.Parallel()

	err := New(KindInvalidData, "1行目: 利用者名が入力されていません", "2行目: 日付が入力されていません")
	n := Notify(err)

	assert.Equal(t, KindInvalidData, n.Kind)
	assert.Equal(t, "エラー", n.Title)
	assert.Equal(t, "無効なデータが含まれています\n1行目: 利用者名が入力されていません\n2行目: 日付が入力されていません", n.Description)
}

func TestNotify_PlainErrorFallsBackToFileProcessing(t *testing.T) {
	t.Parallel()

	n := Notify(errors.New("boom"))
	assert.Equal(t, KindFileProcessing, n.Kind)
	assert.Equal(t, "ファイルの処理に失敗しました", n.Description)
}

func TestWrap_KeepsCauseAndKind(t *testing.T) {
	t.Parallel()

	cause := errors.New("read failed")
	err := Wrap(cause, KindEncoding)
	require.Error(t, err)

	assert.Equal(t, KindEncoding, KindOf(err, KindFileProcessing))
	assert.True(t, errors.Is(err, cause))
	assert.Nil(t, Wrap(nil, KindEncoding))
}

func TestEnsure(t *testing.T) {
	t.Parallel()

	typed := New(KindMissingColumns, "利用者")
	assert.Same(t, typed, Ensure(typed, KindExportGeneration))

	wrapped := Ensure(errors.New("x"), KindExportGeneration)
	assert.Equal(t, KindExportGeneration, KindOf(wrapped, KindFileProcessing))
}
