package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
)

const csvBody = "日付,開始時間,終了時間,職員名１,利用者,職種１,事業所名\n" +
	"2024-05-10,09:00,10:00,田中　太郎,やまだ　はなこ,看護師,西東京事業所\n" +
	"2024-05-11,13:00,14:00,鈴木　次郎,あおき　たろう,,横浜戸塚事業所\n"

func writeInput(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.csv")
	require.NoError(t, os.WriteFile(path, []byte(csvBody), 0o644))
	return path
}

func TestParseMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		year    int
		month   int
		wantErr bool
	}{
		{in: "2024-05", year: 2024, month: 5},
		{in: "2024/12", year: 2024, month: 12},
		{in: "2024-13", wantErr: true},
		{in: "202405", wantErr: true},
		{in: "abcd-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			y, m, err := parseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.year, y)
			assert.Equal(t, tt.month, m)
		})
	}
}

func TestParseJobTypeChoices(t *testing.T) {
	t.Parallel()

	got, err := parseJobTypeChoices([]string{"鈴木　次郎=理学療法士", " 田中　太郎 = 看護師 "})
	require.NoError(t, err)
	assert.Equal(t, model.JobTypePhysicalTherapist, got["鈴木　次郎"])
	assert.Equal(t, model.JobTypeNurse, got["田中　太郎"])

	_, err = parseJobTypeChoices([]string{"鈴木　次郎"})
	assert.Error(t, err)
	_, err = parseJobTypeChoices([]string{"鈴木　次郎=医師"})
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, exitOK, exitCode(nil))
	assert.Equal(t, exitUsage, exitCode(withCode(exitUsage, assert.AnError)))
	assert.Equal(t, exitFailure, exitCode(assert.AnError))
}

func TestRunExport_RequiresJobTypes(t *testing.T) {
	t.Parallel()

	err := runExport(context.Background(), exportOptions{
		input:      writeInput(t),
		encoding:   "utf-8",
		format:     "html",
		out:        t.TempDir(),
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
	}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
	assert.Contains(t, err.Error(), "鈴木　次郎")
}

func TestRunExport_HTML(t *testing.T) {
	t.Parallel()

	outDir := t.TempDir()
	var stdout bytes.Buffer
	err := runExport(context.Background(), exportOptions{
		input:      writeInput(t),
		encoding:   "utf-8",
		format:     "html",
		users:      []string{"あおき　たろう"},
		office:     string(model.OfficeNishiTokyo),
		jobTypes:   []string{"鈴木　次郎=作業療法士"},
		out:        outDir,
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
	}, &stdout)
	require.NoError(t, err)

	path := filepath.Join(outDir, "あおき　たろう_2024年05月_カレンダー.html")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "あおき　たろう")
	assert.Contains(t, string(data), "13:00 - 14:00")
	assert.Contains(t, stdout.String(), "1名")
}

func TestRunExport_UnknownUser(t *testing.T) {
	t.Parallel()

	err := runExport(context.Background(), exportOptions{
		input:      writeInput(t),
		encoding:   "utf-8",
		format:     "html",
		users:      []string{"だれか"},
		jobTypes:   []string{"鈴木　次郎=看護師"},
		configPath: filepath.Join(t.TempDir(), "missing.toml"),
	}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, exitValidation, exitCode(err))
}
