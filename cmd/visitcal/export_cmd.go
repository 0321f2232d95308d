package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/apperr"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/config"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/exporter"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/importer"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/logging"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/model"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/parser"
	"github.com/TaishiYoshitsugi/calendar-csv-app/internal/session"
)

type exportOptions struct {
	input      string
	month      string
	office     string
	users      []string
	grayscale  bool
	format     string
	encoding   string
	jobTypes   []string
	out        string
	configPath string
}

func newExportCmd() *cobra.Command {
	var opts exportOptions

	cmd := &cobra.Command{
		Use:   "export",
		Short: "CSV を読み込んでカレンダーをファイルに出力する",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.input, "input", "", "予定の CSV / Excel ファイル (必須)")
	cmd.Flags().StringVar(&opts.month, "month", "", "対象月 YYYY-MM (既定はファイル内の年月)")
	cmd.Flags().StringVar(&opts.office, "office", "", "帳票に印字する事業所")
	cmd.Flags().StringArrayVar(&opts.users, "user", nil, "出力する利用者 (複数指定可、既定は全員)")
	cmd.Flags().BoolVar(&opts.grayscale, "grayscale", false, "白黒で出力する")
	cmd.Flags().StringVar(&opts.format, "format", "", "出力形式 pdf / xlsx / html")
	cmd.Flags().StringVar(&opts.encoding, "encoding", "", "文字コード auto / shift_jis / utf-8")
	cmd.Flags().StringArrayVar(&opts.jobTypes, "job-type", nil, "職種が空欄の職員の職種 \"職員名=職種\" (複数指定可)")
	cmd.Flags().StringVar(&opts.out, "out", "", "出力先 (ディレクトリかファイル名、既定はカレントディレクトリ)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "設定ファイルのパス")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runExport(ctx context.Context, opts exportOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, _, err := config.LoadConfigWithInfo(opts.configPath)
	if err != nil {
		return withCode(exitUsage, err)
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	readOpts := parser.ReadOptions{Encoding: cfg.InputEncoding(), MaxBytes: cfg.Input.MaxBytes}
	if opts.encoding != "" {
		enc, ok := parser.ParseEncoding(opts.encoding)
		if !ok {
			return withCode(exitUsage, fmt.Errorf("--encoding が不正です: %q", opts.encoding))
		}
		readOpts.Encoding = enc
	}
	format := cfg.Export.Format
	if opts.format != "" {
		format = opts.format
	}
	if _, ok := exporter.ParseFormat(format); !ok {
		return withCode(exitUsage, fmt.Errorf("--format は pdf / xlsx / html のいずれかを指定してください: %q", format))
	}
	choices, err := parseJobTypeChoices(opts.jobTypes)
	if err != nil {
		return withCode(exitUsage, err)
	}

	report, err := importer.NewCoordinator(log.WithField("component", "importer")).Run(ctx, importer.ImportOptions{
		FileName: opts.input,
		Read:     readOpts,
	})
	if err != nil {
		return withCode(exitValidation, describe(err))
	}
	for _, w := range report.Warnings {
		log.Warn(w)
	}

	now := time.Now()
	s := session.ApplyUpload(session.New(now, model.Office(cfg.Export.DefaultOffice)), report, now)
	s, err = resolveJobTypes(s, choices)
	if err != nil {
		return withCode(exitValidation, err)
	}

	if opts.month != "" {
		y, m, err := parseMonth(opts.month)
		if err != nil {
			return withCode(exitUsage, err)
		}
		if s, err = session.SetMonth(s, y, m); err != nil {
			return withCode(exitUsage, describe(err))
		}
	}
	if opts.office != "" {
		if s, err = session.SetExportOffice(s, opts.office); err != nil {
			return withCode(exitUsage, describe(err))
		}
	}
	users := s.SelectedUsers
	if len(opts.users) > 0 {
		for _, u := range opts.users {
			if !s.Index().HasUser(u) {
				return withCode(exitValidation, fmt.Errorf("利用者が見つかりません: %s", u))
			}
		}
		users = opts.users
	}

	colorMode := exporter.ColorModeColor
	if opts.grayscale {
		colorMode = exporter.ColorModeGrayscale
	}

	pdf := exporter.NewPDFRenderer(cfg.PDF.ChromeBin, log.WithField("component", "pdf"))
	defer func() { _ = pdf.Close() }()
	exp := exporter.NewExporter(log.WithField("component", "exporter"), cfg.PDFTimeout(),
		pdf,
		exporter.WorkbookRenderer{},
		exporter.HTMLRenderer{},
	)

	artifact, err := exp.Export(ctx, exporter.Options{
		Index:     s.Index(),
		Users:     users,
		Year:      s.Year,
		Month:     s.Month,
		Office:    s.ExportOffice,
		ColorMode: colorMode,
		Format:    exporter.Format(format),
	})
	if err != nil {
		return withCode(exitFailure, describe(err))
	}

	path := outputPath(opts.out, artifact.FileName)
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		return withCode(exitFailure, errors.Wrapf(err, "%s の書き込みに失敗しました", path))
	}
	fmt.Fprintf(stdout, "%s (%d名, %dページ)\n", path, len(users), artifact.Pages)
	return nil
}

// resolveJobTypes 職種が決まらない職員に --job-type の値を当てて確定する
func resolveJobTypes(s session.State, choices map[string]model.JobType) (session.State, error) {
	pending := s.Workflow.PendingStaff()
	if len(pending) == 0 {
		return s, nil
	}

	var missing []string
	for _, staff := range pending {
		jt, ok := choices[staff]
		if !ok {
			missing = append(missing, staff)
			continue
		}
		next, err := session.ChooseJobType(s, staff, jt)
		if err != nil {
			return s, describe(err)
		}
		s = next
	}
	if len(missing) > 0 {
		return s, fmt.Errorf("職種が未入力の職員がいます。--job-type \"職員名=職種\" で指定してください: %s",
			strings.Join(missing, ", "))
	}

	s, err := session.ConfirmResolution(s)
	if err != nil {
		return s, describe(err)
	}
	return s, nil
}

// parseMonth "YYYY-MM" か "YYYY/MM" を解釈する
func parseMonth(s string) (int, int, error) {
	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(strings.TrimSpace(s), sep)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("--month は YYYY-MM で指定してください: %q", s)
	}
	y, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("--month の年が不正です: %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, fmt.Errorf("--month の月が不正です: %q", s)
	}
	return y, m, nil
}

// parseJobTypeChoices "職員名=職種" の一覧を解釈する
func parseJobTypeChoices(values []string) (map[string]model.JobType, error) {
	choices := make(map[string]model.JobType, len(values))
	for _, v := range values {
		name, jt, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("--job-type は \"職員名=職種\" で指定してください: %q", v)
		}
		jobType, ok := model.ParseJobType(strings.TrimSpace(jt))
		if !ok {
			return nil, fmt.Errorf("%s の職種が不正です: %q", name, jt)
		}
		choices[name] = jobType
	}
	return choices, nil
}

// outputPath 出力先がディレクトリならその中に fileName で置く
func outputPath(out, fileName string) string {
	if out == "" {
		return fileName
	}
	if st, err := os.Stat(out); err == nil && st.IsDir() {
		return filepath.Join(out, fileName)
	}
	return out
}

// describe 画面と同じ文言でエラーを表示する
func describe(err error) error {
	n := apperr.Notify(err)
	return errors.New(strings.ReplaceAll(n.Description, "\n", ": "))
}
