package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	serve := newServeCmd()

	cmd := &cobra.Command{
		Use:           "visitcal",
		Short:         "訪問予定CSVから利用者ごとの月間カレンダーを作るツール",
		SilenceUsage:  true,
		SilenceErrors: true,
		// サブコマンドなしで起動したときは serve と同じ
		RunE: serve.RunE,
	}
	cmd.Flags().AddFlagSet(serve.Flags())

	cmd.AddCommand(serve)
	cmd.AddCommand(newExportCmd())
	return cmd
}

// Execute ルートコマンドを実行する
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(exitCode(err))
	}
}
