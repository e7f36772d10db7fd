// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/bookshelf/internal/library"
	"github.com/pdiddy/bookshelf/internal/shell"
	"github.com/pdiddy/bookshelf/pkg/types"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive search session",
	Long: `Shell reads commands from standard input: search, switch modes, toggle
favorites and read flags on the listed results. Favorites are re-read from
the store on the favorites.reconcile_schedule cron schedule.`,
	Args: cobra.NoArgs,
	RunE: runShell,
}

func init() {
	shellCmd.Flags().String("mode", "title", "initial search mode: title, author, q, or favorites")
	shellCmd.Flags().String("reconcile", "", "cron schedule for re-reading favorites (overrides config; \"off\" disables)")

	rootCmd.AddCommand(shellCmd)
}

func runShell(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := types.ParseSearchMode(modeName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()
	view, err := newView(cfg, logger)
	if err != nil {
		return err
	}

	schedule := cfg.Favorites.ReconcileSchedule
	if s, _ := cmd.Flags().GetString("reconcile"); s != "" {
		schedule = s
	}
	if schedule == "off" {
		schedule = ""
	}

	sh := shell.New(view, os.Stdin, os.Stdout, mode)
	sh.Reconciler = library.NewReconciler(view, logger, viper.GetDuration("timeout"))
	sh.Schedule = schedule
	return sh.Run(cmd.Context())
}
