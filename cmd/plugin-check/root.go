package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wpcheck/plugin-check/internal/checker"
)

var version = "dev"

func newRootCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin-check",
		Short: "Plugin Check - run quality checks against an installed plugin",
		Long: `Plugin Check runs a catalog of checks against an installed plugin and
reports every error and warning by file, line and column.

Checks are grouped by category and stability. Static checks read the
plugin's files; runtime checks run against a prepared copy of the
environment's database tables.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.dir, "dir", ".", "Directory to start looking for .plugin-check.yaml from")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	cmd.AddCommand(newPluginCommand(a))
	cmd.AddCommand(newServeCommand(a))
	cmd.AddCommand(newConfigCommand(a))

	return cmd
}

func newPluginCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Check plugins and inspect the check catalog",
	}
	cmd.AddCommand(newCheckCommand(a))
	cmd.AddCommand(newListChecksCommand(a))
	cmd.AddCommand(newListCategoriesCommand())
	return cmd
}

// execute runs the CLI. Interrupts cancel the context, so a running check
// stops and its preparations are still reverted.
func execute(early *checker.Runner) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&app{early: early})
	return rootCmd.ExecuteContext(ctx)
}
