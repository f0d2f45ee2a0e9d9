package main

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/plugin"
	"github.com/wpcheck/plugin-check/internal/reporting"
	"github.com/wpcheck/plugin-check/internal/spinner"
	"github.com/wpcheck/plugin-check/internal/wizard"
)

type checkOptions struct {
	checks              string
	categories          []string
	includeExperimental bool
	format              string
	strict              bool
	noColor             bool
}

func newCheckCommand(a *app) *cobra.Command {
	var opts checkOptions

	cmd := &cobra.Command{
		Use:   "check [plugin]",
		Short: "Run checks against an installed plugin",
		Long: `Run checks against an installed plugin.

The plugin is named by its slug ("hello-dolly") or basename
("hello-dolly/hello.php"). Without a plugin and on a terminal, an
interactive picker lists the installed plugins.

Without --checks, every stable check runs. --categories narrows that set
and --include-experimental adds experimental checks. Unknown slugs in
--checks are ignored unless --strict is given.

Exits 1 when any check reports an error, and 2 when the request is
invalid or the environment cannot be prepared.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, a, &opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.checks, "checks", "", "Comma-separated check slugs to run")
	cmd.Flags().StringSliceVar(&opts.categories, "categories", nil, "Only run checks in these categories")
	cmd.Flags().BoolVar(&opts.includeExperimental, "include-experimental", false, "Also run experimental checks")
	cmd.Flags().StringVar(&opts.format, "format", "", "Output format: table, json or junit (default from config, else table)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Reject unknown check slugs")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	return cmd
}

func runCheck(cmd *cobra.Command, a *app, opts *checkOptions, args []string) error {
	if opts.noColor {
		color.NoColor = true
	}

	w, err := a.open()
	if err != nil {
		return err
	}
	defer w.Close() //nolint:errcheck

	format := opts.format
	if format == "" {
		format = w.cfg.Checks.Format
	}
	if !slices.Contains([]string{formatTable, formatJSON, formatJUnit}, format) {
		return fmt.Errorf("unknown format %q (want table, json or junit)", format)
	}

	sel, err := selection(w.cfg, opts.categories, opts.includeExperimental)
	if err != nil {
		return err
	}

	runner := a.early
	var slug string
	if len(args) == 1 {
		slug = args[0]
	} else {
		if slug, err = pickPlugin(cmd, w); err != nil {
			return err
		}
		// The raw arguments named no plugin, so the early runner cannot
		// confirm the picked one.
		runner = nil
	}

	src := checker.ArgsSource{"plugin-check", "plugin", "check", slug}
	if opts.checks != "" {
		src = append(src, "--checks="+opts.checks)
	}
	runner = checker.RunnerFor(runner, cliTransport(), src)
	runOpts := a.runnerOptions(w, sel)
	if format == formatTable {
		if f, ok := cmd.ErrOrStderr().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			sp := spinner.Start(f, "Running checks against "+slug)
			defer sp.Stop()
			runOpts = append(runOpts, checker.WithObserver(sp))
		}
	}
	if err := runner.Configure(runOpts...); err != nil {
		return err
	}
	if err := runner.SetCheckSlugs(checker.SplitSlugs(opts.checks)); err != nil {
		return err
	}
	if err := runner.SetPluginSlug(slug); err != nil {
		return err
	}
	if opts.strict {
		if err := rejectUnknownChecks(runner, checker.SplitSlugs(opts.checks)); err != nil {
			return err
		}
	}

	start := time.Now()
	result, runErr := runner.Run(cmd.Context())
	if result == nil {
		return runErr
	}

	report := reporting.NewReport(result, runner.SelectedSlugs(), time.Since(start))
	report.RunID = runner.RunID()
	if err := writeReport(cmd.OutOrStdout(), report, format); err != nil {
		return errors.Join(runErr, err)
	}

	if runErr != nil {
		return runErr
	}
	if result.ErrorCount() > 0 {
		return &ChecksFailedError{Errors: result.ErrorCount(), Warnings: result.WarningCount()}
	}
	return nil
}

// pickPlugin asks for the plugin on a terminal, and fails like an empty
// slug otherwise.
func pickPlugin(cmd *cobra.Command, w *workspace) (string, error) {
	if !wizard.IsTerminal(cmd.InOrStdin()) {
		return "", &checker.ValidationError{Field: "plugin", Reason: "cannot resolve plugin", Err: plugin.ErrEmptySlug}
	}
	plugins, err := w.locator.Available()
	if err != nil {
		return "", err
	}
	return wizard.PickPlugin(cmd.InOrStdin(), cmd.OutOrStdout(), plugins)
}

func rejectUnknownChecks(r *checker.Runner, slugs []string) error {
	registry, err := r.Checks()
	if err != nil {
		return err
	}
	var unknown []string
	for _, s := range slugs {
		if _, ok := registry.Lookup(s); !ok {
			unknown = append(unknown, s)
		}
	}
	if len(unknown) > 0 {
		return &checker.ValidationError{Field: "checks", Reason: "unknown checks: " + strings.Join(unknown, ", ")}
	}
	return nil
}
