package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/environment"
	"github.com/wpcheck/plugin-check/internal/preparation"
	"github.com/wpcheck/plugin-check/internal/reporting"
)

const projectConfig = `environment:
  root: .
  plugins_dir: plugins
  content_dir: content
`

// setupProject writes a config and two plugins: "sample", which only lacks
// a readme, and "obfuscated", which ships SourceGuardian-encoded code.
func setupProject(t *testing.T, extraConfig string) string {
	t.Helper()
	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, ".plugin-check.yaml"), projectConfig+extraConfig)
	writeFile(t, filepath.Join(dir, "plugins", "sample", "sample.php"),
		"<?php\n/*\nPlugin Name: Sample\nVersion: 1.0.0\n*/\n")
	writeFile(t, filepath.Join(dir, "plugins", "obfuscated", "obfuscated.php"),
		"<?php\n/*\nPlugin Name: Obfuscated\nVersion: 2.0.0\n*/\nsg_load('AAAA');\n")
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fakePHPCS reports nothing.
func fakePHPCS(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	return []byte(`{"files":{}}`), nil
}

func runCLI(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	if a.exec == nil {
		a.exec = fakePHPCS
	}
	cmd := newRootCommand(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func decodeReport(t *testing.T, out string) reporting.Report {
	t.Helper()
	var r reporting.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func TestCheckJSON(t *testing.T) {
	dir := setupProject(t, "")

	out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--format", "json", "--dir", dir)
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, "sample/sample.php", r.Plugin)
	assert.Equal(t, []string{"plugin_readme", "code_obfuscation", "enqueued_scripts_in_footer"}, r.Checks)
	assert.Equal(t, 0, r.Errors)
	assert.Equal(t, 1, r.Warnings)
	assert.NotEmpty(t, r.RunID)
	require.Len(t, r.Files, 1)
	assert.Equal(t, "readme.txt", r.Files[0].File)
	assert.Equal(t, "no_plugin_readme", r.Files[0].Rows[0].Code)
}

func TestCheckTableReportsErrors(t *testing.T) {
	dir := setupProject(t, "")

	out, err := runCLI(t, &app{}, "plugin", "check", "obfuscated", "--no-color", "--dir", dir)
	require.Error(t, err)

	var failed *ChecksFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 1, failed.Errors)
	assert.Equal(t, ExitChecksFailed, exitCode(err))

	assert.Contains(t, out, "FILE: obfuscated.php")
	assert.Contains(t, out, "LINE")
	assert.Contains(t, out, "obfuscated_code_detected")
	assert.Contains(t, out, "FILE: readme.txt")
}

func TestCheckSelectedChecks(t *testing.T) {
	dir := setupProject(t, "")

	t.Run("unknown slugs are ignored", func(t *testing.T) {
		out, err := runCLI(t, &app{}, "plugin", "check", "obfuscated", "--checks", "plugin_readme,nope", "--format", "json", "--dir", dir)
		require.NoError(t, err)
		r := decodeReport(t, out)
		assert.Equal(t, []string{"plugin_readme"}, r.Checks)
		assert.Equal(t, 0, r.Errors)
	})

	t.Run("strict rejects unknown slugs", func(t *testing.T) {
		_, err := runCLI(t, &app{}, "plugin", "check", "obfuscated", "--checks", "plugin_readme,nope", "--strict", "--dir", dir)
		var verr *checker.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, err.Error(), "unknown checks: nope")
		assert.Equal(t, ExitError, exitCode(err))
	})

	t.Run("experimental checks need the flag", func(t *testing.T) {
		out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--categories", "general", "--format", "json", "--dir", dir)
		require.NoError(t, err)
		assert.Empty(t, decodeReport(t, out).Checks)

		out, err = runCLI(t, &app{}, "plugin", "check", "sample", "--categories", "general", "--include-experimental", "--format", "json", "--dir", dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"i18n_usage"}, decodeReport(t, out).Checks)
	})
}

func TestCheckConfigDefaults(t *testing.T) {
	dir := setupProject(t, "checks:\n  default: [code_obfuscation]\n  format: json\n")

	out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--dir", dir)
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, []string{"code_obfuscation"}, r.Checks)
	assert.Equal(t, 0, r.Warnings)
}

func TestCheckJUnit(t *testing.T) {
	dir := setupProject(t, "")

	out, err := runCLI(t, &app{}, "plugin", "check", "obfuscated", "--format", "junit", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, out, "<testsuites")
	assert.Contains(t, out, `name="code_obfuscation"`)
	assert.Contains(t, out, "<failure")
}

func TestCheckRejectsBadRequests(t *testing.T) {
	dir := setupProject(t, "")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "missing plugin", args: []string{"plugin", "check", "nope"}, wantErr: "nope"},
		{name: "no plugin off a terminal", args: []string{"plugin", "check"}, wantErr: "cannot resolve plugin"},
		{name: "unknown format", args: []string{"plugin", "check", "sample", "--format", "xml"}, wantErr: `unknown format "xml"`},
		{name: "unknown category", args: []string{"plugin", "check", "sample", "--categories", "speed"}, wantErr: "speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, &app{}, append(tt.args, "--dir", dir)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitError, exitCode(err))
		})
	}
}

func TestCheckEarlyRunnerMismatch(t *testing.T) {
	dir := setupProject(t, "")
	early := checker.InitializeRunner(
		checker.ArgsSource{"plugin-check", "plugin", "check", "obfuscated"},
		[]checker.Transport{cliTransport()},
	)
	require.NotNil(t, early)

	_, err := runCLI(t, &app{early: early}, "plugin", "check", "sample", "--dir", dir)

	var verr *checker.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "plugin", verr.Field)
	// The checks matched, the plugin did not.
	assert.Equal(t, checker.StateValidated, early.State())
}

func TestCheckEarlyRunnerMatch(t *testing.T) {
	dir := setupProject(t, "")
	early := checker.InitializeRunner(
		checker.ArgsSource{"plugin-check", "plugin", "check", "sample", "--format", "json", "--dir", dir},
		[]checker.Transport{cliTransport()},
	)
	require.NotNil(t, early)

	out, err := runCLI(t, &app{early: early}, "plugin", "check", "sample", "--format", "json", "--dir", dir)
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, early.RunID(), r.RunID)
	assert.Equal(t, checker.StateDone, early.State())
}

func TestCheckCommandPreparation(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses mkdir from PATH")
	}
	dir := setupProject(t, `preparations:
  - checks: [plugin_readme]
    setup: mkdir setup-ran
    teardown: mkdir teardown-ran
`)

	_, err := runCLI(t, &app{}, "plugin", "check", "sample", "--checks", "plugin_readme", "--dir", dir)
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(dir, "setup-ran"))
	assert.DirExists(t, filepath.Join(dir, "teardown-ran"))
}

func TestCheckCommandPreparationFailure(t *testing.T) {
	dir := setupProject(t, `preparations:
  - checks: [plugin_readme]
    setup: plugin-check-missing-binary
`)

	out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--checks", "plugin_readme", "--dir", dir)

	var perr *checker.PreparationError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, ExitError, exitCode(err))
	assert.NotContains(t, out, "FILE:")
}

// withDatabase configures a sqlite database for runtime checks.
const withDatabase = "  database: site.db\n"

// requireRuntimeReverted checks that no shim or scratch table outlived the
// run.
func requireRuntimeReverted(t *testing.T, dir string) {
	t.Helper()
	assert.NoFileExists(t, filepath.Join(dir, "content", preparation.ObjectCacheDropIn))

	store, err := environment.OpenStore(filepath.Join(dir, "site.db"), "")
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	exists, err := store.TableExists(context.Background(), checker.ScratchTablePrefix+"options")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCheckRuntimeCheck(t *testing.T) {
	dir := setupProject(t, withDatabase)

	out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--checks", "autoloaded_options", "--format", "json", "--dir", dir)
	require.NoError(t, err)

	r := decodeReport(t, out)
	assert.Equal(t, []string{"autoloaded_options"}, r.Checks)
	assert.Zero(t, r.Errors)
	assert.Zero(t, r.Warnings)
	requireRuntimeReverted(t, dir)
}

func TestCheckRuntimeCheckWithoutDatabase(t *testing.T) {
	dir := setupProject(t, "")

	out, err := runCLI(t, &app{}, "plugin", "check", "sample", "--checks", "autoloaded_options", "--dir", dir)

	var perr *checker.PreparationError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, preparation.KindUniversalRuntime, perr.Kind)
	assert.Equal(t, ExitError, exitCode(err))
	assert.NotContains(t, out, "FILE:")
}

func TestCheckSelectionSkipsRuntimeWithoutDatabase(t *testing.T) {
	args := []string{"plugin", "check", "sample", "--categories", "performance", "--include-experimental", "--format", "json"}

	dir := setupProject(t, "")
	out, err := runCLI(t, &app{}, append(args, "--dir", dir)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"enqueued_scripts_in_footer", "performant_wp_query_params"}, decodeReport(t, out).Checks)

	dir = setupProject(t, withDatabase)
	out, err = runCLI(t, &app{}, append(args, "--dir", dir)...)
	require.NoError(t, err)
	assert.Equal(t, []string{"enqueued_scripts_in_footer", "performant_wp_query_params", "autoloaded_options"}, decodeReport(t, out).Checks)
	requireRuntimeReverted(t, dir)
}
