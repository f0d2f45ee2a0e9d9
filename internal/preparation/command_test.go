package preparation

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/environment"
)

func TestCommand_SetupAndTeardown(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX touch/rm")
	}
	dir := t.TempDir()
	p, err := newCommandFromArgs(&environment.Environment{Root: dir}, []any{map[string]any{
		"setup":    "touch marker",
		"teardown": "rm marker",
	}})
	require.NoError(t, err)

	cleanup, err := p.Prepare(context.Background())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "marker"))

	require.NoError(t, cleanup())
	_, err = os.Stat(filepath.Join(dir, "marker"))
	require.True(t, os.IsNotExist(err))
}

func TestCommand_ExitCodes(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false")
	}
	tests := []struct {
		name    string
		cfg     CommandConfig
		wantErr string
	}{
		{name: "success", cfg: CommandConfig{Setup: "true"}},
		{name: "failure", cfg: CommandConfig{Setup: "false"}, wantErr: "exited with code 1"},
		{name: "accepted non-zero", cfg: CommandConfig{Setup: "false", ExitCodes: []int{1}}},
		{name: "zero not accepted", cfg: CommandConfig{Setup: "true", ExitCodes: []int{2}}, wantErr: "exited with code 0"},
		{name: "missing binary", cfg: CommandConfig{Setup: "plugin-check-no-such-binary"}, wantErr: "command setup"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, err := NewCommand(tc.cfg)
			require.NoError(t, err)
			_, err = c.Prepare(context.Background())
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNewCommand_Validation(t *testing.T) {
	_, err := NewCommand(CommandConfig{Setup: "   "})
	require.Error(t, err)

	_, err = newCommandFromArgs(nil, nil)
	require.ErrorContains(t, err, "expected one argument")
}
