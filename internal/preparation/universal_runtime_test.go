package preparation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/environment"
)

func TestUniversalRuntime_InstallsAndRemovesDropIn(t *testing.T) {
	content := filepath.Join(t.TempDir(), "wp-content")
	u := NewUniversalRuntime(&environment.Environment{ContentDir: content})

	cleanup, err := u.Prepare(context.Background())
	require.NoError(t, err)

	path := filepath.Join(content, ObjectCacheDropIn)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "WP_PLUGIN_CHECK_OBJECT_CACHE_DROPIN_VERSION")

	require.NoError(t, cleanup())
	require.NoFileExists(t, path)

	// A second cleanup is harmless.
	require.NoError(t, cleanup())
}

func TestUniversalRuntime_KeepsExistingDropIn(t *testing.T) {
	content := t.TempDir()
	path := filepath.Join(content, ObjectCacheDropIn)
	require.NoError(t, os.WriteFile(path, []byte("<?php // site cache"), 0o644))

	cleanup, err := NewUniversalRuntime(&environment.Environment{ContentDir: content}).Prepare(context.Background())
	require.NoError(t, err)
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "<?php // site cache", string(data))
}

func TestUniversalRuntime_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewUniversalRuntime(&environment.Environment{ContentDir: t.TempDir()}).Prepare(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
