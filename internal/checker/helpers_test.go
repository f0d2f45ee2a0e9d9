package checker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/plugin"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

type fakeCheck struct {
	meta Metadata
	run  func(ctx context.Context, r *Result) error
}

func (c *fakeCheck) Metadata() Metadata { return c.meta }

func (c *fakeCheck) Run(ctx context.Context, r *Result) error {
	if c.run == nil {
		return nil
	}
	return c.run(ctx, r)
}

func newFakeCheck(slug string, preps ...preparation.Request) *fakeCheck {
	return &fakeCheck{meta: Metadata{
		Slug:               slug,
		Categories:         []Category{CategoryGeneral},
		Stability:          StabilityStable,
		SharedPreparations: preps,
	}}
}

// writePlugin creates plugins/<slug>/<slug>.php under a temp dir and
// returns the plugins directory.
func writePlugin(t *testing.T, slug string) string {
	t.Helper()
	pluginsDir := filepath.Join(t.TempDir(), "plugins")
	dir := filepath.Join(pluginsDir, slug)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	main := "<?php\n/**\n * Plugin Name: " + slug + "\n * Version: 1.0.0\n */\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, slug+".php"), []byte(main), 0o644))
	return pluginsDir
}

func testContext(t *testing.T, slug string) *plugin.Context {
	t.Helper()
	dir := writePlugin(t, slug)
	l := &plugin.Locator{PluginsDir: dir}
	return l.Context(slug + "/" + slug + ".php")
}
