package reporting

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/plugin"
)

type stubCheck struct {
	slug string
	run  func(r *checker.Result) error
}

func (s stubCheck) Metadata() checker.Metadata {
	return checker.Metadata{Slug: s.slug, Categories: []checker.Category{checker.CategoryGeneral}, Stability: checker.StabilityStable}
}

func (s stubCheck) Run(_ context.Context, r *checker.Result) error { return s.run(r) }

// newTestReport runs three checks: one clean, one with an error and a
// warning in two files, and one that fails outright.
func newTestReport(t *testing.T) *Report {
	t.Helper()
	dir := t.TempDir()
	p := plugin.NewContext(filepath.Join(dir, "sample", "sample.php"), plugin.WithPluginsDir(dir))

	all := []checker.Check{
		stubCheck{slug: "clean", run: func(*checker.Result) error { return nil }},
		stubCheck{slug: "noisy", run: func(r *checker.Result) error {
			r.AddMessage(false, "Consider a footer script", checker.MessageOptions{Code: "in_header", File: "b.php", Line: 4, Column: 2})
			r.AddMessage(true, "Missing text domain", checker.MessageOptions{Code: "missing_domain", File: "a.php", Line: 9, Column: 1})
			return nil
		}},
		stubCheck{slug: "broken", run: func(*checker.Result) error { return errors.New("phpcs not found") }},
	}
	checks, err := checker.NewChecks(p, all)
	require.NoError(t, err)

	result, err := checks.RunChecks(context.Background(), all)
	require.NoError(t, err)

	r := NewReport(result, []string{"clean", "noisy", "broken"}, 1500*time.Millisecond)
	r.RunID = "run-1"
	r.Timestamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return r
}
