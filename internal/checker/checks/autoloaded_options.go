package checks

import (
	"context"
	"errors"
	"fmt"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/environment"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

type autoloadedOptions struct {
	env   *environment.Environment
	limit int64
}

// NewAutoloadedOptions warns when the options a site loads on every request
// grow beyond cfg.AutoloadLimit.
func NewAutoloadedOptions(cfg Config) checker.Check {
	cfg = cfg.withDefaults()
	return &autoloadedOptions{env: cfg.Env, limit: cfg.AutoloadLimit}
}

func (c *autoloadedOptions) Metadata() checker.Metadata {
	return checker.Metadata{
		Slug:       "autoloaded_options",
		Categories: []checker.Category{checker.CategoryPerformance},
		Stability:  checker.StabilityExperimental,
		Runtime:    true,
		SharedPreparations: []preparation.Request{
			{Kind: preparation.KindDemoTables, Args: []any{"options"}},
		},
	}
}

func (c *autoloadedOptions) Run(ctx context.Context, result *checker.Result) error {
	if c.env == nil || c.env.Store == nil {
		return errors.New("autoloaded options check needs a configured database")
	}
	store := c.env.Store

	var size int64
	query := fmt.Sprintf(
		"SELECT COALESCE(SUM(LENGTH(option_value)), 0) FROM %s WHERE autoload IN ('yes', 'on', 'auto', 'auto-on')",
		store.Table("options"),
	)
	if err := store.DB().QueryRowContext(ctx, query).Scan(&size); err != nil {
		return fmt.Errorf("measuring autoloaded options: %w", err)
	}

	if size > c.limit {
		result.AddMessage(false, fmt.Sprintf(
			"Autoloaded options take %d KiB, more than the recommended %d KiB. Avoid autoloading options that are not needed on every request.",
			size/1024, c.limit/1024,
		), checker.MessageOptions{Code: "autoloaded_options_size"})
	}
	return nil
}
