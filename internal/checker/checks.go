package checker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/wpcheck/plugin-check/internal/plugin"
)

// CodeCheckExecutionFailed is the code of the message recorded when a check
// returns an error or panics.
const CodeCheckExecutionFailed = "check_execution_failed"

// Checks is the registry of known checks, bound to the plugin they run
// against.
type Checks struct {
	plugin   *plugin.Context
	checks   []Check
	index    map[string]int
	filters  []func([]Check) []Check
	logger   *slog.Logger
	observer Observer
}

// ChecksOption configures NewChecks.
type ChecksOption func(*Checks)

// WithFilter lets a collaborator add, remove or reorder the initial checks
// before they are registered.
func WithFilter(f func([]Check) []Check) ChecksOption {
	return func(c *Checks) { c.filters = append(c.filters, f) }
}

// WithChecksLogger sets the logger used during dispatch.
func WithChecksLogger(l *slog.Logger) ChecksOption {
	return func(c *Checks) { c.logger = l }
}

// WithChecksObserver reports each check's outcome to o.
func WithChecksObserver(o Observer) ChecksOption {
	return func(c *Checks) { c.observer = o }
}

// NewChecks registers initial (after filters) for p.
func NewChecks(p *plugin.Context, initial []Check, opts ...ChecksOption) (*Checks, error) {
	c := &Checks{
		plugin:   p,
		index:    map[string]int{},
		logger:   slog.Default(),
		observer: noopObserver{},
	}
	for _, o := range opts {
		o(c)
	}

	checks := append([]Check(nil), initial...)
	for _, f := range c.filters {
		checks = f(checks)
	}
	if err := c.Register(checks...); err != nil {
		return nil, err
	}
	return c, nil
}

// Plugin is the bound target.
func (c *Checks) Plugin() *plugin.Context { return c.plugin }

// Register appends checks, rejecting invalid metadata and duplicate slugs.
func (c *Checks) Register(checks ...Check) error {
	for _, chk := range checks {
		if chk == nil {
			return fmt.Errorf("%w: nil check", ErrInvalidCheck)
		}
		m := chk.Metadata()
		if err := validateMetadata(m); err != nil {
			return err
		}
		if _, dup := c.index[m.Slug]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCheck, m.Slug)
		}
		c.index[m.Slug] = len(c.checks)
		c.checks = append(c.checks, chk)
	}
	return nil
}

// All returns every registered check in registration order.
func (c *Checks) All() []Check {
	return append([]Check(nil), c.checks...)
}

// Lookup returns the check registered under slug.
func (c *Checks) Lookup(slug string) (Check, bool) {
	i, ok := c.index[slug]
	if !ok {
		return nil, false
	}
	return c.checks[i], true
}

// RunChecks runs checks in order against a fresh result. A check that
// returns an error or panics is recorded as one error message and the
// remaining checks still run. If ctx ends, dispatch stops before the next
// check and the partial result is returned with ctx's error.
func (c *Checks) RunChecks(ctx context.Context, checks []Check) (*Result, error) {
	result := NewResult(c.plugin)
	defer result.setCurrentCheck("")

	for _, chk := range checks {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		slug := chk.Metadata().Slug
		result.setCurrentCheck(slug)
		errorsBefore, warningsBefore := result.ErrorCount(), result.WarningCount()
		start := time.Now()

		err := runCheck(ctx, chk, result)
		if err != nil {
			execErr := &CheckExecutionError{Slug: slug, Err: err}
			c.logger.Warn("check failed", "check", slug, "error", err)
			result.AddMessage(true, execErr.Error(), MessageOptions{Code: CodeCheckExecutionFailed})
		}

		outcome := OutcomePassed
		switch {
		case err != nil:
			outcome = OutcomeFailed
		case result.ErrorCount() > errorsBefore:
			outcome = OutcomeErrors
		case result.WarningCount() > warningsBefore:
			outcome = OutcomeWarnings
		}
		elapsed := time.Since(start)
		c.observer.CheckFinished(slug, outcome, elapsed)
		c.logger.Debug("check finished", "check", slug, "outcome", outcome, "duration", elapsed)
	}
	return result, nil
}

func runCheck(ctx context.Context, chk Check, result *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Debug("check panicked", "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return chk.Run(ctx, result)
}
