package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/wpcheck/plugin-check/internal/environment"
	"github.com/wpcheck/plugin-check/internal/plugin"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

//go:generate go tool mockgen -destination=mock_preparation_test.go -package=checker github.com/wpcheck/plugin-check/internal/preparation Preparation

// ScratchTablePrefix is the table prefix runtime checks see while a runner
// is prepared.
const ScratchTablePrefix = "wppc_"

// State is a runner's lifecycle position.
type State int

const (
	StateCreated State = iota
	StateValidated
	StatePrepared
	StateRunning
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateValidated:
		return "validated"
	case StatePrepared:
		return "prepared"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Runner drives one check run for one front-end request. A runner is used
// once; after Run it only reports ErrRunnerFinished.
type Runner struct {
	transport        Transport
	source           RequestSource
	initializedEarly bool

	pluginSlug    string
	pluginSlugSet bool
	checkSlugs    []string
	checkSlugsSet bool
	selection     FilterOptions

	locator     *plugin.Locator
	contextOpts []plugin.ContextOption
	env         *environment.Environment
	preps       *preparation.Registry
	catalog     []Check
	checksOpts  []ChecksOption

	checks  *Checks
	state   State
	release func()

	runID      string
	baseLogger *slog.Logger
	logger     *slog.Logger
	observer   Observer
}

// RunnerOption configures NewRunner.
type RunnerOption func(*Runner)

// WithInitializedEarly marks a runner created from the raw request before
// the front-end parsed it. Such a runner only accepts parameters matching
// that request.
func WithInitializedEarly() RunnerOption {
	return func(r *Runner) { r.initializedEarly = true }
}

// WithLocator sets where plugins are looked up.
func WithLocator(l *plugin.Locator) RunnerOption {
	return func(r *Runner) { r.locator = l }
}

// WithPluginContextOptions are applied to the plugin context of the run.
func WithPluginContextOptions(opts ...plugin.ContextOption) RunnerOption {
	return func(r *Runner) { r.contextOpts = append(r.contextOpts, opts...) }
}

// WithEnvironment sets the shared environment preparations act on.
func WithEnvironment(env *environment.Environment) RunnerOption {
	return func(r *Runner) { r.env = env }
}

// WithPreparations overrides the preparation registry. By default every
// built-in kind is available.
func WithPreparations(reg *preparation.Registry) RunnerOption {
	return func(r *Runner) { r.preps = reg }
}

// WithCatalog adds checks to the registry the runner builds.
func WithCatalog(checks ...Check) RunnerOption {
	return func(r *Runner) { r.catalog = append(r.catalog, checks...) }
}

// WithChecksOptions are passed to NewChecks.
func WithChecksOptions(opts ...ChecksOption) RunnerOption {
	return func(r *Runner) { r.checksOpts = append(r.checksOpts, opts...) }
}

// WithSelection narrows the checks run when no slugs are requested.
func WithSelection(o FilterOptions) RunnerOption {
	return func(r *Runner) { r.selection = o }
}

// WithLogger sets the runner's logger. A run_id attribute is added.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.baseLogger = l }
}

// WithObserver reports run progress to o.
func WithObserver(o Observer) RunnerOption {
	return func(r *Runner) { r.observer = o }
}

// NewRunner returns a runner for the request src arrived through t.
func NewRunner(t Transport, src RequestSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		transport:  t,
		source:     src,
		runID:      uuid.NewString(),
		baseLogger: slog.Default(),
		observer:   noopObserver{},
	}
	r.apply(opts)
	return r
}

// Configure applies opts to a runner whose checks have not been resolved
// yet. Front-ends use it to hand an early runner the dependencies that only
// exist once configuration is loaded.
func (r *Runner) Configure(opts ...RunnerOption) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if r.checks != nil {
		return errors.New("runner is already bound to a plugin")
	}
	r.apply(opts)
	return nil
}

func (r *Runner) apply(opts []RunnerOption) {
	for _, o := range opts {
		o(r)
	}
	if r.preps == nil && r.env != nil {
		r.preps = preparation.Default(r.env)
	}
	r.logger = r.baseLogger.With("run_id", r.runID, "transport", r.transport.Name())
}

func (r *Runner) IsApplicable() bool     { return r.transport.IsApplicable(r.source) }
func (r *Runner) InitializedEarly() bool { return r.initializedEarly }
func (r *Runner) State() State           { return r.state }
func (r *Runner) RunID() string          { return r.runID }

// SetCheckSlugs overrides the checks to run. An early runner rejects slugs
// that differ from its request's without changing any state.
func (r *Runner) SetCheckSlugs(slugs []string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if r.initializedEarly && !slices.Equal(slugs, r.transport.CheckSlugsParam(r.source)) {
		return &ValidationError{Field: "checks", Reason: "the checks to run do not match the original request"}
	}
	r.checkSlugs = slices.Clone(slugs)
	r.checkSlugsSet = true
	r.state = StateValidated
	return nil
}

// SetPluginSlug overrides the plugin to check. An early runner rejects a
// slug that differs from its request's without changing any state.
func (r *Runner) SetPluginSlug(slug string) error {
	if err := r.checkOpen(); err != nil {
		return err
	}
	if r.initializedEarly && slug != r.transport.PluginParam(r.source) {
		return &ValidationError{Field: "plugin", Reason: "the plugin to check does not match the original request"}
	}
	if slug == "" {
		return &ValidationError{Field: "plugin", Reason: "cannot resolve plugin", Err: plugin.ErrEmptySlug}
	}
	r.pluginSlug = slug
	r.pluginSlugSet = true
	r.state = StateValidated
	return nil
}

func (r *Runner) checkOpen() error {
	switch r.state {
	case StateDone, StateFailed:
		return ErrRunnerFinished
	case StateRunning:
		return errors.New("runner is already running")
	}
	return nil
}

func (r *Runner) fail(err error) error {
	r.state = StateFailed
	return err
}

// Checks returns the registry bound to the requested plugin, building it on
// first use.
func (r *Runner) Checks() (*Checks, error) {
	if r.checks != nil {
		return r.checks, nil
	}
	if r.locator == nil {
		return nil, errors.New("runner has no plugin locator")
	}

	slug := r.pluginSlug
	if !r.pluginSlugSet {
		slug = r.transport.PluginParam(r.source)
	}
	basename, err := r.locator.BasenameFromInput(slug)
	if err != nil {
		return nil, &ValidationError{Field: "plugin", Reason: "cannot resolve plugin", Err: err}
	}

	opts := append([]ChecksOption{WithChecksLogger(r.logger), WithChecksObserver(r.observer)}, r.checksOpts...)
	checks, err := NewChecks(r.locator.Context(basename, r.contextOpts...), r.catalog, opts...)
	if err != nil {
		return nil, err
	}
	r.checks = checks
	return checks, nil
}

// ChecksToRun resolves the effective check set. Requested slugs select
// from the registry in registry order and unknown ones are dropped. With no
// slugs, every registered check passing the runner's selection is used.
func (r *Runner) ChecksToRun() ([]Check, error) {
	c, err := r.Checks()
	if err != nil {
		return nil, err
	}

	slugs := r.checkSlugs
	if !r.checkSlugsSet {
		slugs = r.transport.CheckSlugsParam(r.source)
	}
	if len(slugs) == 0 {
		return FilterChecks(c.All(), r.selection), nil
	}

	wanted := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		wanted[s] = true
	}
	var out []Check
	for _, chk := range c.All() {
		slug := chk.Metadata().Slug
		if wanted[slug] {
			out = append(out, chk)
			delete(wanted, slug)
		}
	}
	for s := range wanted {
		r.logger.Debug("ignoring unknown check", "check", s)
	}
	return out, nil
}

// SelectedSlugs lists the slugs ChecksToRun resolves to, or nil when the
// checks cannot be resolved.
func (r *Runner) SelectedSlugs() []string {
	list, err := r.ChecksToRun()
	if err != nil {
		return nil
	}
	slugs := make([]string, len(list))
	for i, c := range list {
		slugs[i] = c.Metadata().Slug
	}
	return slugs
}

func (r *Runner) acquire(ctx context.Context) error {
	if r.release != nil || r.env == nil {
		return nil
	}
	release, err := r.env.Acquire(ctx)
	if err != nil {
		return err
	}
	r.release = release
	return nil
}

func (r *Runner) releaseLock() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// Prepare locks the environment for this run and, if any selected check
// needs a live runtime, installs the runtime shim and switches the store to
// ScratchTablePrefix. The returned cleanup undoes all of it and releases the
// lock; call it after Run.
func (r *Runner) Prepare(ctx context.Context) (preparation.Cleanup, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	checks, err := r.ChecksToRun()
	if err != nil {
		return nil, r.fail(err)
	}
	if err := r.acquire(ctx); err != nil {
		return nil, r.fail(&PreparationError{Err: err})
	}

	if !requiresUniversalPreparation(checks) {
		r.state = StatePrepared
		return func() error {
			r.releaseLock()
			return nil
		}, nil
	}

	if r.env == nil || r.env.Store == nil {
		r.releaseLock()
		return nil, r.fail(&PreparationError{
			Kind: preparation.KindUniversalRuntime,
			Err:  errors.New("runtime checks need an environment with a database"),
		})
	}

	shim, err := r.preps.New(preparation.Request{Kind: preparation.KindUniversalRuntime})
	var shimCleanup preparation.Cleanup
	if err == nil {
		shimCleanup, err = shim.Prepare(ctx)
	}
	r.observer.PreparationFinished(preparation.KindUniversalRuntime, err)
	if err != nil {
		r.releaseLock()
		return nil, r.fail(&PreparationError{Kind: preparation.KindUniversalRuntime, Err: err})
	}

	previous, err := r.env.Store.SetPrefix(ScratchTablePrefix)
	if err != nil {
		cerr := shimCleanup()
		r.releaseLock()
		return nil, r.fail(errors.Join(&PreparationError{Kind: preparation.KindUniversalRuntime, Err: err}, cerr))
	}
	r.logger.Debug("runtime environment prepared", "prefix", ScratchTablePrefix)

	r.state = StatePrepared
	return func() error {
		defer r.releaseLock()
		var errs []error
		if _, err := r.env.Store.SetPrefix(previous); err != nil {
			errs = append(errs, err)
		}
		if err := shimCleanup(); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return &CleanupError{Errs: errs}
		}
		return nil
	}, nil
}

type appliedPreparation struct {
	kind    preparation.Kind
	cleanup preparation.Cleanup
}

// Run sets up each distinct shared preparation once, runs the selected
// checks and reverts the preparations in reverse order, whatever happened.
// Cleanup failures are returned as a *CleanupError next to the result.
//
// Without a prior call to Prepare, Run prepares the runner itself and
// reverts that too. After an explicit Prepare, reverting it stays with the
// caller.
func (r *Runner) Run(ctx context.Context) (result *Result, err error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}

	start := time.Now()
	r.observer.RunStarted()
	r.logger.Info("running checks")
	defer func() {
		elapsed := time.Since(start)
		r.observer.RunFinished(elapsed, err)
		if err != nil {
			r.logger.Warn("run finished with error", "duration", elapsed, "error", err)
		} else {
			r.logger.Info("run finished", "duration", elapsed, "errors", result.ErrorCount(), "warnings", result.WarningCount())
		}
	}()

	checks, err := r.ChecksToRun()
	if err != nil {
		return nil, r.fail(err)
	}
	requests, err := SharedPreparations(checks)
	if err != nil {
		return nil, r.fail(&PreparationError{Err: err})
	}

	// A runner nobody prepared prepares itself. Its universal cleanup is
	// applied first so it is reverted last, after the shared preparations.
	var applied []appliedPreparation
	if r.state != StatePrepared {
		universal, err := r.Prepare(ctx)
		if err != nil {
			return nil, err
		}
		applied = append(applied, appliedPreparation{kind: preparation.KindUniversalRuntime, cleanup: universal})
	}

	r.state = StateRunning

	defer func() {
		if cerr := r.cleanup(applied); cerr != nil {
			err = errors.Join(err, cerr)
		}
		if err != nil {
			r.state = StateFailed
		} else {
			r.state = StateDone
		}
	}()

	for _, req := range requests {
		cleanup, perr := r.prepare(ctx, req)
		r.observer.PreparationFinished(req.Kind, perr)
		if perr != nil {
			return nil, &PreparationError{Kind: req.Kind, Err: perr}
		}
		applied = append(applied, appliedPreparation{kind: req.Kind, cleanup: cleanup})
	}

	result, err = r.checks.RunChecks(ctx, checks)
	if err != nil {
		return result, fmt.Errorf("run interrupted: %w", err)
	}
	return result, nil
}

func (r *Runner) prepare(ctx context.Context, req preparation.Request) (preparation.Cleanup, error) {
	if r.preps == nil {
		return nil, errors.New("no preparation registry configured")
	}
	p, err := r.preps.New(req)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("preparing", "kind", req.Kind)
	return p.Prepare(ctx)
}

func (r *Runner) cleanup(applied []appliedPreparation) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		if err := applied[i].cleanup(); err != nil {
			r.logger.Warn("preparation cleanup failed", "kind", applied[i].kind, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", applied[i].kind, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &CleanupError{Errs: errs}
}
