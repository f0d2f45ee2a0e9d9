package main

import (
	"fmt"
	"log/slog"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/checker/checks"
	"github.com/wpcheck/plugin-check/internal/environment"
	"github.com/wpcheck/plugin-check/internal/plugin"
	"github.com/wpcheck/plugin-check/internal/preparation"
	"github.com/wpcheck/plugin-check/internal/projectconfig"
)

// selfSlug is hidden from plugin lists so the checker never checks itself.
const selfSlug = "plugin-check"

// app is the state shared by every command of one invocation.
type app struct {
	// early is the runner created from os.Args before flag parsing. It is
	// nil unless the invocation is "plugin check".
	early *checker.Runner
	// dir is where the config file lookup starts.
	dir string
	// exec overrides how external tools run.
	exec checks.CommandRunner
}

// workspace is a loaded configuration and the environment it describes.
type workspace struct {
	cfg     *projectconfig.ProjectConfig
	env     *environment.Environment
	locator *plugin.Locator
}

func (a *app) open() (*workspace, error) {
	cfg, err := projectconfig.Load(a.dir)
	if err != nil {
		return nil, err
	}

	env, err := environment.New(environment.Options{
		Root:        cfg.Path(cfg.Environment.Root),
		PluginsDir:  cfg.Environment.PluginsDir,
		ContentDir:  cfg.Environment.ContentDir,
		Database:    cfg.Environment.Database,
		TablePrefix: cfg.Environment.TablePrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening environment: %w", err)
	}
	slog.Debug("environment ready", "root", env.Root, "plugins_dir", env.PluginsDir, "database", env.Store != nil)

	return &workspace{
		cfg:     cfg,
		env:     env,
		locator: &plugin.Locator{PluginsDir: env.PluginsDir, Exclude: []string{selfSlug}},
	}, nil
}

func (w *workspace) Close() error {
	return w.env.Close()
}

// catalog is every built-in check, configured from the project.
func (a *app) catalog(w *workspace) []checker.Check {
	return checks.Builtin(checks.Config{
		PHPCS:         w.cfg.Checks.PHPCS,
		Exec:          a.exec,
		Env:           w.env,
		AutoloadLimit: w.cfg.Checks.AutoloadLimit,
	})
}

// configuredPreparations maps check slugs to the command preparations the
// project attaches to them.
func configuredPreparations(cfg *projectconfig.ProjectConfig) map[string][]preparation.Request {
	out := map[string][]preparation.Request{}
	for _, p := range cfg.Preparations {
		req := checks.CommandRequest(p.CommandConfig)
		for _, slug := range p.Checks {
			out[slug] = append(out[slug], req)
		}
	}
	return out
}

// selection is the default check set for requests that name no checks.
// Runtime checks are left out when no database is configured; naming one
// explicitly still runs it and fails the preparation.
func selection(cfg *projectconfig.ProjectConfig, categories []string, includeExperimental bool) (checker.FilterOptions, error) {
	opts := checker.FilterOptions{
		Slugs:       cfg.Checks.Default,
		SkipRuntime: cfg.Environment.Database == "",
	}

	if len(categories) == 0 {
		categories = cfg.Checks.Categories
	}
	for _, c := range categories {
		cat, err := checker.ParseCategory(c)
		if err != nil {
			return opts, err
		}
		opts.Categories = append(opts.Categories, cat)
	}

	if !includeExperimental && (cfg.Checks.IncludeExperimental == nil || !*cfg.Checks.IncludeExperimental) {
		opts.Stabilities = []checker.Stability{checker.StabilityStable}
	}
	return opts, nil
}

// serveSelection runs every check the environment can run.
func serveSelection(cfg *projectconfig.ProjectConfig) checker.FilterOptions {
	return checker.FilterOptions{SkipRuntime: cfg.Environment.Database == ""}
}

// runnerOptions wires a runner to the workspace.
func (a *app) runnerOptions(w *workspace, sel checker.FilterOptions) []checker.RunnerOption {
	return []checker.RunnerOption{
		checker.WithLocator(w.locator),
		checker.WithEnvironment(w.env),
		checker.WithCatalog(a.catalog(w)...),
		checker.WithChecksOptions(checker.WithFilter(checks.AttachPreparations(configuredPreparations(w.cfg)))),
		checker.WithSelection(sel),
		checker.WithPluginContextOptions(plugin.WithBaseURL(w.cfg.Server.BaseURL + "/wp-content/plugins")),
	}
}
