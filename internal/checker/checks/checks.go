// Package checks holds the built-in checks.
package checks

import (
	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/environment"
)

// DefaultAutoloadLimit is the autoloaded options size above which
// autoloaded_options warns.
const DefaultAutoloadLimit = 800 * 1024

// Config carries what the built-in checks need from the host.
type Config struct {
	// PHPCS is the phpcs binary. Defaults to "phpcs" on PATH.
	PHPCS string
	// Exec runs external tools. Defaults to ExecCommand.
	Exec CommandRunner
	// Env is used by runtime checks.
	Env *environment.Environment
	// AutoloadLimit is in bytes. Defaults to DefaultAutoloadLimit.
	AutoloadLimit int64
}

func (c Config) withDefaults() Config {
	if c.PHPCS == "" {
		c.PHPCS = "phpcs"
	}
	if c.Exec == nil {
		c.Exec = ExecCommand
	}
	if c.AutoloadLimit <= 0 {
		c.AutoloadLimit = DefaultAutoloadLimit
	}
	return c
}

// Builtin returns every built-in check in registration order.
func Builtin(cfg Config) []checker.Check {
	cfg = cfg.withDefaults()
	return []checker.Check{
		NewPluginReadme(),
		NewCodeObfuscation(),
		NewI18nUsage(cfg),
		NewEnqueuedScriptsInFooter(cfg),
		NewPerformantWPQueryParams(cfg),
		NewAutoloadedOptions(cfg),
	}
}
