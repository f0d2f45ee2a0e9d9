package checks

import (
	"slices"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

// withPreparations adds shared preparations to a check's own.
type withPreparations struct {
	checker.Check
	extra []preparation.Request
}

func (c withPreparations) Metadata() checker.Metadata {
	m := c.Check.Metadata()
	m.SharedPreparations = append(slices.Clone(m.SharedPreparations), c.extra...)
	return m
}

// AttachPreparations returns a registry filter that adds extra[slug] to
// the shared preparations of the check with that slug. Checks without an
// entry pass through unchanged.
func AttachPreparations(extra map[string][]preparation.Request) func([]checker.Check) []checker.Check {
	return func(in []checker.Check) []checker.Check {
		if len(extra) == 0 {
			return in
		}
		out := make([]checker.Check, len(in))
		for i, c := range in {
			reqs := extra[c.Metadata().Slug]
			if len(reqs) == 0 {
				out[i] = c
				continue
			}
			out[i] = withPreparations{Check: c, extra: reqs}
		}
		return out
	}
}

// CommandRequest is the preparation request for a configured command.
func CommandRequest(cfg preparation.CommandConfig) preparation.Request {
	args := map[string]any{
		"setup":             cfg.Setup,
		"teardown":          cfg.Teardown,
		"working_directory": cfg.WorkingDirectory,
	}
	if len(cfg.ExitCodes) > 0 {
		args["exit_codes"] = cfg.ExitCodes
	}
	return preparation.Request{Kind: preparation.KindCommand, Args: []any{args}}
}
