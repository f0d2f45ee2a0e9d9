// Package checker runs a selection of checks against one plugin: it
// validates the request, prepares the shared environment, dispatches the
// checks and always reverts what it prepared.
package checker

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wpcheck/plugin-check/internal/preparation"
)

// Category classifies what a check looks at.
type Category string

const (
	CategoryGeneral       Category = "general"
	CategorySecurity      Category = "security"
	CategoryPerformance   Category = "performance"
	CategoryAccessibility Category = "accessibility"
	CategoryPluginRepo    Category = "plugin_repo"
)

// Categories lists every known category in display order.
func Categories() []Category {
	return []Category{
		CategoryGeneral,
		CategoryPluginRepo,
		CategorySecurity,
		CategoryPerformance,
		CategoryAccessibility,
	}
}

// Label is the human-readable name of c.
func (c Category) Label() string {
	switch c {
	case CategoryPluginRepo:
		return "Plugin repo"
	default:
		s := string(c)
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + strings.ReplaceAll(s[1:], "_", " ")
	}
}

// ParseCategory accepts a category slug.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown check category %q", s)
}

// Stability tells callers whether a check's output is settled.
type Stability string

const (
	StabilityStable       Stability = "stable"
	StabilityExperimental Stability = "experimental"
)

// Metadata is everything the runner needs to know about a check without
// running it.
type Metadata struct {
	Slug       string
	Categories []Category
	Stability  Stability

	// Runtime checks need a live execution environment rather than static
	// file inspection.
	Runtime bool

	// SharedPreparations are set up once per run, however many checks ask
	// for the same kind with the same arguments.
	SharedPreparations []preparation.Request
}

// HasCategory reports whether m is tagged with any of cats.
func (m Metadata) HasCategory(cats ...Category) bool {
	for _, want := range cats {
		for _, c := range m.Categories {
			if c == want {
				return true
			}
		}
	}
	return false
}

// Check is one independent analysis rule.
type Check interface {
	Metadata() Metadata
	// Run inspects result.Plugin() and appends messages to result. A returned
	// error is recorded against the check; other checks still run.
	Run(ctx context.Context, result *Result) error
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:[_-][a-z0-9]+)*$`)

func validateMetadata(m Metadata) error {
	if !slugPattern.MatchString(m.Slug) {
		return fmt.Errorf("%w: invalid slug %q", ErrInvalidCheck, m.Slug)
	}
	if len(m.Categories) == 0 {
		return fmt.Errorf("%w: check %s has no category", ErrInvalidCheck, m.Slug)
	}
	switch m.Stability {
	case StabilityStable, StabilityExperimental:
	default:
		return fmt.Errorf("%w: check %s has unknown stability %q", ErrInvalidCheck, m.Slug, m.Stability)
	}
	return nil
}
