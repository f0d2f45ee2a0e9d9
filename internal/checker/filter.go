package checker

import "slices"

// FilterOptions narrows a check list by metadata. Empty fields do not
// filter.
type FilterOptions struct {
	// Slugs, when set, is the default check set.
	Slugs       []string
	Categories  []Category
	Stabilities []Stability
	// SkipRuntime drops checks that need a live runtime, e.g. when the
	// environment has no database.
	SkipRuntime bool
}

// IsZero reports whether o keeps every check.
func (o FilterOptions) IsZero() bool {
	return len(o.Slugs) == 0 && len(o.Categories) == 0 && len(o.Stabilities) == 0 && !o.SkipRuntime
}

// FilterChecks keeps checks named in o.Slugs, tagged with any of
// o.Categories and whose stability is one of o.Stabilities, preserving
// order. Runtime checks are dropped when o.SkipRuntime is set.
func FilterChecks(checks []Check, o FilterOptions) []Check {
	if o.IsZero() {
		return checks
	}
	var out []Check
	for _, c := range checks {
		m := c.Metadata()
		if len(o.Slugs) > 0 && !slices.Contains(o.Slugs, m.Slug) {
			continue
		}
		if len(o.Categories) > 0 && !m.HasCategory(o.Categories...) {
			continue
		}
		if len(o.Stabilities) > 0 && !slices.Contains(o.Stabilities, m.Stability) {
			continue
		}
		if o.SkipRuntime && m.Runtime {
			continue
		}
		out = append(out, c)
	}
	return out
}
