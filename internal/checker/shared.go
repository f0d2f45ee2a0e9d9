package checker

import (
	"fmt"

	"github.com/wpcheck/plugin-check/internal/preparation"
)

// SharedPreparations returns the distinct preparation requests declared by
// checks, in the order they are first seen. Requests with the same kind and
// equivalent arguments collapse into the first one.
func SharedPreparations(checks []Check) ([]preparation.Request, error) {
	seen := map[string]bool{}
	var out []preparation.Request
	for _, c := range checks {
		m := c.Metadata()
		for _, req := range m.SharedPreparations {
			key, err := req.Key()
			if err != nil {
				return nil, fmt.Errorf("check %s: %w", m.Slug, err)
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, req)
		}
	}
	return out, nil
}

func requiresUniversalPreparation(checks []Check) bool {
	for _, c := range checks {
		if c.Metadata().Runtime {
			return true
		}
	}
	return false
}
