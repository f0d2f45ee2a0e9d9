package checker

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wpcheck/plugin-check/internal/preparation"
)

var (
	// ErrInvalidCheck is returned when registering a check with bad metadata.
	ErrInvalidCheck = errors.New("invalid check")
	// ErrDuplicateCheck is returned when a slug is registered twice.
	ErrDuplicateCheck = errors.New("duplicate check slug")
	// ErrRunnerFinished is returned by any call on a runner that already
	// completed or failed.
	ErrRunnerFinished = errors.New("runner already finished")
)

// ValidationError means the request was rejected before anything ran.
type ValidationError struct {
	// Field is "plugin" or "checks".
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	switch e.Field {
	case "plugin":
		b.WriteString("invalid plugin")
	case "checks":
		b.WriteString("invalid checks")
	default:
		b.WriteString("invalid request")
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PreparationError means the environment could not be prepared. No check ran.
type PreparationError struct {
	Kind preparation.Kind
	Err  error
}

func (e *PreparationError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("preparation failed: %v", e.Err)
	}
	return fmt.Sprintf("preparation %s failed: %v", e.Kind, e.Err)
}

func (e *PreparationError) Unwrap() error { return e.Err }

// CheckExecutionError is what a failing check is recorded as.
type CheckExecutionError struct {
	Slug string
	Err  error
}

func (e *CheckExecutionError) Error() string {
	return fmt.Sprintf("check %s failed: %v", e.Slug, e.Err)
}

func (e *CheckExecutionError) Unwrap() error { return e.Err }

// CleanupError collects teardown failures. Every cleanup still ran.
type CleanupError struct {
	Errs []error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup failed: %v", errors.Join(e.Errs...))
}

func (e *CleanupError) Unwrap() []error { return e.Errs }
