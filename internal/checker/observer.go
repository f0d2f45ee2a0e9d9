package checker

import (
	"time"

	"github.com/wpcheck/plugin-check/internal/preparation"
)

// Outcome summarizes how one check went.
type Outcome string

const (
	OutcomePassed   Outcome = "passed"
	OutcomeWarnings Outcome = "warnings"
	OutcomeErrors   Outcome = "errors"
	OutcomeFailed   Outcome = "failed"
)

// Observer is notified of run progress, e.g. to record metrics.
type Observer interface {
	RunStarted()
	RunFinished(elapsed time.Duration, err error)
	PreparationFinished(kind preparation.Kind, err error)
	CheckFinished(slug string, outcome Outcome, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) RunStarted() {}
func (noopObserver) RunFinished(time.Duration, error) {}
func (noopObserver) PreparationFinished(preparation.Kind, error) {}
func (noopObserver) CheckFinished(string, Outcome, time.Duration) {}
