package webapi

import (
	"errors"
	"sort"
	"sync"

	"github.com/wpcheck/plugin-check/internal/reporting"
)

// ErrRunNotFound is returned when a run ID does not match any stored run.
var ErrRunNotFound = errors.New("run not found")

// DefaultStoreCapacity is how many reports a MemoryStore keeps.
const DefaultStoreCapacity = 50

// RunStore keeps the reports of runs started through the admin page.
type RunStore interface {
	// Add records a finished run.
	Add(r *reporting.Report)
	// ListRuns returns all runs, sorted by the given field and order.
	ListRuns(sortField, order string) ([]RunSummary, error)
	// GetRun returns a single run with its full report.
	GetRun(id string) (*reporting.Report, error)
}

// MemoryStore holds the most recent reports, evicting the oldest first.
type MemoryStore struct {
	capacity int

	mu    sync.RWMutex
	order []string
	runs  map[string]*reporting.Report
}

// NewMemoryStore returns a store keeping at most capacity runs.
// A non-positive capacity uses DefaultStoreCapacity.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		runs:     make(map[string]*reporting.Report),
	}
}

func (s *MemoryStore) Add(r *reporting.Report) {
	if r == nil || r.RunID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[r.RunID]; !ok {
		s.order = append(s.order, r.RunID)
	}
	s.runs[r.RunID] = r
	for len(s.order) > s.capacity {
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *MemoryStore) ListRuns(sortField, order string) ([]RunSummary, error) {
	s.mu.RLock()
	runs := make([]RunSummary, 0, len(s.runs))
	for _, id := range s.order {
		runs = append(runs, summarize(s.runs[id]))
	}
	s.mu.RUnlock()

	sortRuns(runs, sortField, order)
	return runs, nil
}

func (s *MemoryStore) GetRun(id string) (*reporting.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r, nil
}

// sortRuns sorts runs in place. Default is newest first.
func sortRuns(runs []RunSummary, field, order string) {
	less := func(i, j int) bool {
		switch field {
		case "errors":
			return runs[i].Errors < runs[j].Errors
		case "warnings":
			return runs[i].Warnings < runs[j].Warnings
		case "duration":
			return runs[i].DurationMs < runs[j].DurationMs
		case "plugin":
			return runs[i].Plugin < runs[j].Plugin
		default: // "timestamp" or empty
			return runs[i].Timestamp.Before(runs[j].Timestamp)
		}
	}

	if order == "asc" {
		sort.SliceStable(runs, less)
	} else {
		sort.SliceStable(runs, func(i, j int) bool { return less(j, i) })
	}
}

// Ensure MemoryStore satisfies RunStore.
var _ RunStore = (*MemoryStore)(nil)
