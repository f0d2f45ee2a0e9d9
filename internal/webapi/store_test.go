package webapi

import (
	"errors"
	"testing"
	"time"

	"github.com/wpcheck/plugin-check/internal/reporting"
)

func sampleReport(id, plugin string, errs, warns int, ts time.Time) *reporting.Report {
	return &reporting.Report{
		Plugin:    plugin,
		RunID:     id,
		Checks:    []string{"plugin_readme"},
		Errors:    errs,
		Warnings:  warns,
		Timestamp: ts,
		Files:     []reporting.FileReport{},
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	s := NewMemoryStore(2)
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.Add(sampleReport("r1", "a/a.php", 0, 0, ts))
	s.Add(sampleReport("r2", "b/b.php", 0, 0, ts.Add(time.Minute)))
	s.Add(sampleReport("r3", "c/c.php", 0, 0, ts.Add(2*time.Minute)))

	if _, err := s.GetRun("r1"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected r1 evicted, got %v", err)
	}
	runs, err := s.ListRuns("", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "r3" || runs[1].ID != "r2" {
		t.Errorf("expected newest first, got %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestMemoryStoreIgnoresUnidentifiedReports(t *testing.T) {
	s := NewMemoryStore(0)
	s.Add(nil)
	s.Add(sampleReport("", "a/a.php", 0, 0, time.Now()))

	runs, _ := s.ListRuns("", "")
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestSortRuns(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewMemoryStore(0)
	s.Add(sampleReport("r1", "b/b.php", 3, 1, ts))
	s.Add(sampleReport("r2", "a/a.php", 1, 5, ts.Add(time.Minute)))

	tests := []struct {
		field, order string
		first        string
	}{
		{"errors", "asc", "r2"},
		{"errors", "desc", "r1"},
		{"warnings", "asc", "r1"},
		{"plugin", "asc", "r2"},
		{"timestamp", "asc", "r1"},
	}
	for _, tt := range tests {
		t.Run(tt.field+"_"+tt.order, func(t *testing.T) {
			runs, err := s.ListRuns(tt.field, tt.order)
			if err != nil {
				t.Fatal(err)
			}
			if runs[0].ID != tt.first {
				t.Errorf("expected %s first, got %s", tt.first, runs[0].ID)
			}
		})
	}
}
