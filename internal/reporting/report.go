// Package reporting turns check results into the shapes front-ends emit:
// grouped JSON, JUnit XML and a plain-language summary.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wpcheck/plugin-check/internal/checker"
)

// Row is one message in output form.
type Row struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Code    string `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Check   string `json:"check,omitempty"`
}

// NewRow converts a result message.
func NewRow(m checker.Message) Row {
	return Row{
		File:    m.File,
		Line:    m.Line,
		Column:  m.Column,
		Code:    m.Code,
		Type:    m.Type(),
		Message: m.Text,
		Check:   m.Check,
	}
}

// FileReport holds the rows of one file.
type FileReport struct {
	File string `json:"file"`
	Rows []Row  `json:"messages"`
}

// Report is the outcome of one run.
type Report struct {
	Plugin     string       `json:"plugin"`
	RunID      string       `json:"run_id,omitempty"`
	Checks     []string     `json:"checks"`
	Errors     int          `json:"errors"`
	Warnings   int          `json:"warnings"`
	DurationMs int64        `json:"duration_ms"`
	Timestamp  time.Time    `json:"timestamp"`
	Files      []FileReport `json:"files"`
}

// NewReport groups result's messages by file, keeping the result's order.
// checks lists the slugs that ran.
func NewReport(result *checker.Result, checks []string, elapsed time.Duration) *Report {
	r := &Report{
		Checks:     checks,
		Errors:     result.ErrorCount(),
		Warnings:   result.WarningCount(),
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
		Files:      []FileReport{},
	}
	if p := result.Plugin(); p != nil {
		r.Plugin = p.Basename()
	}
	for _, f := range result.Files() {
		fr := FileReport{File: f}
		for _, m := range result.FileMessages(f) {
			fr.Rows = append(fr.Rows, NewRow(m))
		}
		r.Files = append(r.Files, fr)
	}
	return r
}

// Rows returns every row in order.
func (r *Report) Rows() []Row {
	var rows []Row
	for _, f := range r.Files {
		rows = append(rows, f.Rows...)
	}
	return rows
}

// checkRows groups rows by the check that reported them.
func (r *Report) checkRows() map[string][]Row {
	byCheck := map[string][]Row{}
	for _, row := range r.Rows() {
		byCheck[row.Check] = append(byCheck[row.Check], row)
	}
	return byCheck
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return nil
}

// Nested indexes messages by file, line and column, the shape admin-ajax
// responses use.
func Nested(msgs []checker.Message) map[string]map[int]map[int][]Row {
	out := map[string]map[int]map[int][]Row{}
	for _, m := range msgs {
		lines, ok := out[m.File]
		if !ok {
			lines = map[int]map[int][]Row{}
			out[m.File] = lines
		}
		cols, ok := lines[m.Line]
		if !ok {
			cols = map[int][]Row{}
			lines[m.Line] = cols
		}
		cols[m.Column] = append(cols[m.Column], NewRow(m))
	}
	return out
}
