package webapi

import (
	"time"

	"github.com/wpcheck/plugin-check/internal/reporting"
)

// HealthResponse is returned by GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is returned for API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// AJAXResponse is the admin-ajax envelope: success plus a data payload.
type AJAXResponse struct {
	Success bool     `json:"success"`
	Data    AJAXData `json:"data"`
}

// AJAXData carries the run outcome. Errors and warnings are indexed by
// file, line and column.
type AJAXData struct {
	Message  string                                     `json:"message"`
	RunID    string                                     `json:"run_id,omitempty"`
	Errors   map[string]map[int]map[int][]reporting.Row `json:"errors,omitempty"`
	Warnings map[string]map[int]map[int][]reporting.Row `json:"warnings,omitempty"`
}

// RunSummary is one entry of GET /api/runs.
type RunSummary struct {
	ID         string    `json:"id"`
	Plugin     string    `json:"plugin"`
	Checks     []string  `json:"checks"`
	Errors     int       `json:"errors"`
	Warnings   int       `json:"warnings"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

func summarize(r *reporting.Report) RunSummary {
	return RunSummary{
		ID:         r.RunID,
		Plugin:     r.Plugin,
		Checks:     r.Checks,
		Errors:     r.Errors,
		Warnings:   r.Warnings,
		DurationMs: r.DurationMs,
		Timestamp:  r.Timestamp,
	}
}

// runChecksRequest is the form posted by the admin page.
type runChecksRequest struct {
	Action string `mapstructure:"action" validate:"required,eq=plugin_check_run_checks"`
	Nonce  string `mapstructure:"nonce" validate:"required"`
	Plugin string `mapstructure:"plugin" validate:"required"`
	Checks string `mapstructure:"checks"`
}
