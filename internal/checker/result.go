package checker

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/wpcheck/plugin-check/internal/plugin"
)

// Message is one finding.
type Message struct {
	IsError bool   `json:"isError"`
	Text    string `json:"message"`
	Code    string `json:"code"`
	File    string `json:"file"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	// Check is the slug of the check that reported the message.
	Check string `json:"check"`
}

// Type is "ERROR" or "WARNING".
func (m Message) Type() string {
	if m.IsError {
		return "ERROR"
	}
	return "WARNING"
}

// MessageOptions locates a message. Line and Column 0 mean the message
// applies to the whole file.
type MessageOptions struct {
	Code   string
	File   string
	Line   int
	Column int
}

// Result accumulates the messages of one run. Messages are only ever
// appended.
type Result struct {
	plugin *plugin.Context

	mu       sync.Mutex
	files    []string
	byFile   map[string]map[int]map[int][]Message
	errors   int
	warnings int
	current  string
}

// NewResult returns an empty result for p.
func NewResult(p *plugin.Context) *Result {
	return &Result{
		plugin: p,
		byFile: map[string]map[int]map[int][]Message{},
	}
}

// Plugin is the plugin being checked.
func (r *Result) Plugin() *plugin.Context { return r.plugin }

// AddMessage records an error or warning. Absolute file paths inside the
// plugin are stored relative to the plugin directory.
func (r *Result) AddMessage(isError bool, text string, opts MessageOptions) {
	file := opts.File
	if file != "" && filepath.IsAbs(file) && r.plugin != nil {
		file = r.plugin.Rel(file)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	msg := Message{
		IsError: isError,
		Text:    text,
		Code:    opts.Code,
		File:    file,
		Line:    opts.Line,
		Column:  opts.Column,
		Check:   r.current,
	}

	lines, ok := r.byFile[file]
	if !ok {
		lines = map[int]map[int][]Message{}
		r.byFile[file] = lines
		r.files = append(r.files, file)
	}
	cols, ok := lines[msg.Line]
	if !ok {
		cols = map[int][]Message{}
		lines[msg.Line] = cols
	}
	cols[msg.Column] = append(cols[msg.Column], msg)

	if isError {
		r.errors++
	} else {
		r.warnings++
	}
}

// setCurrentCheck attributes subsequent messages to slug.
func (r *Result) setCurrentCheck(slug string) {
	r.mu.Lock()
	r.current = slug
	r.mu.Unlock()
}

// Files lists files with messages in the order they were first reported.
func (r *Result) Files() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.files...)
}

// Messages returns every message: files in first-reported order, then
// ascending line and column, then insertion order.
func (r *Result) Messages() []Message {
	return r.collect(func(Message) bool { return true })
}

// FileMessages returns the messages reported against file.
func (r *Result) FileMessages(file string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return flattenFile(r.byFile[file], func(Message) bool { return true })
}

// Errors returns the error messages in stable order.
func (r *Result) Errors() []Message {
	return r.collect(func(m Message) bool { return m.IsError })
}

// Warnings returns the warning messages in stable order.
func (r *Result) Warnings() []Message {
	return r.collect(func(m Message) bool { return !m.IsError })
}

// ErrorCount is the number of error messages.
func (r *Result) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// WarningCount is the number of warning messages.
func (r *Result) WarningCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.warnings
}

func (r *Result) collect(keep func(Message) bool) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Message
	for _, f := range r.files {
		out = append(out, flattenFile(r.byFile[f], keep)...)
	}
	return out
}

func flattenFile(lines map[int]map[int][]Message, keep func(Message) bool) []Message {
	var out []Message
	for _, line := range sortedKeys(lines) {
		cols := lines[line]
		for _, col := range sortedKeys(cols) {
			for _, m := range cols[col] {
				if keep(m) {
					out = append(out, m)
				}
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
