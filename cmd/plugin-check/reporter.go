package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/reporting"
)

// Output formats accepted by --format.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatJUnit = "junit"
)

var (
	errorLabel   = color.New(color.FgRed, color.Bold).SprintFunc()
	warningLabel = color.New(color.FgYellow).SprintFunc()
	fileLabel    = color.New(color.Bold).SprintFunc()
)

var tableHeader = []string{"LINE", "COLUMN", "TYPE", "CODE", "MESSAGE"}

// writeReport renders r in format.
func writeReport(w io.Writer, r *reporting.Report, format string) error {
	switch format {
	case formatJSON:
		return reporting.WriteJSON(w, r)
	case formatJUnit:
		return reporting.WriteJUnit(w, r)
	case formatTable, "":
		writeTable(w, r)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table, json or junit)", format)
	}
}

// writeTable prints one table per file followed by a summary.
func writeTable(w io.Writer, r *reporting.Report) {
	for _, f := range r.Files {
		fmt.Fprintf(w, "%s %s\n\n", fileLabel("FILE:"), f.File) //nolint:errcheck

		cells := make([][]string, 0, len(f.Rows)+1)
		cells = append(cells, tableHeader)
		for _, row := range f.Rows {
			cells = append(cells, []string{
				strconv.Itoa(row.Line),
				strconv.Itoa(row.Column),
				row.Type,
				row.Code,
				row.Message,
			})
		}
		widths := columnWidths(cells)

		for i, line := range cells {
			var b strings.Builder
			for col, cell := range line {
				if col == len(line)-1 {
					b.WriteString(cell)
					break
				}
				padded := padRight(cell, widths[col]+2)
				if i > 0 && col == 2 {
					padded = typeLabel(cell, padded)
				}
				b.WriteString(padded)
			}
			fmt.Fprintln(w, strings.TrimRight(b.String(), " ")) //nolint:errcheck
		}
		fmt.Fprintln(w) //nolint:errcheck
	}
	fmt.Fprint(w, reporting.FormatSummary(r)) //nolint:errcheck
}

func typeLabel(kind, padded string) string {
	if kind == "ERROR" {
		return errorLabel(padded)
	}
	return warningLabel(padded)
}

func columnWidths(rows [][]string) []int {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}

// writeCheckList prints the catalog as a table or JSON.
func writeCheckList(w io.Writer, list []checker.Check, format string) error {
	type entry struct {
		Slug       string   `json:"slug"`
		Categories []string `json:"categories"`
		Stability  string   `json:"stability"`
		Runtime    bool     `json:"runtime"`
	}
	entries := make([]entry, 0, len(list))
	for _, c := range list {
		m := c.Metadata()
		e := entry{Slug: m.Slug, Stability: string(m.Stability), Runtime: m.Runtime}
		for _, cat := range m.Categories {
			e.Categories = append(e.Categories, string(cat))
		}
		entries = append(entries, e)
	}

	switch format {
	case formatJSON:
		return writeJSON(w, entries)
	case formatTable, "":
		cells := [][]string{{"SLUG", "CATEGORY", "STABILITY", "TYPE"}}
		for _, e := range entries {
			kind := "static"
			if e.Runtime {
				kind = "runtime"
			}
			cells = append(cells, []string{e.Slug, strings.Join(e.Categories, ","), e.Stability, kind})
		}
		writeColumns(w, cells)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}
}

// writeColumns prints cells as aligned, space-separated columns.
func writeColumns(w io.Writer, cells [][]string) {
	widths := columnWidths(cells)
	for _, line := range cells {
		var b strings.Builder
		for col, cell := range line {
			b.WriteString(padRight(cell, widths[col]+2))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " ")) //nolint:errcheck
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
