package reporting

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

func plural(n int, one, many string) string {
	if n == 1 {
		return printer.Sprintf("%d %s", n, one)
	}
	return printer.Sprintf("%d %s", n, many)
}

// FormatSummary produces a one-paragraph, plain-language account of r.
func FormatSummary(r *Report) string {
	var b strings.Builder

	duration := time.Duration(r.DurationMs) * time.Millisecond
	b.WriteString(printer.Sprintf("Ran %s against %s in %v.\n",
		plural(len(r.Checks), "check", "checks"), r.Plugin, duration.Round(time.Millisecond)))

	switch {
	case r.Errors == 0 && r.Warnings == 0:
		b.WriteString("No issues found.\n")
	default:
		b.WriteString(printer.Sprintf("Found %s and %s in %s.\n",
			plural(r.Errors, "error", "errors"),
			plural(r.Warnings, "warning", "warnings"),
			plural(len(r.Files), "file", "files")))
	}
	return b.String()
}
