package reporting

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/wpcheck/plugin-check/internal/checker"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one plugin run.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one check.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
	SystemOut string        `xml:"system-out,omitempty"`
}

// JUnitFailure lists the error messages a check reported.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitError means the check itself failed to run.
type JUnitError struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a Report to JUnit XML, one test case per check.
func ConvertToJUnit(r *Report) *JUnitTestSuites {
	durationSec := float64(r.DurationMs) / 1000.0
	byCheck := r.checkRows()

	suite := JUnitTestSuite{
		Name:      r.Plugin,
		Tests:     len(r.Checks),
		Time:      durationSec,
		Timestamp: r.Timestamp.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "plugin", Value: r.Plugin},
			{Name: "run_id", Value: r.RunID},
			{Name: "errors", Value: fmt.Sprint(r.Errors)},
			{Name: "warnings", Value: fmt.Sprint(r.Warnings)},
		},
	}

	for _, slug := range r.Checks {
		tc := convertCheck(r.Plugin, slug, byCheck[slug])
		switch {
		case tc.Error != nil:
			suite.Errors++
		case tc.Failure != nil:
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func convertCheck(plugin, slug string, rows []Row) JUnitTestCase {
	tc := JUnitTestCase{Name: slug, Classname: plugin}

	var errs, warnings []Row
	for _, row := range rows {
		if row.Type == "ERROR" {
			errs = append(errs, row)
		} else {
			warnings = append(warnings, row)
		}
	}

	for _, row := range errs {
		if row.Code == checker.CodeCheckExecutionFailed {
			tc.Error = &JUnitError{Message: row.Message, Type: "CheckExecutionError"}
			return tc
		}
	}
	if len(errs) > 0 {
		tc.Failure = &JUnitFailure{
			Message: fmt.Sprintf("%d error(s)", len(errs)),
			Type:    "CheckError",
			Body:    formatRows(errs),
		}
	}
	if len(warnings) > 0 {
		tc.SystemOut = formatRows(warnings)
	}
	return tc
}

func formatRows(rows []Row) string {
	var b strings.Builder
	for _, row := range rows {
		fmt.Fprintf(&b, "[%s] %s:%d:%d %s (%s)\n", row.Type, row.File, row.Line, row.Column, row.Message, row.Code)
	}
	return b.String()
}

// WriteJUnit writes r as JUnit XML to w.
func WriteJUnit(w io.Writer, r *Report) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(r), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(r *Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteJUnit(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
