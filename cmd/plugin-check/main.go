package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/wpcheck/plugin-check/internal/checker"
)

// Exit codes for different failure modes
const (
	ExitSuccess      = 0 // No check reported an error
	ExitChecksFailed = 1 // At least one error message
	ExitError        = 2 // Validation, preparation or configuration error
)

// ChecksFailedError indicates that the run completed, but at least one
// check reported an error.
type ChecksFailedError struct {
	Errors   int
	Warnings int
}

func (e *ChecksFailedError) Error() string {
	return fmt.Sprintf("checks reported %d error(s) and %d warning(s)", e.Errors, e.Warnings)
}

// valueFlags are the flags whose value is a separate argument, so the
// early runner does not take the value for the plugin slug.
var valueFlags = []string{"format", "categories", "dir"}

func cliTransport() checker.CLITransport {
	return checker.CLITransport{ValueFlags: valueFlags}
}

func main() {
	// Created before cobra parses anything; "plugin check" later confirms
	// the parsed request matches.
	early := checker.InitializeRunner(checker.ArgsSource(os.Args), []checker.Transport{cliTransport()})

	if err := execute(early); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var failed *ChecksFailedError
	if errors.As(err, &failed) {
		return ExitChecksFailed
	}
	// All other errors are validation/preparation/configuration errors
	return ExitError
}
