package checks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/wpcheck/plugin-check/internal/checker"
)

// CommandRunner runs name with args in dir and returns its standard output.
// A non-zero exit is reported as an error alongside whatever was written.
type CommandRunner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecCommand runs a local process.
func ExecCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil && stderr.Len() > 0 {
		err = fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return out, err
}

// phpcsCheck runs PHP_CodeSniffer with a fixed set of sniffs and reports
// its findings.
type phpcsCheck struct {
	meta     checker.Metadata
	binary   string
	exec     CommandRunner
	standard string
	sniffs   string
}

func (c *phpcsCheck) Metadata() checker.Metadata { return c.meta }

// NewI18nUsage checks translation function usage.
func NewI18nUsage(cfg Config) checker.Check {
	cfg = cfg.withDefaults()
	return &phpcsCheck{
		meta: checker.Metadata{
			Slug:       "i18n_usage",
			Categories: []checker.Category{checker.CategoryGeneral},
			Stability:  checker.StabilityExperimental,
		},
		binary:   cfg.PHPCS,
		exec:     cfg.Exec,
		standard: "WordPress",
		sniffs:   "WordPress.WP.I18n",
	}
}

// NewEnqueuedScriptsInFooter checks that enqueued scripts load in the
// footer.
func NewEnqueuedScriptsInFooter(cfg Config) checker.Check {
	cfg = cfg.withDefaults()
	return &phpcsCheck{
		meta: checker.Metadata{
			Slug:       "enqueued_scripts_in_footer",
			Categories: []checker.Category{checker.CategoryPerformance},
			Stability:  checker.StabilityStable,
		},
		binary:   cfg.PHPCS,
		exec:     cfg.Exec,
		standard: "WordPress",
		sniffs:   "WordPress.WP.EnqueuedResourceParameters",
	}
}

// NewPerformantWPQueryParams flags slow WP_Query arguments.
func NewPerformantWPQueryParams(cfg Config) checker.Check {
	cfg = cfg.withDefaults()
	return &phpcsCheck{
		meta: checker.Metadata{
			Slug:       "performant_wp_query_params",
			Categories: []checker.Category{checker.CategoryPerformance},
			Stability:  checker.StabilityExperimental,
		},
		binary:   cfg.PHPCS,
		exec:     cfg.Exec,
		standard: "WordPress,WordPressVIPMinimum",
		sniffs:   "WordPress.DB.SlowDBQuery,WordPressVIPMinimum.Performance.WPQueryParams",
	}
}

type phpcsReport struct {
	Files map[string]struct {
		Messages []phpcsMessage `json:"messages"`
	} `json:"files"`
}

type phpcsMessage struct {
	Message string `json:"message"`
	Source  string `json:"source"`
	Type    string `json:"type"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
}

func (c *phpcsCheck) Run(ctx context.Context, result *checker.Result) error {
	p := result.Plugin()
	target := p.Dir()
	if p.SingleFile() {
		target = p.MainFile()
	}

	args := []string{
		"-q",
		"--report=json",
		"--standard=" + c.standard,
		"--sniffs=" + c.sniffs,
		"--extensions=php",
		target,
	}
	out, err := c.exec(ctx, p.Dir(), c.binary, args...)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("phpcs not found: install PHP_CodeSniffer or set checks.phpcs in the config: %w", err)
		}
		// phpcs exits non-zero whenever it reports something.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || len(bytes.TrimSpace(out)) == 0 {
			return fmt.Errorf("running phpcs: %w", err)
		}
	}

	var report phpcsReport
	if err := json.Unmarshal(out, &report); err != nil {
		return fmt.Errorf("parsing phpcs report: %w", err)
	}

	files := make([]string, 0, len(report.Files))
	for f := range report.Files {
		files = append(files, f)
	}
	sort.Strings(files)

	for _, f := range files {
		for _, m := range report.Files[f].Messages {
			result.AddMessage(strings.EqualFold(m.Type, "ERROR"), m.Message, checker.MessageOptions{
				Code:   m.Source,
				File:   f,
				Line:   m.Line,
				Column: m.Column,
			})
		}
	}
	return nil
}
