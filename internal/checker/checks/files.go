package checks

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/wpcheck/plugin-check/internal/checker"
)

// fileCheck runs checkFiles over every file of the plugin.
type fileCheck struct {
	meta       checker.Metadata
	checkFiles func(ctx context.Context, result *checker.Result, files []string) error
}

func (c *fileCheck) Metadata() checker.Metadata { return c.meta }

func (c *fileCheck) Run(ctx context.Context, result *checker.Result) error {
	files, err := result.Plugin().Files()
	if err != nil {
		return err
	}
	return c.checkFiles(ctx, result, files)
}

func filterByExtension(files []string, ext string) []string {
	var out []string
	for _, f := range files {
		if strings.EqualFold(filepath.Ext(f), "."+ext) {
			out = append(out, f)
		}
	}
	return out
}

func filterByRegex(files []string, re *regexp.Regexp) []string {
	var out []string
	for _, f := range files {
		if re.MatchString(f) {
			out = append(out, f)
		}
	}
	return out
}

// fileContents reads a file, with markdown flattened to text.
type fileContents func(path string) (string, error)

func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// firstContaining returns the first file containing needle.
func firstContaining(files []string, read fileContents, needle string) (string, error) {
	for _, f := range files {
		content, err := read(f)
		if err != nil {
			return "", err
		}
		if strings.Contains(content, needle) {
			return f, nil
		}
	}
	return "", nil
}

// firstMatch returns the first file matching re and its submatches.
func firstMatch(files []string, read fileContents, re *regexp.Regexp) (string, []string, error) {
	for _, f := range files {
		content, err := read(f)
		if err != nil {
			return "", nil, err
		}
		if m := re.FindStringSubmatch(content); m != nil {
			return f, m, nil
		}
	}
	return "", nil, nil
}
