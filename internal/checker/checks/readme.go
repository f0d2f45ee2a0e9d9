package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wpcheck/plugin-check/internal/checker"
)

var (
	readmePattern     = regexp.MustCompile(`(?i)^readme\.(txt|md)$`)
	licensePattern    = regexp.MustCompile(`(?i)(License:|License URI:)\s*(.+)`)
	spdxPattern       = regexp.MustCompile(`(?i)^([a-z0-9\-+.]+)(\sor\s([a-z0-9\-+.]+))*$`)
	stableTagPattern  = regexp.MustCompile(`(?i)Stable tag:\s*([a-z0-9.]+)`)
	defaultReadmeText = []string{
		"Here is a short description of the plugin.",
		"Tags: tag1",
		"Donate link: http://example.com/",
	}
)

// NewPluginReadme checks the plugin's readme.txt or readme.md.
func NewPluginReadme() checker.Check {
	c := &fileCheck{meta: checker.Metadata{
		Slug:       "plugin_readme",
		Categories: []checker.Category{checker.CategoryPluginRepo},
		Stability:  checker.StabilityStable,
	}}
	c.checkFiles = checkReadme
	return c
}

func checkReadme(_ context.Context, result *checker.Result, files []string) error {
	p := result.Plugin()
	var readmes []string
	for _, f := range files {
		if readmePattern.MatchString(p.Rel(f)) {
			readmes = append(readmes, f)
		}
	}

	if len(readmes) == 0 {
		result.AddMessage(false, "The plugin readme.txt does not exist.", checker.MessageOptions{
			Code: "no_plugin_readme",
			File: "readme.txt",
		})
		return nil
	}

	read := readReadme
	if file, err := firstDefaultText(readmes, read); err != nil {
		return err
	} else if file != "" {
		result.AddMessage(false, fmt.Sprintf("The %s appears to contain default text.", p.Rel(file)), checker.MessageOptions{
			Code: "default_readme_text",
			File: file,
		})
	}

	file, m, err := firstMatch(readmes, read, licensePattern)
	if err != nil {
		return err
	}
	if file != "" && !spdxPattern.MatchString(strings.TrimSpace(m[2])) {
		result.AddMessage(false, fmt.Sprintf("Your plugin has an invalid license declared. Please update your %s with a valid SPDX license identifier.", p.Rel(file)), checker.MessageOptions{
			Code: "invalid_license",
			File: file,
		})
	}

	file, m, err = firstMatch(readmes, read, stableTagPattern)
	if err != nil || file == "" {
		return err
	}
	stableTag := m[1]
	if stableTag == "trunk" {
		result.AddMessage(false, "It's recommended not to use 'Stable Tag: trunk'.", checker.MessageOptions{
			Code: "trunk_stable_tag",
			File: file,
		})
	}

	headers, err := p.Headers()
	if err != nil {
		return fmt.Errorf("reading plugin headers: %w", err)
	}
	if headers.Version != "" && stableTag != headers.Version {
		result.AddMessage(false, fmt.Sprintf("The Stable Tag in your %s file does not match the version in your main plugin file.", p.Rel(file)), checker.MessageOptions{
			Code: "stable_tag_mismatch",
			File: file,
		})
	}
	return nil
}

func firstDefaultText(files []string, read fileContents) (string, error) {
	for _, pattern := range defaultReadmeText {
		file, err := firstContaining(files, read, pattern)
		if err != nil || file != "" {
			return file, err
		}
	}
	return "", nil
}

func readReadme(path string) (string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return readText(path)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return markdownText(src), nil
}

// markdownText flattens markdown to plain text, one line per block.
func markdownText(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Text:
			b.Write(n.Segment.Value(src))
			if n.SoftLineBreak() || n.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(n.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
