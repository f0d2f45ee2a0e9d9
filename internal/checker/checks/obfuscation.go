package checks

import (
	"context"
	"fmt"
	"regexp"

	"github.com/wpcheck/plugin-check/internal/checker"
)

var obfuscators = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"Zend Guard", regexp.MustCompile(`(?m)^<\?php @Zend;`)},
	{"ionCube", regexp.MustCompile(`(?i)ioncube_loader|ionCube Loader`)},
	{"SourceGuardian", regexp.MustCompile(`(?i)\bsg_load\(|SourceGuardian`)},
}

// NewCodeObfuscation flags PHP files produced by code obfuscation tools.
func NewCodeObfuscation() checker.Check {
	c := &fileCheck{meta: checker.Metadata{
		Slug:       "code_obfuscation",
		Categories: []checker.Category{checker.CategoryPluginRepo},
		Stability:  checker.StabilityStable,
	}}
	c.checkFiles = checkObfuscation
	return c
}

func checkObfuscation(ctx context.Context, result *checker.Result, files []string) error {
	for _, f := range filterByExtension(files, "php") {
		if err := ctx.Err(); err != nil {
			return err
		}
		content, err := readText(f)
		if err != nil {
			return err
		}
		for _, o := range obfuscators {
			if o.pattern.MatchString(content) {
				result.AddMessage(true, fmt.Sprintf("Code obfuscation tools are not permitted. Detected %s obfuscated code.", o.name), checker.MessageOptions{
					Code: "obfuscated_code_detected",
					File: f,
				})
				break
			}
		}
	}
	return nil
}
