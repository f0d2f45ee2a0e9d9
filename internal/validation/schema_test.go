package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const validConfigYAML = `environment:
  root: /srv/site
  database: site.db
  table_prefix: wp_
checks:
  default: [plugin_readme]
  categories: [plugin_repo, performance]
  include_experimental: false
  format: junit
server:
  port: 8080
preparations:
  - checks: [autoloaded_options]
    setup: ./seed.sh
    exit_codes: [0, 1]
`

const invalidConfigYAML = `checks:
  categories: [speed]
  format: html
server:
  port: 70000
preparations:
  - checks: [autoloaded_options]
    working_directory: /tmp
`

func TestValidateConfigBytes_Valid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(validConfigYAML))
	require.Empty(t, errs, "valid config should have no errors")
}

func TestValidateConfigBytes_Empty(t *testing.T) {
	require.Empty(t, ValidateConfigBytes(nil))
	require.Empty(t, ValidateConfigBytes([]byte("# nothing here\n")))
}

func TestValidateConfigBytes_Invalid(t *testing.T) {
	errs := ValidateConfigBytes([]byte(invalidConfigYAML))
	require.NotEmpty(t, errs, "invalid config should have errors")

	joined := strings.Join(errs, "\n")
	require.Contains(t, joined, "/checks/categories/0")
	require.Contains(t, joined, "/checks/format")
	require.Contains(t, joined, "/server/port")
	require.Contains(t, joined, "/preparations/0")
}

func TestValidateConfigBytes_UnknownKey(t *testing.T) {
	errs := ValidateConfigBytes([]byte("environment:\n  wordpress: true\n"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "wordpress")
}

func TestValidateConfigBytes_BadYAML(t *testing.T) {
	errs := ValidateConfigBytes([]byte("checks: [unterminated"))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0], "YAML parse error")
}

func TestValidateConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".plugin-check.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0o644))

	errs, err := ValidateConfigFile(path)
	require.NoError(t, err)
	require.Empty(t, errs)

	_, err = ValidateConfigFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
