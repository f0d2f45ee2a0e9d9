package projectconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Environment
	assertEqual(t, "Environment.Root", ".", cfg.Environment.Root)
	assertEqual(t, "Environment.PluginsDir", "wp-content/plugins", cfg.Environment.PluginsDir)
	assertEqual(t, "Environment.ContentDir", "wp-content", cfg.Environment.ContentDir)
	assertEqual(t, "Environment.Database", "", cfg.Environment.Database)
	assertEqual(t, "Environment.TablePrefix", "wp_", cfg.Environment.TablePrefix)

	// Checks
	assertBoolPtr(t, "Checks.IncludeExperimental", false, cfg.Checks.IncludeExperimental)
	assertEqual(t, "Checks.PHPCS", "phpcs", cfg.Checks.PHPCS)
	assertEqualInt(t, "Checks.AutoloadLimit", 800*1024, int(cfg.Checks.AutoloadLimit))
	assertEqual(t, "Checks.Format", "table", cfg.Checks.Format)
	if cfg.Checks.Default != nil {
		t.Error("Checks.Default should be nil by default")
	}

	// Server
	assertEqualInt(t, "Server.Port", 8080, cfg.Server.Port)
	assertEqual(t, "Server.BaseURL", "http://localhost:8080", cfg.Server.BaseURL)
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
environment:
  root: site
  plugins_dir: plugins
  content_dir: content
  database: site.db
  table_prefix: mysite_
checks:
  default: [plugin_readme, code_obfuscation]
  categories: [plugin_repo]
  include_experimental: true
  phpcs: vendor/bin/phpcs
  autoload_limit: 1024
  format: json
server:
  port: 9000
  base_url: https://example.test
  nonce_secret: s3cret
preparations:
  - checks: [autoloaded_options]
    setup: ./seed.sh
    teardown: ./unseed.sh
    exit_codes: [0, 3]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Environment.Root", "site", cfg.Environment.Root)
	assertEqual(t, "Environment.PluginsDir", "plugins", cfg.Environment.PluginsDir)
	assertEqual(t, "Environment.ContentDir", "content", cfg.Environment.ContentDir)
	assertEqual(t, "Environment.Database", "site.db", cfg.Environment.Database)
	assertEqual(t, "Environment.TablePrefix", "mysite_", cfg.Environment.TablePrefix)
	assertEqual(t, "Checks.Default", "plugin_readme,code_obfuscation", strings.Join(cfg.Checks.Default, ","))
	assertEqual(t, "Checks.Categories", "plugin_repo", strings.Join(cfg.Checks.Categories, ","))
	assertBoolPtr(t, "Checks.IncludeExperimental", true, cfg.Checks.IncludeExperimental)
	assertEqual(t, "Checks.PHPCS", "vendor/bin/phpcs", cfg.Checks.PHPCS)
	assertEqualInt(t, "Checks.AutoloadLimit", 1024, int(cfg.Checks.AutoloadLimit))
	assertEqual(t, "Checks.Format", "json", cfg.Checks.Format)
	assertEqualInt(t, "Server.Port", 9000, cfg.Server.Port)
	assertEqual(t, "Server.BaseURL", "https://example.test", cfg.Server.BaseURL)
	assertEqual(t, "Server.NonceSecret", "s3cret", cfg.Server.NonceSecret)

	if len(cfg.Preparations) != 1 {
		t.Fatalf("Preparations has %d entries, want 1", len(cfg.Preparations))
	}
	prep := cfg.Preparations[0]
	assertEqual(t, "Preparations[0].Setup", "./seed.sh", prep.Setup)
	assertEqual(t, "Preparations[0].Teardown", "./unseed.sh", prep.Teardown)
	assertEqualInt(t, "len(Preparations[0].ExitCodes)", 2, len(prep.ExitCodes))

	resolved, _ := filepath.EvalSymlinks(cfg.Dir)
	want, _ := filepath.EvalSymlinks(dir)
	assertEqual(t, "Dir", want, resolved)
	assertEqual(t, "Path(site)", filepath.Join(cfg.Dir, "site"), cfg.Path("site"))
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
environment:
  database: site.db
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Overridden
	assertEqual(t, "Environment.Database", "site.db", cfg.Environment.Database)

	// Defaults preserved
	assertEqual(t, "Environment.PluginsDir", "wp-content/plugins", cfg.Environment.PluginsDir)
	assertEqual(t, "Checks.Format", "table", cfg.Checks.Format)
	assertBoolPtr(t, "Checks.IncludeExperimental", false, cfg.Checks.IncludeExperimental)
	assertEqualInt(t, "Server.Port", 8080, cfg.Server.Port)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	defaults := New()
	assertEqual(t, "Environment.PluginsDir", defaults.Environment.PluginsDir, cfg.Environment.PluginsDir)
	assertEqual(t, "Checks.PHPCS", defaults.Checks.PHPCS, cfg.Checks.PHPCS)
	assertEqualInt(t, "Server.Port", defaults.Server.Port, cfg.Server.Port)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
checks:
  format: [not valid yaml
    this is broken
`)

	_, err := Load(dir)
	if err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
checks:
  format: xml
  unknown_key: 1
server:
  port: "eighty"
`)

	_, err := Load(dir)
	var invalid *InvalidError
	if !errors.As(err, &invalid) {
		t.Fatalf("Load() error = %v, want *InvalidError", err)
	}
	if len(invalid.Problems) < 3 {
		t.Errorf("got %d problems, want at least 3: %v", len(invalid.Problems), invalid.Problems)
	}
}

func TestLoad_SemanticViolations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
environment:
  table_prefix: "wp-"
`)

	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), "table_prefix") {
		t.Fatalf("Load() error = %v, want table_prefix violation", err)
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, `
checks:
  phpcs: found-it
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Checks.PHPCS", "found-it", cfg.Checks.PHPCS)
	assertEqual(t, "Checks.Format", "table", cfg.Checks.Format)
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
