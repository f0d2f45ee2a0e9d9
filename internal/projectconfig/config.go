// Package projectconfig provides the ProjectConfig struct and loader for
// .plugin-check.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wpcheck/plugin-check/internal/preparation"
	"github.com/wpcheck/plugin-check/internal/validation"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".plugin-check.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultPluginsDir  = "wp-content/plugins"
	DefaultContentDir  = "wp-content"
	DefaultTablePrefix = "wp_"

	DefaultPHPCS         = "phpcs"
	DefaultAutoloadLimit = 800 * 1024
	DefaultFormat        = "table"

	DefaultServerPort    = 8080
	DefaultServerBaseURL = "http://localhost:8080"
)

// EnvironmentConfig locates the install plugins are checked in.
type EnvironmentConfig struct {
	Root        string `yaml:"root,omitempty"`
	PluginsDir  string `yaml:"plugins_dir,omitempty"`
	ContentDir  string `yaml:"content_dir,omitempty"`
	Database    string `yaml:"database,omitempty"`
	TablePrefix string `yaml:"table_prefix,omitempty" validate:"omitempty,table_prefix"`
}

// ChecksConfig holds check selection and tool settings.
type ChecksConfig struct {
	// Default slugs are run when a request names none.
	Default             []string `yaml:"default,omitempty"`
	Categories          []string `yaml:"categories,omitempty" validate:"dive,oneof=general security performance accessibility plugin_repo"`
	IncludeExperimental *bool    `yaml:"include_experimental,omitempty"`
	PHPCS               string   `yaml:"phpcs,omitempty"`
	AutoloadLimit       int64    `yaml:"autoload_limit,omitempty" validate:"gte=0"`
	Format              string   `yaml:"format,omitempty" validate:"omitempty,oneof=table json junit"`
}

// ServerConfig holds admin server settings.
type ServerConfig struct {
	Port        int    `yaml:"port,omitempty" validate:"gte=0,lte=65535"`
	BaseURL     string `yaml:"base_url,omitempty" validate:"omitempty,url"`
	NonceSecret string `yaml:"nonce_secret,omitempty"`

	// AllowedOrigins may call the API cross-origin.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty" validate:"dive,url"`
}

// PreparationConfig attaches a command preparation to checks.
type PreparationConfig struct {
	Checks                    []string `yaml:"checks" validate:"required,min=1"`
	preparation.CommandConfig `yaml:",inline"`
}

// ProjectConfig is the top-level configuration loaded from .plugin-check.yaml.
type ProjectConfig struct {
	Environment  EnvironmentConfig   `yaml:"environment,omitempty"`
	Checks       ChecksConfig        `yaml:"checks,omitempty"`
	Server       ServerConfig        `yaml:"server,omitempty"`
	Preparations []PreparationConfig `yaml:"preparations,omitempty" validate:"dive"`

	// Dir is the directory relative paths resolve against: the one holding
	// the config file, or the start directory when there is none.
	Dir string `yaml:"-"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Environment: EnvironmentConfig{
			Root:        ".",
			PluginsDir:  DefaultPluginsDir,
			ContentDir:  DefaultContentDir,
			TablePrefix: DefaultTablePrefix,
		},
		Checks: ChecksConfig{
			IncludeExperimental: boolPtr(false),
			PHPCS:               DefaultPHPCS,
			AutoloadLimit:       DefaultAutoloadLimit,
			Format:              DefaultFormat,
		},
		Server: ServerConfig{
			Port:    DefaultServerPort,
			BaseURL: DefaultServerBaseURL,
		},
	}
}

// Load finds .plugin-check.yaml by walking up from startDir (max 10
// levels), validates it, unmarshals it, and fills in missing fields with
// defaults. If no config file is found, returns defaults with a nil error.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()
	absStart, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", startDir, err)
	}
	cfg.Dir = absStart

	data, path, err := findConfigFile(absStart)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	if errs := validation.ValidateConfigBytes(data); len(errs) > 0 {
		return nil, &InvalidError{Path: path, Problems: errs}
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	cfg.Dir = filepath.Dir(path)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// InvalidError lists schema violations in a config file.
type InvalidError struct {
	Path     string
	Problems []string
}

func (e *InvalidError) Error() string {
	return fmt.Sprintf("%s is invalid:\n  %s", e.Path, strings.Join(e.Problems, "\n  "))
}

var tablePrefixPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("table_prefix", func(fl validator.FieldLevel) bool {
		return tablePrefixPattern.MatchString(fl.Field().String())
	})
	return v
}()

// Validate checks field values the schema cannot express.
func (c *ProjectConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// Path resolves p against the config directory.
func (c *ProjectConfig) Path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// findConfigFile walks up from dir looking for .plugin-check.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, string, error) {
	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, p, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, "", os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Environment
	if src.Environment.Root != "" {
		dst.Environment.Root = src.Environment.Root
	}
	if src.Environment.PluginsDir != "" {
		dst.Environment.PluginsDir = src.Environment.PluginsDir
	}
	if src.Environment.ContentDir != "" {
		dst.Environment.ContentDir = src.Environment.ContentDir
	}
	if src.Environment.Database != "" {
		dst.Environment.Database = src.Environment.Database
	}
	if src.Environment.TablePrefix != "" {
		dst.Environment.TablePrefix = src.Environment.TablePrefix
	}

	// Checks
	if len(src.Checks.Default) > 0 {
		dst.Checks.Default = src.Checks.Default
	}
	if len(src.Checks.Categories) > 0 {
		dst.Checks.Categories = src.Checks.Categories
	}
	if src.Checks.IncludeExperimental != nil {
		dst.Checks.IncludeExperimental = src.Checks.IncludeExperimental
	}
	if src.Checks.PHPCS != "" {
		dst.Checks.PHPCS = src.Checks.PHPCS
	}
	if src.Checks.AutoloadLimit != 0 {
		dst.Checks.AutoloadLimit = src.Checks.AutoloadLimit
	}
	if src.Checks.Format != "" {
		dst.Checks.Format = src.Checks.Format
	}

	// Server
	if src.Server.Port != 0 {
		dst.Server.Port = src.Server.Port
	}
	if src.Server.BaseURL != "" {
		dst.Server.BaseURL = src.Server.BaseURL
	}
	if src.Server.NonceSecret != "" {
		dst.Server.NonceSecret = src.Server.NonceSecret
	}
	if len(src.Server.AllowedOrigins) > 0 {
		dst.Server.AllowedOrigins = src.Server.AllowedOrigins
	}

	if len(src.Preparations) > 0 {
		dst.Preparations = src.Preparations
	}
}

func boolPtr(b bool) *bool {
	return &b
}
