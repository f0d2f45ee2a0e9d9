// Package plugin locates installed plugins and exposes the identity and
// layout of the one being checked.
package plugin

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// skippedDirs are never descended into when listing plugin files.
var skippedDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	"node_modules": true,
}

// Context is the plugin being checked.
type Context struct {
	mainFile   string
	pluginsDir string
	baseURL    string
}

// ContextOption configures NewContext.
type ContextOption func(*Context)

// WithPluginsDir sets the directory basenames are relative to.
func WithPluginsDir(dir string) ContextOption {
	return func(c *Context) { c.pluginsDir = dir }
}

// WithBaseURL sets the URL of the plugins directory.
func WithBaseURL(u string) ContextOption {
	return func(c *Context) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewContext returns the context for the plugin whose main file is mainFile.
func NewContext(mainFile string, opts ...ContextOption) *Context {
	c := &Context{mainFile: filepath.Clean(mainFile)}
	for _, o := range opts {
		o(c)
	}
	if c.pluginsDir == "" {
		dir := filepath.Dir(c.mainFile)
		c.pluginsDir = filepath.Dir(dir)
	}
	return c
}

// MainFile is the absolute path of the main file.
func (c *Context) MainFile() string { return c.mainFile }

// Basename is the main file relative to the plugins directory, using forward
// slashes, e.g. "hello-dolly/hello.php".
func (c *Context) Basename() string {
	rel, err := filepath.Rel(c.pluginsDir, c.mainFile)
	if err != nil || escapes(rel) {
		rel = filepath.Join(filepath.Base(filepath.Dir(c.mainFile)), filepath.Base(c.mainFile))
	}
	return filepath.ToSlash(rel)
}

// Slug is the plugin directory name, or the file name without extension for
// single-file plugins.
func (c *Context) Slug() string {
	base := c.Basename()
	if i := strings.Index(base, "/"); i >= 0 {
		return base[:i]
	}
	return strings.TrimSuffix(base, ".php")
}

// SingleFile reports whether the plugin is a lone file in the plugins
// directory.
func (c *Context) SingleFile() bool {
	return !strings.Contains(c.Basename(), "/")
}

// Dir is the plugin's directory.
func (c *Context) Dir() string {
	return filepath.Dir(c.mainFile)
}

// Path returns rel resolved against the plugin directory. An empty rel or
// "/" yields the directory itself with a trailing separator.
func (c *Context) Path(rel string) string {
	rel = strings.TrimLeft(rel, `/\`)
	if rel == "" {
		return c.Dir() + string(filepath.Separator)
	}
	return filepath.Join(c.Dir(), filepath.FromSlash(rel))
}

// Rel returns path relative to the plugin directory, with forward slashes.
// Paths outside the plugin are returned unchanged.
func (c *Context) Rel(path string) string {
	rel, err := filepath.Rel(c.Dir(), path)
	if err != nil || escapes(rel) {
		return path
	}
	return filepath.ToSlash(rel)
}

// escapes reports whether a relative path leaves its base directory. Names
// that merely start with dots, like "..data.php", stay inside.
func escapes(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".." || strings.HasPrefix(rel, "../")
}

// URL returns the public URL for rel inside the plugin directory.
func (c *Context) URL(rel string) string {
	dir := filepath.ToSlash(filepath.Dir(c.Basename()))
	u := c.baseURL
	if dir != "." {
		u += "/" + dir
	}
	return u + "/" + strings.TrimLeft(rel, "/")
}

// Headers parses the main file's header block.
func (c *Context) Headers() (Headers, error) {
	return ReadHeaders(c.mainFile)
}

// Files lists every regular file of the plugin, sorted.
func (c *Context) Files() ([]string, error) {
	if c.SingleFile() {
		return []string{c.mainFile}, nil
	}

	var files []string
	err := filepath.WalkDir(c.Dir(), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
