package plugin

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrEmptySlug is returned when no plugin was named.
var ErrEmptySlug = errors.New("plugin slug must not be empty")

// NotInstalledError is returned when no installed plugin matches a slug.
type NotInstalledError struct {
	Slug string
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("plugin with slug %s is not installed", e.Slug)
}

// Info describes one installed plugin.
type Info struct {
	Basename string  `json:"basename"`
	Headers  Headers `json:"headers"`
}

// Locator finds plugins under a plugins directory.
type Locator struct {
	PluginsDir string
	// Exclude lists slugs hidden from Available, such as the checker itself.
	Exclude []string
}

// Available lists installed plugins sorted by basename. A plugin is either a
// top-level PHP file or a PHP file directly inside a top-level directory,
// carrying a "Plugin Name" header.
func (l *Locator) Available() ([]Info, error) {
	entries, err := os.ReadDir(l.PluginsDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading plugins directory: %w", err)
	}

	excluded := make(map[string]bool, len(l.Exclude))
	for _, s := range l.Exclude {
		excluded[s] = true
	}

	var plugins []Info
	for _, e := range entries {
		name := e.Name()
		switch {
		case e.IsDir():
			if excluded[name] || strings.HasPrefix(name, ".") {
				continue
			}
			if info, ok := l.findMainFile(name); ok {
				plugins = append(plugins, info)
			}
		case strings.HasSuffix(name, ".php"):
			if excluded[strings.TrimSuffix(name, ".php")] {
				continue
			}
			h, err := ReadHeaders(filepath.Join(l.PluginsDir, name))
			if err == nil && h.Name != "" {
				plugins = append(plugins, Info{Basename: name, Headers: h})
			}
		}
	}

	sort.Slice(plugins, func(i, j int) bool { return plugins[i].Basename < plugins[j].Basename })
	return plugins, nil
}

func (l *Locator) findMainFile(dir string) (Info, bool) {
	matches, err := filepath.Glob(filepath.Join(l.PluginsDir, dir, "*.php"))
	if err != nil {
		return Info{}, false
	}
	sort.Strings(matches)

	// Prefer <dir>/<dir>.php when it carries a header.
	preferred := filepath.Join(l.PluginsDir, dir, dir+".php")
	sort.SliceStable(matches, func(i, j int) bool { return matches[i] == preferred && matches[j] != preferred })

	for _, m := range matches {
		h, err := ReadHeaders(m)
		if err != nil || h.Name == "" {
			continue
		}
		return Info{Basename: dir + "/" + filepath.Base(m), Headers: h}, true
	}
	return Info{}, false
}

// BasenameFromInput resolves user input to an installed plugin's basename.
// Input may be a slug ("hello-dolly") or a basename ("hello-dolly/hello.php").
func (l *Locator) BasenameFromInput(input string) (string, error) {
	input = strings.Trim(strings.TrimSpace(input), "/")
	if input == "" {
		return "", ErrEmptySlug
	}

	if strings.HasSuffix(input, ".php") {
		path := filepath.Join(l.PluginsDir, filepath.FromSlash(input))
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			return filepath.ToSlash(filepath.Clean(input)), nil
		}
	}

	plugins, err := l.Available()
	if err != nil {
		return "", err
	}
	for _, p := range plugins {
		if strings.HasPrefix(p.Basename, input+"/") || p.Basename == input+".php" {
			return p.Basename, nil
		}
	}
	return "", &NotInstalledError{Slug: input}
}

// Context returns the plugin context for an installed plugin basename.
func (l *Locator) Context(basename string, opts ...ContextOption) *Context {
	opts = append([]ContextOption{WithPluginsDir(l.PluginsDir)}, opts...)
	return NewContext(filepath.Join(l.PluginsDir, filepath.FromSlash(basename)), opts...)
}
