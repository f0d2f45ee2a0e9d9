// Package wizard holds the CLI's interactive prompts.
package wizard

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/wpcheck/plugin-check/internal/plugin"
)

// ErrNoPlugins is returned when there is nothing to pick from.
var ErrNoPlugins = errors.New("no plugins available")

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// optionLabel is how a plugin is shown in the picker.
func optionLabel(p plugin.Info) string {
	name := p.Headers.Name
	if name == "" {
		name = p.Basename
	}
	if p.Headers.Version != "" {
		name += " " + p.Headers.Version
	}
	return fmt.Sprintf("%s (%s)", name, p.Basename)
}

func pluginOptions(plugins []plugin.Info) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(plugins))
	for _, p := range plugins {
		opts = append(opts, huh.NewOption(optionLabel(p), p.Basename))
	}
	return opts
}

// PickPlugin asks which installed plugin to check and returns its basename.
func PickPlugin(in io.Reader, out io.Writer, plugins []plugin.Info) (string, error) {
	if len(plugins) == 0 {
		return "", ErrNoPlugins
	}

	selected := plugins[0].Basename
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Check the plugin").
				Description("Installed plugins").
				Options(pluginOptions(plugins)...).
				Value(&selected),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if !IsTerminal(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("plugin picker failed: %w", err)
	}
	return selected, nil
}
