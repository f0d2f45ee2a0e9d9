package checker

import (
	"net/url"
	"strings"
)

// RequestSource is the raw request a runner was created for: command-line
// arguments, form fields, or both.
type RequestSource interface {
	RawArgs() []string
	Field(name string) (string, bool)
}

// ArgsSource is a command line, program name first. Field reads
// "--name=value" and "--name value" flags.
type ArgsSource []string

func (a ArgsSource) RawArgs() []string { return a }

func (a ArgsSource) Field(name string) (string, bool) {
	flag := "--" + name
	for i := 1; i < len(a); i++ {
		arg := a[i]
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, flag+"="); ok {
			return v, true
		}
		if arg == flag && i+1 < len(a) && !strings.HasPrefix(a[i+1], "-") {
			return a[i+1], true
		}
	}
	return "", false
}

// FormSource is a decoded form body or query string.
type FormSource url.Values

func (f FormSource) RawArgs() []string { return nil }

func (f FormSource) Field(name string) (string, bool) {
	vs, ok := f[name]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Transport knows how one front-end names the plugin and checks in its
// requests.
type Transport interface {
	Name() string
	IsApplicable(src RequestSource) bool
	PluginParam(src RequestSource) string
	CheckSlugsParam(src RequestSource) []string
}

// CLITransport matches "<program> plugin check <plugin> [--checks=a,b]".
type CLITransport struct {
	// ValueFlags are flags that take a separate value argument, so that the
	// value is not mistaken for the plugin.
	ValueFlags []string
}

func (CLITransport) Name() string { return "cli" }

func (t CLITransport) IsApplicable(src RequestSource) bool {
	pos := t.positional(src.RawArgs())
	return len(pos) >= 2 && pos[0] == "plugin" && pos[1] == "check"
}

func (t CLITransport) PluginParam(src RequestSource) string {
	pos := t.positional(src.RawArgs())
	if len(pos) < 3 {
		return ""
	}
	return pos[2]
}

func (CLITransport) CheckSlugsParam(src RequestSource) []string {
	v, _ := src.Field("checks")
	return SplitSlugs(v)
}

func (t CLITransport) positional(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	takesValue := map[string]bool{"--checks": true}
	for _, f := range t.ValueFlags {
		takesValue["--"+f] = true
	}

	var pos []string
	for i := 1; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			return append(pos, args[i+1:]...)
		case strings.HasPrefix(arg, "-"):
			if takesValue[arg] {
				i++
			}
		default:
			pos = append(pos, arg)
		}
	}
	return pos
}

// ActionRunChecks is the admin-ajax action that runs checks.
const ActionRunChecks = "plugin_check_run_checks"

// AJAXTransport matches admin-ajax requests for ActionRunChecks.
type AJAXTransport struct{}

func (AJAXTransport) Name() string { return "ajax" }

func (AJAXTransport) IsApplicable(src RequestSource) bool {
	action, _ := src.Field("action")
	return action == ActionRunChecks
}

func (AJAXTransport) PluginParam(src RequestSource) string {
	v, _ := src.Field("plugin")
	return strings.TrimSpace(v)
}

func (AJAXTransport) CheckSlugsParam(src RequestSource) []string {
	v, _ := src.Field("checks")
	return SplitSlugs(v)
}

// SplitSlugs splits a comma-separated list, dropping blanks.
func SplitSlugs(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
