package checker

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLITransport(t *testing.T) {
	cli := CLITransport{ValueFlags: []string{"format"}}

	tests := []struct {
		name       string
		args       []string
		applicable bool
		plugin     string
		checks     []string
	}{
		{"slug only", []string{"plugin-check", "plugin", "check", "hello"}, true, "hello", nil},
		{"checks flag", []string{"plugin-check", "plugin", "check", "hello", "--checks=a, b,,c"}, true, "hello", []string{"a", "b", "c"}},
		{"separate checks value", []string{"plugin-check", "plugin", "check", "--checks", "a", "hello"}, true, "hello", []string{"a"}},
		{"global flag first", []string{"plugin-check", "--debug", "plugin", "check", "hello"}, true, "hello", nil},
		{"value flag skipped", []string{"plugin-check", "plugin", "check", "--format", "json", "hello"}, true, "hello", nil},
		{"no slug", []string{"plugin-check", "plugin", "check"}, true, "", nil},
		{"other command", []string{"plugin-check", "plugin", "list-checks"}, false, "", nil},
		{"empty", nil, false, "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := ArgsSource(tt.args)
			require.Equal(t, tt.applicable, cli.IsApplicable(src))
			if !tt.applicable {
				return
			}
			require.Equal(t, tt.plugin, cli.PluginParam(src))
			require.Equal(t, tt.checks, cli.CheckSlugsParam(src))
		})
	}
}

func TestAJAXTransport(t *testing.T) {
	var ajax AJAXTransport

	src := FormSource(url.Values{
		"action": {ActionRunChecks},
		"plugin": {" hello "},
		"checks": {"a,b"},
	})
	require.True(t, ajax.IsApplicable(src))
	require.Equal(t, "hello", ajax.PluginParam(src))
	require.Equal(t, []string{"a", "b"}, ajax.CheckSlugsParam(src))
	require.Nil(t, src.RawArgs())

	require.False(t, ajax.IsApplicable(FormSource(url.Values{"action": {"heartbeat"}})))
	require.False(t, ajax.IsApplicable(ArgsSource{"plugin-check", "plugin", "check", "x"}))
}

func TestInitializeRunner(t *testing.T) {
	transports := []Transport{AJAXTransport{}, CLITransport{}}

	r := InitializeRunner(ArgsSource{"plugin-check", "plugin", "check", "hello"}, transports)
	require.NotNil(t, r)
	require.True(t, r.InitializedEarly())
	require.True(t, r.IsApplicable())

	require.Nil(t, InitializeRunner(ArgsSource{"plugin-check", "serve"}, transports))

	src := ArgsSource{"plugin-check", "plugin", "check", "hello"}
	require.Same(t, r, RunnerFor(r, CLITransport{}, src))
	fresh := RunnerFor(r, AJAXTransport{}, FormSource{})
	require.NotSame(t, r, fresh)
	require.False(t, fresh.InitializedEarly())
}
