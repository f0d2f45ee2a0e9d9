package checks

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

func TestAttachPreparations(t *testing.T) {
	seed := CommandRequest(preparation.CommandConfig{Setup: "wp db import seed.sql", Teardown: "wp db reset --yes"})
	filter := AttachPreparations(map[string][]preparation.Request{
		"autoloaded_options": {seed},
	})

	c, err := checker.NewChecks(newPlugin(t, map[string]string{}), Builtin(Config{}), checker.WithFilter(filter))
	require.NoError(t, err)

	autoload, ok := c.Lookup("autoloaded_options")
	require.True(t, ok)
	preps := autoload.Metadata().SharedPreparations
	require.Len(t, preps, 2)
	require.Equal(t, preparation.KindDemoTables, preps[0].Kind)
	require.Equal(t, seed, preps[1])

	readme, ok := c.Lookup("plugin_readme")
	require.True(t, ok)
	require.Empty(t, readme.Metadata().SharedPreparations)

	reqs, err := checker.SharedPreparations(c.All())
	require.NoError(t, err)
	require.Len(t, reqs, 2)
}

func TestAttachPreparationsEmpty(t *testing.T) {
	all := Builtin(Config{})
	require.Equal(t, all, AttachPreparations(nil)(all))
}

func TestCommandRequestBuildsCommand(t *testing.T) {
	req := CommandRequest(preparation.CommandConfig{Setup: "true", ExitCodes: []int{0, 3}})
	p, err := preparation.Default(nil).New(req)
	require.NoError(t, err)
	require.IsType(t, &preparation.Command{}, p)
}
