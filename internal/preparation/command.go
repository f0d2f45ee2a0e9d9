package preparation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/wpcheck/plugin-check/internal/environment"
)

// CommandConfig describes a setup command and the teardown that reverts it.
type CommandConfig struct {
	Setup            string `mapstructure:"setup" yaml:"setup" json:"setup"`
	Teardown         string `mapstructure:"teardown" yaml:"teardown,omitempty" json:"teardown,omitempty"`
	WorkingDirectory string `mapstructure:"working_directory" yaml:"working_directory,omitempty" json:"working_directory,omitempty"`
	ExitCodes        []int  `mapstructure:"exit_codes" yaml:"exit_codes,omitempty" json:"exit_codes,omitempty"`
}

// Command runs user-configured shell commands around a run.
type Command struct {
	cfg    CommandConfig
	logger *slog.Logger
}

var _ Preparation = (*Command)(nil)

// NewCommand validates cfg.
func NewCommand(cfg CommandConfig) (*Command, error) {
	if strings.TrimSpace(cfg.Setup) == "" && strings.TrimSpace(cfg.Teardown) == "" {
		return nil, errors.New("command preparation needs a setup or teardown command")
	}
	return &Command{cfg: cfg, logger: slog.Default()}, nil
}

func newCommandFromArgs(env *environment.Environment, args []any) (Preparation, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected one argument, got %d", len(args))
	}
	var cfg CommandConfig
	if err := mapstructure.Decode(args[0], &cfg); err != nil {
		return nil, fmt.Errorf("decoding command config: %w", err)
	}
	if cfg.WorkingDirectory == "" && env != nil {
		cfg.WorkingDirectory = env.Root
	}
	return NewCommand(cfg)
}

// Prepare runs the setup command. The teardown runs with a background
// context so it still executes after the run's context has expired.
func (c *Command) Prepare(ctx context.Context) (Cleanup, error) {
	if strings.TrimSpace(c.cfg.Setup) != "" {
		if err := c.run(ctx, "setup", c.cfg.Setup); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(c.cfg.Teardown) == "" {
		return NoopCleanup, nil
	}
	return func() error {
		return c.run(context.Background(), "teardown", c.cfg.Teardown)
	}, nil
}

func (c *Command) run(ctx context.Context, phase, command string) error {
	parts := strings.Fields(command)
	//nolint:gosec // commands come from the project config, not request input
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	if c.cfg.WorkingDirectory != "" {
		cmd.Dir = c.cfg.WorkingDirectory
	}

	output, err := cmd.CombinedOutput()
	if len(output) > 0 {
		c.logger.Debug("preparation command output", "phase", phase, "command", parts[0], "output", string(output))
	}

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("command %s: %w", phase, err)
		}
		exitCode = exitErr.ExitCode()
	}
	if !isAcceptableExit(exitCode, c.cfg.ExitCodes) {
		return fmt.Errorf("command %s: exited with code %d", phase, exitCode)
	}
	return nil
}

// isAcceptableExit checks whether exitCode is in the allowed list.
// An empty allowedCodes list defaults to allowing only exit code 0.
func isAcceptableExit(exitCode int, allowedCodes []int) bool {
	if len(allowedCodes) == 0 {
		return exitCode == 0
	}
	for _, code := range allowedCodes {
		if exitCode == code {
			return true
		}
	}
	return false
}
