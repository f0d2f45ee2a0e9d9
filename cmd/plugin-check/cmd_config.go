package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wpcheck/plugin-check/internal/projectconfig"
	"github.com/wpcheck/plugin-check/internal/validation"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the project configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Validate .plugin-check.yaml",
		Long: `Validate .plugin-check.yaml against its schema and value rules.

Without a file, the configuration that would be loaded from --dir is
validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				problems, err := validation.ValidateConfigFile(args[0])
				if err != nil {
					return err
				}
				if len(problems) > 0 {
					return &projectconfig.InvalidError{Path: args[0], Problems: problems}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0]) //nolint:errcheck
				return nil
			}

			cfg, err := projectconfig.Load(a.dir)
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Dir, projectconfig.FileName)
			if _, err := os.Stat(path); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s found, using defaults\n", projectconfig.FileName) //nolint:errcheck
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", path) //nolint:errcheck
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), validation.ConfigSchemaJSON())
			return err
		},
	})

	return cmd
}
