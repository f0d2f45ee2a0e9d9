package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wpcheck/plugin-check/internal/checker"
)

func newListChecksCommand(a *app) *cobra.Command {
	var (
		format     string
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "list-checks",
		Short: "List the available checks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := a.open()
			if err != nil {
				return err
			}
			defer w.Close() //nolint:errcheck

			var filter checker.FilterOptions
			for _, c := range categories {
				cat, err := checker.ParseCategory(c)
				if err != nil {
					return err
				}
				filter.Categories = append(filter.Categories, cat)
			}
			list := checker.FilterChecks(a.catalog(w), filter)
			return writeCheckList(cmd.OutOrStdout(), list, format)
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")
	cmd.Flags().StringSliceVar(&categories, "categories", nil, "Only list checks in these categories")
	return cmd
}

func newListCategoriesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list-check-categories",
		Short: "List the check categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			type entry struct {
				Slug string `json:"slug"`
				Name string `json:"name"`
			}
			var entries []entry
			for _, c := range checker.Categories() {
				entries = append(entries, entry{Slug: string(c), Name: c.Label()})
			}

			switch format {
			case formatJSON:
				return writeJSON(cmd.OutOrStdout(), entries)
			case formatTable:
				cells := [][]string{{"SLUG", "NAME"}}
				for _, e := range entries {
					cells = append(cells, []string{e.Slug, e.Name})
				}
				writeColumns(cmd.OutOrStdout(), cells)
				return nil
			default:
				return fmt.Errorf("unknown format %q (want table or json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", formatTable, "Output format: table or json")
	return cmd
}
