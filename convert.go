package main

import (
	"github.com/spf13/cobra"
)

func newConvertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert IN OUT",
		Short: "Copy a sheet between CSV, XLSX and Redis",
		Long: `Reads IN and writes OUT, each a .csv or .xlsx file or a redis:// URL.
Formulas are written to XLSX as Excel formulas with their computed values.`,
		Example: `  formulagrid convert budget.csv budget.xlsx
  formulagrid convert budget.xlsx redis://localhost:6379/0`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cells, err := opts.load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			s := opts.newSheet()
			s.Load(cells)
			if err := opts.save(cmd.Context(), args[1], s); err != nil {
				return err
			}
			opts.logger.Info("converted", "from", args[0], "to", args[1], "cells", len(cells))
			return nil
		},
	}
}
