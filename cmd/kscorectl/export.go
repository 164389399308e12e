package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/KScore/internal/export"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		flags  plotFlags
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the sampled field to a Parquet file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.build(cmd.Context(), cmd, &flags)
			if err != nil {
				return err
			}
			if err := export.WriteFile(output, p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d samples to %s\n", p.Field.Width*p.Field.Height, output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "kscore-field.parquet", "output Parquet file")
	return cmd
}
