package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MikeSquared-Agency/KScore/internal/render"
)

const (
	fallbackCols = 80
	fallbackRows = 24
	// Rows kept free below the heatmap for the axis line, labels and note.
	termFooterRows = 4
)

func newTermCmd(a *app) *cobra.Command {
	var (
		flags      plotFlags
		cols, rows int
	)
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Draw the heatmap in the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.build(cmd.Context(), cmd, &flags)
			if err != nil {
				return err
			}
			c, r := terminalSize(cols, rows)
			if err := render.WriteTerminal(cmd.OutOrStdout(), p, c, r); err != nil {
				return fmt.Errorf("write terminal heatmap: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&cols, "cols", 0, "heatmap columns (0 fits the terminal)")
	cmd.Flags().IntVar(&rows, "rows", 0, "heatmap rows (0 fits the terminal)")
	return cmd
}

// terminalSize fills unset dimensions from the attached terminal, leaving room
// for the footer lines.
func terminalSize(cols, rows int) (int, int) {
	if cols > 0 && rows > 0 {
		return cols, rows
	}
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		w, h = fallbackCols, fallbackRows
	}
	if cols <= 0 {
		cols = w
	}
	if rows <= 0 {
		rows = max(h-termFooterRows, 2)
	}
	return cols, rows
}
