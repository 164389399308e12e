package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MikeSquared-Agency/KScore/internal/calibration"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

func newTableCmd(a *app) *cobra.Command {
	var (
		step    float64
		noColor bool
	)
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Print the calibration table for both metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if step <= 0 {
				return fmt.Errorf("--step must be positive, got %v", step)
			}
			useColors := !noColor && isTerminal(cmd.OutOrStdout())
			model := scoring.DefaultModel()
			return writeCalibrationTable(cmd.OutOrStdout(), []calibration.Metric{model.P, model.R}, step, useColors)
		},
	}
	cmd.Flags().Float64Var(&step, "step", 1, "spacing between tabulated values")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable coloured scores")
	return cmd
}

// writeCalibrationTable tabulates each metric from its domain minimum in steps,
// with the breakpoints always included.
func writeCalibrationTable(w io.Writer, metrics []calibration.Metric, step float64, useColors bool) error {
	table := tablewriter.NewWriter(w)
	defer func() { _ = table.Close() }()

	table.Header([]string{"Metric", "Value", "Score", "Segment"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	saturated, floor := fmt.Sprint, fmt.Sprint
	if useColors {
		saturated = color.New(color.FgGreen, color.Bold).SprintFunc()
		floor = color.New(color.FgHiBlack).SprintFunc()
	}

	var data [][]string
	for _, m := range metrics {
		for _, v := range tableValues(m, step) {
			score := m.Score(v)
			cell := strconv.FormatFloat(score, 'f', 2, 64)
			segment := "ramp"
			switch {
			case score == 0:
				cell, segment = floor(cell), "below"
			case score == m.Curve.Max():
				cell, segment = saturated(cell), "saturated"
			}
			data = append(data, []string{m.Label, strconv.FormatFloat(v, 'f', -1, 64) + "%", cell, segment})
		}
	}
	if err := table.Bulk(data); err != nil {
		return fmt.Errorf("error adding table rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("error rendering table: %w", err)
	}
	return nil
}

// tableValues returns the stepped domain values merged with the in-domain
// breakpoints, ascending and without duplicates.
func tableValues(m calibration.Metric, step float64) []float64 {
	breaks := m.Breaks()
	var out []float64
	add := func(v float64) {
		if n := len(out); n > 0 && out[n-1] == v {
			return
		}
		out = append(out, v)
	}

	bi := 0
	for i := 0; ; i++ {
		v := m.Domain.Min + float64(i)*step
		if v > m.Domain.Max {
			break
		}
		for bi < len(breaks) && breaks[bi] <= v {
			add(breaks[bi])
			bi++
		}
		add(v)
	}
	for ; bi < len(breaks); bi++ {
		add(breaks[bi])
	}
	if out[len(out)-1] != m.Domain.Max {
		add(m.Domain.Max)
	}
	return out
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
