package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/KScore/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var (
		flags  plotFlags
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the heatmap as SVG or a JSON summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.build(cmd.Context(), cmd, &flags)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer func() { _ = file.Close() }()
				w = file
			}

			switch format {
			case "svg":
				err = render.WriteSVG(w, p)
			case "json":
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				err = enc.Encode(p)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", format, err)
			}
			a.logger.Debug("plot rendered", "render_id", p.ID, "format", format, "output", output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file (- for stdout)")
	cmd.Flags().StringVar(&format, "format", "svg", "output format: svg or json")
	return cmd
}
