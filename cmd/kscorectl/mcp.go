package main

import (
	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/KScore/internal/mcp"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

func newMCPCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the KScore MCP server on stdio",
		Long:  `Launch an MCP server that lets AI agents score points and query ranges via standard tools.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings := mcp.Settings{
				Model:    scoring.DefaultModel(),
				Defaults: a.cfg.Weights.Default,
				Bounds:   a.cfg.Weights.Bounds,
			}
			return mcp.StartMCPServer(cmd.Context(), settings, a.logger, version)
		},
	}
}
