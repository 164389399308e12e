// Package mcp exposes KScore scoring as Model Context Protocol tools.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Settings is what the tool handlers need from the service configuration.
type Settings struct {
	Model    scoring.Model
	Defaults scoring.WeightSet
	Bounds   scoring.Bounds
}

// NewMCPServer configures the KScore MCP server without starting it.
func NewMCPServer(settings Settings, logger *slog.Logger, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"KScore Calibration Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{settings: settings, logger: logger}

	s.AddTool(mcp.NewTool("score_point",
		mcp.WithDescription("Calibrate a (P, R) pair and combine the scores. Supplying either weight selects the weighted variant."),
		mcp.WithNumber("p", mcp.Description("Raw P value in percent."), mcp.Required()),
		mcp.WithNumber("r", mcp.Description("Raw R value in percent."), mcp.Required()),
		mcp.WithNumber("wp", mcp.Description("Weight of P (defaults to the configured weight).")),
		mcp.WithNumber("wr", mcp.Description("Weight of R (defaults to the configured weight).")),
		mcp.WithString("variant", mcp.Description("Combination variant."), mcp.Enum("raw", "weighted")),
	), h.handleScorePoint)

	s.AddTool(mcp.NewTool("combined_range",
		mcp.WithDescription("Report the raw K_sum range and the weighted range reachable over the plotted domain."),
		mcp.WithNumber("wp", mcp.Description("Weight of P.")),
		mcp.WithNumber("wr", mcp.Description("Weight of R.")),
	), h.handleCombinedRange)

	s.AddTool(mcp.NewTool("calibrate",
		mcp.WithDescription("Return the calibrated score of a single metric value."),
		mcp.WithString("metric", mcp.Description("Metric name."), mcp.Required(), mcp.Enum("p", "r")),
		mcp.WithNumber("value", mcp.Description("Raw metric value in percent."), mcp.Required()),
	), h.handleCalibrate)

	return s
}

// StartMCPServer serves the tools over stdio until the client disconnects.
func StartMCPServer(_ context.Context, settings Settings, logger *slog.Logger, version string) error {
	s := NewMCPServer(settings, logger, version)
	return server.ServeStdio(s)
}
