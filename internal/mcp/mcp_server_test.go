package mcp_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcp_internal "github.com/MikeSquared-Agency/KScore/internal/mcp"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

func newServerTool(t *testing.T, name string) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.Helper()
	s := mcp_internal.NewMCPServer(mcp_internal.Settings{
		Model:    scoring.DefaultModel(),
		Defaults: scoring.DefaultWeights(),
		Bounds:   scoring.Bounds{Min: 0, Max: 1},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)), "test")
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)
	return tool.Handler
}

func call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	handler := newServerTool(t, name)
	res, err := handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as errors")
	return res
}

func decode(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, res.IsError, "unexpected tool error: %v", res.Content)
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].(mcp.TextContent).Text), &out))
	return out
}

func TestScorePointRaw(t *testing.T) {
	out := decode(t, call(t, "score_point", map[string]any{"p": 18.0, "r": 8.2}))

	assert.Equal(t, "raw", out["variant"])
	assert.Equal(t, 100.0, out["k_p"])
	assert.Equal(t, 100.0, out["k_r"])
	assert.Equal(t, 200.0, out["k_sum"])
	assert.Equal(t, 200.0, out["combined"])
	assert.NotContains(t, out, "k_weighted")
}

func TestScorePointWeightsSelectWeighted(t *testing.T) {
	out := decode(t, call(t, "score_point", map[string]any{"p": 18.0, "r": 8.2, "wp": 1.0, "wr": 0.0}))

	assert.Equal(t, "weighted", out["variant"])
	assert.InDelta(t, 1.0, out["k_weighted"], 1e-9)
	weights := out["weights"].(map[string]any)
	assert.Equal(t, 1.0, weights["p"])
	assert.Equal(t, 0.0, weights["r"])
}

func TestScorePointExplicitVariant(t *testing.T) {
	out := decode(t, call(t, "score_point", map[string]any{"p": 18.0, "r": 8.2, "variant": "weighted"}))
	assert.Equal(t, "weighted", out["variant"])
	assert.InDelta(t, 1.0, out["k_weighted"], 1e-9)
}

func TestScorePointValidation(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing p", map[string]any{"r": 8.0}, "invalid p"},
		{"missing r", map[string]any{"p": 18.0}, "invalid r"},
		{"weight out of bounds", map[string]any{"p": 18.0, "r": 8.0, "wp": 3.0}, "invalid weights"},
		{"unknown variant", map[string]any{"p": 18.0, "r": 8.0, "variant": "mixed"}, "unknown variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, "score_point", tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, res.Content[0].(mcp.TextContent).Text, tt.want)
		})
	}
}

func TestCombinedRange(t *testing.T) {
	out := decode(t, call(t, "combined_range", map[string]any{}))

	raw := out["raw_range"].(map[string]any)
	assert.Equal(t, 0.0, raw["min"])
	assert.Equal(t, 245.0, raw["max"])

	weighted := out["weighted_range"].(map[string]any)
	assert.InDelta(t, 1.225, weighted["max"], 1e-9)

	out = decode(t, call(t, "combined_range", map[string]any{"wp": 1.0, "wr": 1.0}))
	weighted = out["weighted_range"].(map[string]any)
	assert.InDelta(t, 2.45, weighted["max"], 1e-9)
}

func TestCalibrate(t *testing.T) {
	out := decode(t, call(t, "calibrate", map[string]any{"metric": "r", "value": 10.3}))
	assert.Equal(t, 125.0, out["score"])
	assert.Equal(t, true, out["in_domain"])

	res := call(t, "calibrate", map[string]any{"metric": "x", "value": 1.0})
	assert.True(t, res.IsError)
}
