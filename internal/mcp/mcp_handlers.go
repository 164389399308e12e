package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/MikeSquared-Agency/KScore/internal/calibration"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

type toolHandler struct {
	settings Settings
	logger   *slog.Logger
}

// weights reads optional wp/wr arguments over the configured defaults and
// reports whether either was given.
func (h *toolHandler) weights(request mcp.CallToolRequest) (scoring.WeightSet, bool, error) {
	w := h.settings.Defaults
	args := request.GetArguments()
	_, hasP := args["wp"]
	_, hasR := args["wr"]
	if hasP {
		w.P = request.GetFloat("wp", w.P)
	}
	if hasR {
		w.R = request.GetFloat("wr", w.R)
	}
	if err := w.Validate(h.settings.Bounds); err != nil {
		return w, false, err
	}
	return w, hasP || hasR, nil
}

type scorePointResult struct {
	scoring.ScoringResult
	Weights scoring.WeightSet `json:"weights"`
}

func (h *toolHandler) handleScorePoint(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := request.RequireFloat("p")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid p: %v", err)), nil
	}
	r, err := request.RequireFloat("r")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid r: %v", err)), nil
	}
	w, given, err := h.weights(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid weights: %v", err)), nil
	}

	variant := scoring.VariantRaw
	if given {
		variant = scoring.VariantWeighted
	}
	if v := request.GetString("variant", ""); v != "" {
		if variant, err = scoring.ParseVariant(v); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	scorer := scoring.NewScorer(h.settings.Model, variant, w, h.logger)
	out := scorePointResult{ScoringResult: scorer.Score(p, r), Weights: w}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

type rangeResult struct {
	Weights       scoring.WeightSet `json:"weights"`
	RangeP        calibration.Range `json:"range_p"`
	RangeR        calibration.Range `json:"range_r"`
	RawRange      calibration.Range `json:"raw_range"`
	WeightedRange calibration.Range `json:"weighted_range"`
}

func (h *toolHandler) handleCombinedRange(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, _, err := h.weights(request)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid weights: %v", err)), nil
	}

	c := scoring.NewCombiner(h.settings.Model, scoring.VariantWeighted, w)
	out := rangeResult{
		Weights:       w,
		RangeP:        c.RangeP(),
		RangeR:        c.RangeR(),
		RawRange:      c.RawRange(),
		WeightedRange: c.WeightedRange(),
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

type calibrateResult struct {
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Score    float64 `json:"score"`
	InDomain bool    `json:"in_domain"`
}

func (h *toolHandler) handleCalibrate(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	value, err := request.RequireFloat("value")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid value: %v", err)), nil
	}

	var m calibration.Metric
	switch name := request.GetString("metric", ""); name {
	case h.settings.Model.P.Name:
		m = h.settings.Model.P
	case h.settings.Model.R.Name:
		m = h.settings.Model.R
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown metric %q", name)), nil
	}

	out := calibrateResult{Metric: m.Name, Value: value, Score: m.Score(value), InDomain: m.Domain.Contains(value)}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
