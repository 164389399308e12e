package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Fixed keys of the persisted weight pair.
const (
	WeightKeyP = "kscore.weight.p"
	WeightKeyR = "kscore.weight.r"
)

// LoadWeights reads the persisted weight pair. Each weight falls back to its
// default independently when it is missing, unparsable, non-finite, outside
// bounds, or the store fails.
func LoadWeights(ctx context.Context, s Store, defaults scoring.WeightSet, bounds scoring.Bounds, logger *slog.Logger) scoring.WeightSet {
	return scoring.WeightSet{
		P: loadWeight(ctx, s, WeightKeyP, defaults.P, bounds, logger),
		R: loadWeight(ctx, s, WeightKeyR, defaults.R, bounds, logger),
	}
}

func loadWeight(ctx context.Context, s Store, key string, def float64, bounds scoring.Bounds, logger *slog.Logger) float64 {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def
	}
	if err != nil {
		logger.Warn("failed to load weight, using default", "key", key, "error", err)
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || !bounds.Accepts(v) {
		logger.Warn("ignoring stored weight", "key", key, "value", raw)
		return def
	}
	return v
}

// SaveWeights writes both weights in their shortest exact decimal form.
func SaveWeights(ctx context.Context, s Store, w scoring.WeightSet) error {
	if err := s.Set(ctx, WeightKeyP, formatWeight(w.P)); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	if err := s.Set(ctx, WeightKeyR, formatWeight(w.R)); err != nil {
		return fmt.Errorf("save weights: %w", err)
	}
	return nil
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
