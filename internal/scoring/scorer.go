package scoring

import (
	"log/slog"
)

// ScoringResult is the complete breakdown for a single (P, R) point.
type ScoringResult struct {
	P        float64        `json:"p"`
	R        float64        `json:"r"`
	KP       float64        `json:"k_p"`
	KR       float64        `json:"k_r"`
	Sum      float64        `json:"k_sum"`
	Weighted *float64       `json:"k_weighted,omitempty"`
	Combined float64        `json:"combined"`
	Variant  Variant        `json:"variant"`
	Factors  []FactorResult `json:"factors"`
}

// Scorer evaluates single points through a Combiner.
type Scorer struct {
	combiner *Combiner
	logger   *slog.Logger
}

// NewScorer creates a Scorer for the given model, variant and weights.
func NewScorer(model Model, variant Variant, weights WeightSet, logger *slog.Logger) *Scorer {
	return &Scorer{
		combiner: NewCombiner(model, variant, weights),
		logger:   logger,
	}
}

// Combiner exposes the underlying combiner for range and remap queries.
func (s *Scorer) Combiner() *Combiner { return s.combiner }

// Score computes the full result for one point. Combined is the raw-scale
// value that the heatmap uses at the same point.
func (s *Scorer) Score(p, r float64) ScoringResult {
	c := s.combiner
	w := c.Weights()
	factors := []FactorResult{
		metricFactor(c.Model().P, p, w.P),
		metricFactor(c.Model().R, r, w.R),
	}

	kp, kr := factors[0].Score, factors[1].Score
	result := ScoringResult{
		P:        p,
		R:        r,
		KP:       kp,
		KR:       kr,
		Sum:      c.Raw(kp, kr),
		Combined: c.Combine(kp, kr),
		Variant:  c.Variant(),
		Factors:  factors,
	}
	if c.Variant() == VariantWeighted {
		weighted := c.Weighted(kp, kr)
		result.Weighted = &weighted
	}

	if !factors[0].InDomain || !factors[1].InDomain {
		s.logger.Debug("scoring point outside plotted domain", "p", p, "r", r)
	}
	return result
}
