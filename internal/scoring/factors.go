package scoring

import "github.com/MikeSquared-Agency/KScore/internal/calibration"

// FactorResult captures one metric's contribution to the combined score.
type FactorResult struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Score    float64 `json:"score"`
	Weight   float64 `json:"weight"`
	Weighted float64 `json:"weighted"`
	InDomain bool    `json:"in_domain"`
}

// metricFactor calibrates v against m. The weighted contribution uses the
// fixed /100 normalization regardless of variant so the two can be compared.
func metricFactor(m calibration.Metric, v, weight float64) FactorResult {
	score := m.Score(v)
	return FactorResult{
		Name:     m.Name,
		Value:    v,
		Score:    score,
		Weight:   weight,
		Weighted: score / weightDivisor * weight,
		InDomain: m.Domain.Contains(v),
	}
}
