package scoring

import (
	"fmt"

	"github.com/MikeSquared-Agency/KScore/internal/calibration"
)

// Variant selects how the two calibrated scores are combined.
type Variant string

const (
	VariantRaw      Variant = "raw"
	VariantWeighted Variant = "weighted"
)

// ParseVariant accepts "raw" or "weighted"; the empty string means raw.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantRaw:
		return VariantRaw, nil
	case VariantWeighted:
		return VariantWeighted, nil
	default:
		return "", fmt.Errorf("unknown variant %q", s)
	}
}

// weightDivisor normalizes each calibrated score before weighting. It is the
// same for both metrics and does not track their true maxima (120, 125).
const weightDivisor = 100

// Model is the fixed configuration of the two metrics.
type Model struct {
	P calibration.Metric
	R calibration.Metric
}

// DefaultModel returns the P/R model with the standard domains and curves.
func DefaultModel() Model {
	return Model{P: calibration.P(), R: calibration.R()}
}

// Remap converts between the weighted scale and the raw K_sum scale.
type Remap struct {
	RawMin      float64 `json:"raw_min"`
	RawMax      float64 `json:"raw_max"`
	WeightedMin float64 `json:"weighted_min"`
	WeightedMax float64 `json:"weighted_max"`
}

// ScaleToRaw maps [WeightedMin, WeightedMax] linearly onto [RawMin, RawMax].
// A zero-width weighted range maps everything to RawMin.
func (m Remap) ScaleToRaw(v float64) float64 {
	if m.WeightedMax == m.WeightedMin {
		return m.RawMin
	}
	return m.RawMin + (v-m.WeightedMin)/(m.WeightedMax-m.WeightedMin)*(m.RawMax-m.RawMin)
}

// ScaleToWeighted is the inverse of ScaleToRaw. A zero-width raw range maps
// everything to WeightedMin.
func (m Remap) ScaleToWeighted(v float64) float64 {
	if m.RawMax == m.RawMin {
		return m.WeightedMin
	}
	return m.WeightedMin + (v-m.RawMin)/(m.RawMax-m.RawMin)*(m.WeightedMax-m.WeightedMin)
}

// Combiner turns a pair of calibrated scores into the value that is coloured
// and contoured. For both variants that value lives on the raw scale, so one
// contour step applies to either.
type Combiner struct {
	model   Model
	variant Variant
	weights WeightSet

	rangeP calibration.Range
	rangeR calibration.Range
	remap  Remap
}

// NewCombiner precomputes the metric ranges and the raw/weighted remap.
func NewCombiner(model Model, variant Variant, weights WeightSet) *Combiner {
	c := &Combiner{
		model:   model,
		variant: variant,
		weights: weights,
		rangeP:  model.P.Extremes(),
		rangeR:  model.R.Extremes(),
	}
	c.remap = Remap{
		RawMin:      c.rangeP.Min + c.rangeR.Min,
		RawMax:      c.rangeP.Max + c.rangeR.Max,
		WeightedMin: c.Weighted(c.rangeP.Min, c.rangeR.Min),
		WeightedMax: c.Weighted(c.rangeP.Max, c.rangeR.Max),
	}
	return c
}

func (c *Combiner) Model() Model { return c.model }
func (c *Combiner) Variant() Variant { return c.variant }
func (c *Combiner) Weights() WeightSet { return c.weights }
func (c *Combiner) Remap() Remap { return c.remap }
func (c *Combiner) RangeP() calibration.Range { return c.rangeP }
func (c *Combiner) RangeR() calibration.Range { return c.rangeR }

// RawRange is [minP+minR, maxP+maxR].
func (c *Combiner) RawRange() calibration.Range {
	return calibration.Range{Min: c.remap.RawMin, Max: c.remap.RawMax}
}

// WeightedRange is the weighted blend of the metric extremes.
func (c *Combiner) WeightedRange() calibration.Range {
	return calibration.Range{Min: c.remap.WeightedMin, Max: c.remap.WeightedMax}
}

// Raw is the unweighted sum.
func (c *Combiner) Raw(kp, kr float64) float64 {
	return kp + kr
}

// Weighted blends the calibrated scores, each divided by 100.
func (c *Combiner) Weighted(kp, kr float64) float64 {
	return kp/weightDivisor*c.weights.P + kr/weightDivisor*c.weights.R
}

// Combine returns the raw-scale value for a pair of calibrated scores.
func (c *Combiner) Combine(kp, kr float64) float64 {
	if c.variant == VariantWeighted {
		return c.remap.ScaleToRaw(c.Weighted(kp, kr))
	}
	return c.Raw(kp, kr)
}

// At calibrates raw metric values and combines them.
func (c *Combiner) At(p, r float64) float64 {
	return c.Combine(c.model.P.Score(p), c.model.R.Score(r))
}
