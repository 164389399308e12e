package scoring

import (
	"fmt"
	"math"
)

// WeightSet holds the user-chosen importance of each calibrated metric in the
// weighted variant. Weights are not normalized and need not sum to 1.
type WeightSet struct {
	P float64 `json:"p" yaml:"p"`
	R float64 `json:"r" yaml:"r"`
}

// DefaultWeight is used for any weight that is missing or unusable.
const DefaultWeight = 0.5

// DefaultWeights returns the weight pair the controls start at.
func DefaultWeights() WeightSet {
	return WeightSet{P: DefaultWeight, R: DefaultWeight}
}

// Sum returns the total of both weights.
func (w WeightSet) Sum() float64 {
	return w.P + w.R
}

// Bounds is the interval the weight controls accept.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Accepts reports whether v is finite and inside the bounds.
func (b Bounds) Accepts(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= b.Min && v <= b.Max
}

// Validate checks that both weights are finite and inside the control bounds.
// The combiner itself accepts any value; this guards what gets persisted.
func (w WeightSet) Validate(b Bounds) error {
	if !b.Accepts(w.P) {
		return fmt.Errorf("weight p %v outside [%v, %v]", w.P, b.Min, b.Max)
	}
	if !b.Accepts(w.R) {
		return fmt.Errorf("weight r %v outside [%v, %v]", w.R, b.Min, b.Max)
	}
	return nil
}
