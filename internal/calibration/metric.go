package calibration

import "math"

// Domain is a closed interval of raw metric values.
type Domain struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (d Domain) Contains(v float64) bool {
	return v >= d.Min && v <= d.Max
}

// Span is Max - Min.
func (d Domain) Span() float64 { return d.Max - d.Min }

// Range is the calibrated score interval reachable inside a Domain.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Metric bundles everything the pipeline knows about one input metric.
type Metric struct {
	Name   string
	Label  string
	Domain Domain
	Curve  Curve
}

// Score is the calibrated score for a raw value.
func (m Metric) Score(v float64) float64 { return m.Curve.Eval(v) }

// Breaks returns the breakpoints that fall inside the metric's domain.
// These are the values guide lines are drawn at.
func (m Metric) Breaks() []float64 {
	var out []float64
	for _, b := range m.Curve.Breaks {
		if m.Domain.Contains(b) {
			out = append(out, b)
		}
	}
	return out
}

// Extremes returns the calibrated Range for m over its domain.
func (m Metric) Extremes() Range {
	return Extremes(m.Domain, m.Curve.Breaks, m.Curve.Eval)
}

// P is the first metric, plotted along the horizontal axis.
func P() Metric {
	return Metric{Name: "p", Label: "П", Domain: Domain{Min: 13, Max: 23}, Curve: pCurve}
}

// R is the second metric, plotted along the vertical axis.
func R() Metric {
	return Metric{Name: "r", Label: "R", Domain: Domain{Min: 5, Max: 12}, Curve: rCurve}
}

// Extremes evaluates fn at the domain endpoints and at every breakpoint inside
// the domain and returns the smallest and largest result. For a curve that is
// linear between breakpoints no other point can be an extremum.
func Extremes(d Domain, breaks []float64, fn func(float64) float64) Range {
	candidates := append([]float64{d.Min, d.Max}, breaks...)
	r := Range{Min: math.Inf(1), Max: math.Inf(-1)}
	for _, v := range candidates {
		if !d.Contains(v) {
			continue
		}
		s := fn(v)
		if s < r.Min {
			r.Min = s
		}
		if s > r.Max {
			r.Max = s
		}
	}
	return r
}
