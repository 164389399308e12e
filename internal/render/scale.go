package render

import (
	"math"
	"strconv"
)

// LinearScale maps a numeric domain onto a pixel range.
type LinearScale struct {
	D0, D1 float64
	R0, R1 float64
}

// Map converts a domain value to the range. A zero-width domain maps to the
// middle of the range.
func (s LinearScale) Map(v float64) float64 {
	if s.D1 == s.D0 {
		return (s.R0 + s.R1) / 2
	}
	return s.R0 + (v-s.D0)/(s.D1-s.D0)*(s.R1-s.R0)
}

// Invert converts a range value back to the domain.
func (s LinearScale) Invert(v float64) float64 {
	if s.R1 == s.R0 {
		return (s.D0 + s.D1) / 2
	}
	return s.D0 + (v-s.R0)/(s.R1-s.R0)*(s.D1-s.D0)
}

// Ticks returns about count round values inside the domain.
func (s LinearScale) Ticks(count int) []float64 {
	return Ticks(s.D0, s.D1, count)
}

var (
	e10 = math.Sqrt(50)
	e5  = math.Sqrt(10)
	e2  = math.Sqrt(2)
)

// Ticks picks a 1, 2 or 5 × 10^k step giving roughly count values in
// [start, stop] and returns the multiples of that step inside the interval.
func Ticks(start, stop float64, count int) []float64 {
	if start == stop {
		return []float64{start}
	}
	if count <= 0 || math.IsNaN(start) || math.IsNaN(stop) {
		return nil
	}
	reverse := stop < start
	if reverse {
		start, stop = stop, start
	}

	step := tickStep(start, stop, count)
	if step == 0 || math.IsInf(step, 0) {
		return nil
	}

	var out []float64
	if step > 0 {
		lo, hi := math.Ceil(start/step), math.Floor(stop/step)
		for i := lo; i <= hi; i++ {
			out = append(out, i*step)
		}
	} else {
		inc := -step
		lo, hi := math.Ceil(start*inc), math.Floor(stop*inc)
		for i := lo; i <= hi; i++ {
			out = append(out, i/inc)
		}
	}
	if reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

// tickStep returns the step for Ticks. Steps below 1 are returned as the
// negated reciprocal so that tick values are produced by division, which
// keeps values like 0.3 exact.
func tickStep(start, stop float64, count int) float64 {
	step0 := (stop - start) / float64(count)
	power := math.Floor(math.Log10(step0))
	e := step0 / math.Pow(10, power)
	factor := 1.0
	switch {
	case e >= e10:
		factor = 10
	case e >= e5:
		factor = 5
	case e >= e2:
		factor = 2
	}
	if power >= 0 {
		return factor * math.Pow(10, power)
	}
	return -math.Pow(10, -power) / factor
}

// Percent formats a tick value as "<v>%" with the shortest exact decimal.
func Percent(v float64) string {
	if v == 0 {
		v = 0 // normalise -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
