// Package calibration maps raw P and R percentages onto their calibrated
// "key" scores and reports the score range reachable inside a plotted domain.
package calibration

// Curve is a table-driven piecewise-linear calibration.
//
// Below Breaks[0] the curve is 0. Between Breaks[i] and Breaks[i+1] it ramps
// linearly from Anchors[i] to Anchors[i+1], the upper breakpoint belonging to
// the lower segment. Above the last breakpoint it holds Anchors[len-1].
type Curve struct {
	Breaks  []float64
	Anchors []float64
}

// Eval returns the calibrated score for x. x is not range-checked.
func (c Curve) Eval(x float64) float64 {
	n := len(c.Breaks)
	if n == 0 || x < c.Breaks[0] {
		return 0
	}
	for i := 0; i < n-1; i++ {
		lo, hi := c.Breaks[i], c.Breaks[i+1]
		if x <= hi {
			return c.Anchors[i] + (x-lo)/(hi-lo)*(c.Anchors[i+1]-c.Anchors[i])
		}
	}
	return c.Anchors[n-1]
}

// Max is the saturated score above the last breakpoint.
func (c Curve) Max() float64 {
	if len(c.Anchors) == 0 {
		return 0
	}
	return c.Anchors[len(c.Anchors)-1]
}

// Fixed calibration tables.
var (
	pCurve = Curve{
		Breaks:  []float64{14.4, 18, 21.6},
		Anchors: []float64{80, 100, 120},
	}
	rCurve = Curve{
		Breaks:  []float64{6.15, 8.2, 10.3},
		Anchors: []float64{75, 100, 125},
	}
)

// KP is the calibrated score for metric P.
func KP(p float64) float64 { return pCurve.Eval(p) }

// KR is the calibrated score for metric R.
func KR(r float64) float64 { return rCurve.Eval(r) }
