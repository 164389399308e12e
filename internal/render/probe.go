package render

import (
	"fmt"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Probe is the tooltip state for a pointer position over the inner plot.
type Probe struct {
	Visible bool    `json:"visible"`
	MX      float64 `json:"mx"`
	MY      float64 `json:"my"`

	P        float64  `json:"p"`
	R        float64  `json:"r"`
	KP       float64  `json:"k_p"`
	KR       float64  `json:"k_r"`
	Sum      float64  `json:"k_sum"`
	Weighted *float64 `json:"k_weighted,omitempty"`
	Combined float64  `json:"combined"`
	Lines    []string `json:"lines,omitempty"`

	// Crosshair holds the vertical then the horizontal line through the
	// pointer, in inner-plot pixels. Empty when the probe is hidden.
	Crosshair []Segment `json:"crosshair,omitempty"`
}

type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// ProbeAt evaluates the plot at (mx, my), given in inner-plot pixels.
// Positions off the plot yield a hidden probe.
func ProbeAt(scorer *scoring.Scorer, l Layout, xs, ys LinearScale, mx, my float64) Probe {
	pr := Probe{MX: mx, MY: my}
	if !l.Contains(mx, my) {
		return pr
	}
	res := scorer.Score(xs.Invert(mx), ys.Invert(my))
	pr.Visible = true
	pr.Crosshair = []Segment{
		{X1: mx, Y1: 0, X2: mx, Y2: float64(l.InnerHeight)},
		{X1: 0, Y1: my, X2: float64(l.InnerWidth), Y2: my},
	}
	pr.P, pr.R = res.P, res.R
	pr.KP, pr.KR = res.KP, res.KR
	pr.Sum = res.Sum
	pr.Weighted = res.Weighted
	pr.Combined = res.Combined
	pr.Lines = []string{
		fmt.Sprintf("П %.2f%%, R %.2f%%", res.P, res.R),
		fmt.Sprintf("K(П): %.2f%%", res.KP),
		fmt.Sprintf("K(R): %.2f%%", res.KR),
		fmt.Sprintf("K_sum: %.2f%%", res.Sum),
	}
	if res.Weighted != nil {
		pr.Lines = append(pr.Lines, fmt.Sprintf("K_weighted: %.2f (%.2f%% on the K_sum scale)", *res.Weighted, res.Combined))
	}
	return pr
}
