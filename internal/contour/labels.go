package contour

import (
	"math"
	"sort"
)

// topBand is how close to y=0 a vertex must lie to count as touching the top
// edge.
const topBand = 0.5

// TopIntersections returns every x at which c meets the top edge of a plot
// width pixels wide.
func TopIntersections(c Contour, width float64) []float64 {
	var hits []float64
	for _, ring := range c.Rings {
		for k := 0; k+1 < len(ring); k++ {
			a, b := ring[k], ring[k+1]
			if math.Abs(a.Y) < topBand && math.Abs(b.Y) < topBand {
				hits = append(hits, a.X, b.X)
				continue
			}
			dy := b.Y - a.Y
			if (a.Y <= 0 && b.Y >= 0 || a.Y >= 0 && b.Y <= 0) && math.Abs(dy) > 1e-6 {
				t := -a.Y / dy
				if t >= 0 && t <= 1 {
					hits = append(hits, a.X+t*(b.X-a.X))
				}
			}
		}
	}
	out := hits[:0]
	for _, x := range hits {
		if !math.IsNaN(x) && !math.IsInf(x, 0) && x >= 0 && x <= width {
			out = append(out, x)
		}
	}
	return out
}

// Label marks where a contour leaves the top of the plot.
type Label struct {
	X         float64 `json:"x"`
	Value     float64 `json:"value"`
	Reference bool    `json:"reference,omitempty"`
	Text      string  `json:"text"`
}

// LabelOptions control which contour levels get a top label.
type LabelOptions struct {
	// Threshold is the lowest level labelled.
	Threshold float64
	// Spacing is the minimum horizontal gap between kept labels.
	Spacing float64
	// Reference, when set, is a level that is always labelled if its contour
	// reaches the top edge, regardless of Threshold or Spacing.
	Reference *float64
}

// FilterSpacing walks labels left to right and keeps each one that is at
// least spacing past the last kept label. Labels must be sorted by X.
func FilterSpacing(labels []Label, spacing float64) []Label {
	var out []Label
	for _, l := range labels {
		if len(out) > 0 && l.X-out[len(out)-1].X < spacing {
			continue
		}
		out = append(out, l)
	}
	return out
}

// PlaceLabels picks the top labels for a set of contours. Text is left empty
// for the caller to format.
func PlaceLabels(contours []Contour, width float64, opts LabelOptions) []Label {
	var candidates []Label
	for _, c := range contours {
		ref := opts.Reference != nil && c.Value == *opts.Reference
		if c.Value < opts.Threshold && !ref {
			continue
		}
		hits := TopIntersections(c, width)
		if len(hits) == 0 {
			continue
		}
		x := hits[0]
		for _, h := range hits[1:] {
			x = math.Min(x, h)
		}
		candidates = append(candidates, Label{X: x, Value: c.Value, Reference: ref})
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].X < candidates[j].X })

	var pinned []Label
	for _, l := range candidates {
		if l.Reference {
			pinned = append(pinned, l)
		}
	}
	if len(pinned) == 0 {
		return FilterSpacing(candidates, opts.Spacing)
	}

	var free []Label
	for _, l := range candidates {
		if l.Reference || !nearAny(l, pinned, opts.Spacing) {
			free = append(free, l)
		}
	}

	var out []Label
	for _, l := range free {
		if !l.Reference && len(out) > 0 && l.X-out[len(out)-1].X < opts.Spacing {
			continue
		}
		out = append(out, l)
	}
	return out
}

func nearAny(l Label, pinned []Label, spacing float64) bool {
	for _, p := range pinned {
		if math.Abs(l.X-p.X) < spacing {
			return true
		}
	}
	return false
}
