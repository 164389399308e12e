// Package render lays out, colours and draws the K_sum heatmap: SVG for the
// web page and CLI, PNG for the raster, and ANSI blocks for terminals.
package render

import "math"

// Margin is the space around the inner plot area, in pixels.
type Margin struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// DefaultMargin leaves room for the legend above and axes below/left.
var DefaultMargin = Margin{Top: 70, Right: 28, Bottom: 52, Left: 60}

// Minimum inner plot size regardless of requested width.
const (
	minInnerWidth  = 320
	minInnerHeight = 240
)

// LayoutOptions bound the outer size of a plot.
type LayoutOptions struct {
	DefaultWidth int
	MaxWidth     int
	Aspect       float64
	Margin       Margin
}

// DefaultLayoutOptions mirrors the plot section of the default config.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{DefaultWidth: 900, MaxWidth: 1000, Aspect: 0.58, Margin: DefaultMargin}
}

// Layout is the resolved geometry of one plot.
type Layout struct {
	OuterWidth  int    `json:"outer_width"`
	OuterHeight int    `json:"outer_height"`
	InnerWidth  int    `json:"inner_width"`
	InnerHeight int    `json:"inner_height"`
	Margin      Margin `json:"margin"`
}

// NewLayout sizes a plot for a container width. A non-positive width selects
// the default; the result never exceeds MaxWidth.
func NewLayout(width int, opts LayoutOptions) Layout {
	if width <= 0 {
		width = opts.DefaultWidth
	}
	outerW := min(opts.MaxWidth, width)
	outerH := int(math.Round(opts.Aspect * float64(outerW)))
	m := opts.Margin
	return Layout{
		OuterWidth:  outerW,
		OuterHeight: outerH,
		InnerWidth:  max(minInnerWidth, outerW-m.Left-m.Right),
		InnerHeight: max(minInnerHeight, outerH-m.Top-m.Bottom),
		Margin:      m,
	}
}

// Contains reports whether (x, y), in inner-plot coordinates, is on the plot.
func (l Layout) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x <= float64(l.InnerWidth) && y <= float64(l.InnerHeight)
}
