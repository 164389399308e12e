package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Turbo returns the turbo colour for t in [0, 1]; t is clamped.
func Turbo(t float64) colorful.Color {
	t = math.Max(0, math.Min(1, t))
	r := 34.61 + t*(1172.33-t*(10793.56-t*(33300.12-t*(38394.49-t*14825.05))))
	g := 23.31 + t*(557.33+t*(1225.33-t*(3574.96-t*(1073.77+t*707.56))))
	b := 27.2 + t*(3211.1-t*(15327.97-t*(27814-t*(22055.03-t*6438.54))))
	return colorful.Color{R: channel(r), G: channel(g), B: channel(b)}
}

func channel(v float64) float64 {
	return math.Max(0, math.Min(255, math.Round(v))) / 255
}

// ColorScale maps [Min, Max] onto the turbo palette.
type ColorScale struct {
	Min float64
	Max float64
}

// At returns the colour for v. Values outside the scale are clamped; a
// zero-width scale paints everything with the low end.
func (s ColorScale) At(v float64) colorful.Color {
	if s.Max == s.Min {
		return Turbo(0)
	}
	return Turbo((v - s.Min) / (s.Max - s.Min))
}

// RGBA returns the opaque 8-bit colour for v.
func (s ColorScale) RGBA(v float64) color.RGBA {
	r, g, b := s.At(v).RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Stop is one gradient stop of the legend.
type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Stops samples the scale at n evenly spaced offsets.
func (s ColorScale) Stops(n int) []Stop {
	if n < 2 {
		n = 2
	}
	out := make([]Stop, n)
	for i := range out {
		t := float64(i) / float64(n-1)
		out[i] = Stop{Offset: t, Color: Turbo(t).Hex()}
	}
	return out
}
