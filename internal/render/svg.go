package render

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/MikeSquared-Agency/KScore/internal/contour"
)

const gradientID = "kscore-legend-gradient"

const (
	contourStyle   = "fill:none;stroke:rgba(255,255,255,0.55);stroke-width:0.8"
	guideStyle     = "stroke:rgba(255,255,255,0.85);stroke-width:1;stroke-dasharray:4 4"
	axisStyle      = "stroke:#9aa4b2;stroke-width:1"
	textStyle      = "fill:#d8dee9;font-family:sans-serif;font-size:11px"
	labelStyle     = "fill:#ffffff;font-family:sans-serif;font-size:11px;font-weight:600"
	titleStyle     = "fill:#d8dee9;font-family:sans-serif;font-size:12px;text-anchor:middle"
	crosshairStyle = "stroke:rgba(255,255,255,0.7);stroke-dasharray:2 4"
)

// WriteSVG draws p as a standalone SVG document. Each visible probe is drawn
// as a pinned crosshair.
func WriteSVG(w io.Writer, p *Plot, probes ...Probe) error {
	png, err := EncodePNG(Raster(p.Field, p.Colors))
	if err != nil {
		return err
	}

	l := p.Layout
	canvas := svg.New(w)
	canvas.Start(l.OuterWidth, l.OuterHeight, `style="background:#11151c"`)
	canvas.Desc(p.Note)

	canvas.Def()
	canvas.LinearGradient(gradientID, 0, 0, 100, 0, gradientStops(p.Legend.Stops))
	canvas.DefEnd()

	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", l.Margin.Left, l.Margin.Top))
	canvas.Image(0, 0, l.InnerWidth, l.InnerHeight, DataURI(png), `preserveAspectRatio="none"`)

	canvas.Gstyle(contourStyle)
	for _, c := range p.Contours {
		if d := pathData(c.Rings); d != "" {
			canvas.Path(d, fmt.Sprintf(`data-level="%g"`, c.Value))
		}
	}
	canvas.Gend()

	canvas.Gstyle(labelStyle)
	for _, lb := range p.Labels {
		canvas.Text(round(lb.X)+20, 6, lb.Text)
	}
	canvas.Gend()

	canvas.Gstyle(guideStyle)
	for _, g := range p.Guides {
		pos := round(g.Pos)
		if g.Vertical {
			canvas.Line(pos, 0, pos, l.InnerHeight)
		} else {
			canvas.Line(0, pos, l.InnerWidth, pos)
		}
	}
	canvas.Gend()

	writeAxes(canvas, p)
	writeLegend(canvas, p.Legend)
	for _, pr := range probes {
		crosshair(canvas, pr)
	}

	canvas.Gend()
	canvas.End()
	return nil
}

func writeAxes(canvas *svg.SVG, p *Plot) {
	l := p.Layout
	canvas.Gstyle(textStyle)

	canvas.Line(0, l.InnerHeight, l.InnerWidth, l.InnerHeight, axisStyle)
	for _, t := range p.XAxis.Ticks {
		x := round(t.Pos)
		canvas.Line(x, l.InnerHeight, x, l.InnerHeight+6, axisStyle)
		canvas.Text(x, l.InnerHeight+18, t.Label, `text-anchor="middle"`)
	}

	canvas.Line(0, 0, 0, l.InnerHeight, axisStyle)
	for _, t := range p.YAxis.Ticks {
		y := round(t.Pos)
		canvas.Line(-6, y, 0, y, axisStyle)
		canvas.Text(-9, y+4, t.Label, `text-anchor="end"`)
	}
	canvas.Gend()

	canvas.Text(l.InnerWidth/2, l.InnerHeight+40, p.XAxis.Title, fmt.Sprintf("style=%q", titleStyle))
	canvas.Text(-l.InnerHeight/2, -44, p.YAxis.Title,
		`transform="rotate(-90)"`, fmt.Sprintf("style=%q", titleStyle))
}

func writeLegend(canvas *svg.SVG, lg Legend) {
	canvas.Roundrect(lg.X, lg.Y, lg.Width, lg.Height, 4, 4, fmt.Sprintf(`fill="url(#%s)"`, gradientID))
	canvas.Gtransform(fmt.Sprintf("translate(%d,%d)", lg.X, lg.Y+lg.Height))
	canvas.Gstyle(textStyle)
	for _, t := range lg.Ticks {
		x := round(t.Pos)
		canvas.Line(x, 0, x, 5, axisStyle)
		canvas.Text(x, 16, t.Label, `text-anchor="middle"`)
	}
	canvas.Gend()
	canvas.Gend()
}

func crosshair(canvas *svg.SVG, pr Probe) {
	if !pr.Visible {
		return
	}
	for _, s := range pr.Crosshair {
		canvas.Line(round(s.X1), round(s.Y1), round(s.X2), round(s.Y2), fmt.Sprintf("style=%q", crosshairStyle), `class="crosshair"`)
	}
}

func gradientStops(stops []Stop) []svg.Offcolor {
	out := make([]svg.Offcolor, len(stops))
	for i, s := range stops {
		out[i] = svg.Offcolor{Offset: uint8(math.Round(s.Offset * 100)), Color: s.Color, Opacity: 1}
	}
	return out
}

// pathData converts rings to an SVG path using absolute move/line commands.
func pathData(rings []contour.Ring) string {
	var b strings.Builder
	for _, ring := range rings {
		if len(ring) < 2 {
			continue
		}
		for i, pt := range ring[:len(ring)-1] {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(coord(pt.X))
			b.WriteByte(',')
			b.WriteString(coord(pt.Y))
		}
		b.WriteByte('Z')
	}
	return b.String()
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func round(v float64) int {
	return int(math.Round(v))
}
