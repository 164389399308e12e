package render

import (
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
)

// Downscale resamples img to cols×rows pixels.
func Downscale(img image.Image, cols, rows int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, cols, rows))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// WriteTerminal prints p as a grid of coloured cells, cols wide and rows
// tall, followed by the range note. Each cell is one space with the
// background set to the heatmap colour.
func WriteTerminal(w io.Writer, p *Plot, cols, rows int) error {
	if cols < 1 || rows < 1 {
		return fmt.Errorf("terminal size %dx%d too small", cols, rows)
	}
	img := Downscale(Raster(p.Field, p.Colors), cols, rows)

	var b strings.Builder
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			c := img.RGBAAt(x, y)
			hex := fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
			b.WriteString(lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render(" "))
		}
		b.WriteByte('\n')
	}

	axis := lipgloss.NewStyle().Faint(true)
	b.WriteString(axis.Render(fmt.Sprintf("%s %s → %s   %s %s ↑ %s",
		p.XAxis.Title, firstLabel(p.XAxis), lastLabel(p.XAxis),
		p.YAxis.Title, firstLabel(p.YAxis), lastLabel(p.YAxis))))
	b.WriteByte('\n')
	for _, lb := range p.Labels {
		b.WriteString(fmt.Sprintf("  %s at x=%.0f\n", lb.Text, lb.X))
	}
	b.WriteString(p.Note)
	b.WriteByte('\n')

	_, err := io.WriteString(w, b.String())
	return err
}

func firstLabel(a Axis) string {
	if len(a.Ticks) == 0 {
		return ""
	}
	return a.Ticks[0].Label
}

func lastLabel(a Axis) string {
	if len(a.Ticks) == 0 {
		return ""
	}
	return a.Ticks[len(a.Ticks)-1].Label
}
