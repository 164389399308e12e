// Package field samples the combined score over the pixel grid of a plot.
package field

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// ErrGridTooSmall is returned when either grid dimension is below 2 pixels.
var ErrGridTooSmall = errors.New("field: grid must be at least 2x2")

// Field is a dense row-major grid of combined scores. Row 0 is the top of the
// plot (largest R), column 0 its left edge (smallest P).
type Field struct {
	Width  int
	Height int
	Values []float64
	Min    float64
	Max    float64
}

// At returns the sample at column x, row y.
func (f *Field) At(x, y int) float64 {
	return f.Values[y*f.Width+x]
}

// Sample evaluates c at every pixel of a width×height grid. P runs from its
// domain minimum at x=0 to its maximum at x=width-1; R runs from its maximum
// at y=0 down to its minimum at y=height-1.
//
// Rows are filled in bands on separate goroutines; each band writes a
// disjoint slice of Values so the result equals a sequential pass.
func Sample(ctx context.Context, c *scoring.Combiner, width, height int) (*Field, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrGridTooSmall, width, height)
	}

	pd := c.Model().P.Domain
	rd := c.Model().R.Domain
	f := &Field{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}

	bands := runtime.GOMAXPROCS(0)
	if bands > height {
		bands = height
	}
	rowsPerBand := (height + bands - 1) / bands

	g, ctx := errgroup.WithContext(ctx)
	for y0 := 0; y0 < height; y0 += rowsPerBand {
		y1 := min(y0+rowsPerBand, height)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r := rd.Max - float64(y)/float64(height-1)*rd.Span()
				row := f.Values[y*width : (y+1)*width]
				for x := range row {
					p := pd.Min + float64(x)/float64(width-1)*pd.Span()
					row[x] = c.At(p, r)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sample field: %w", err)
	}

	f.Min = floats.Min(f.Values)
	f.Max = floats.Max(f.Values)
	return f, nil
}
