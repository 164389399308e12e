// Package export writes sampled plot surfaces to Parquet using
// github.com/parquet-go/parquet-go.
package export

import (
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

// Sample is one pixel of a rendered field.
type Sample struct {
	RenderID string `parquet:"render_id,snappy,dict"`
	Variant  string `parquet:"variant,snappy,dict"`

	// X and Y are inner-plot pixel indices; Y=0 is the top row.
	X int32 `parquet:"x,snappy"`
	Y int32 `parquet:"y,snappy"`

	P float64 `parquet:"p,snappy"`
	R float64 `parquet:"r,snappy"`

	// Value is the combined score on the raw K_sum scale.
	Value float64 `parquet:"value,snappy"`

	// Weighted is the value on the weighted scale; null for the raw variant.
	Weighted *float64 `parquet:"weighted,optional,snappy"`

	WeightP float64 `parquet:"weight_p,snappy"`
	WeightR float64 `parquet:"weight_r,snappy"`
}

// Samples flattens the plot's field into rows, row-major from the top left.
func Samples(p *render.Plot) []Sample {
	f := p.Field
	model := p.Combiner.Model()
	pd, rd := model.P.Domain, model.R.Domain
	weighted := p.Variant == scoring.VariantWeighted
	remap := p.Combiner.Remap()

	out := make([]Sample, 0, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		r := rd.Max - float64(y)/float64(f.Height-1)*rd.Span()
		for x := 0; x < f.Width; x++ {
			v := f.At(x, y)
			s := Sample{
				RenderID: p.ID,
				Variant:  string(p.Variant),
				X:        int32(x),
				Y:        int32(y),
				P:        pd.Min + float64(x)/float64(f.Width-1)*pd.Span(),
				R:        r,
				Value:    v,
				WeightP:  p.Weights.P,
				WeightR:  p.Weights.R,
			}
			if weighted {
				w := remap.ScaleToWeighted(v)
				s.Weighted = &w
			}
			out = append(out, s)
		}
	}
	return out
}

// Write encodes samples as a single Parquet file on w.
func Write(w io.Writer, samples []Sample) error {
	writer := parquet.NewGenericWriter[Sample](w)
	if _, err := writer.Write(samples); err != nil {
		_ = writer.Close()
		return fmt.Errorf("write samples: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes the plot's samples to path.
func WriteFile(path string, p *render.Plot) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := Write(file, Samples(p)); err != nil {
		return err
	}
	return file.Close()
}
