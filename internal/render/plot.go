package render

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/KScore/internal/calibration"
	"github.com/MikeSquared-Agency/KScore/internal/contour"
	"github.com/MikeSquared-Agency/KScore/internal/field"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

const (
	legendWidth   = 220
	legendHeight  = 10
	legendOffset  = -44
	axisTickCount = 6
	legendTicks   = 5
)

// Options tune contour levels, labels and layout.
type Options struct {
	Layout         LayoutOptions
	ContourStep    float64
	LabelThreshold float64
	ReferenceLevel float64
	LabelSpacing   float64
	LegendStops    int
	CacheEntries   int
}

// DefaultOptions mirrors the plot section of the default config.
func DefaultOptions() Options {
	return Options{
		Layout:         DefaultLayoutOptions(),
		ContourStep:    10,
		LabelThreshold: 210,
		ReferenceLevel: 200,
		LabelSpacing:   24,
		LegendStops:    11,
		CacheEntries:   64,
	}
}

// Tick is one labelled axis position.
type Tick struct {
	Value float64 `json:"value"`
	Pos   float64 `json:"pos"`
	Label string  `json:"label"`
}

// Axis is a titled set of ticks.
type Axis struct {
	Title string `json:"title"`
	Ticks []Tick `json:"ticks"`
}

// Guide is a reference line at a calibration breakpoint. Vertical guides mark
// P breakpoints, horizontal ones R breakpoints.
type Guide struct {
	Metric   string  `json:"metric"`
	Value    float64 `json:"value"`
	Pos      float64 `json:"pos"`
	Vertical bool    `json:"vertical"`
}

// Legend is the colour bar above the plot.
type Legend struct {
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Stops  []Stop `json:"stops"`
	Ticks  []Tick `json:"ticks"`
}

// Plot is everything needed to draw one view of the heatmap.
type Plot struct {
	ID            string             `json:"id"`
	Variant       scoring.Variant    `json:"variant"`
	Weights       scoring.WeightSet  `json:"weights"`
	Layout        Layout             `json:"layout"`
	XAxis         Axis               `json:"x_axis"`
	YAxis         Axis               `json:"y_axis"`
	RawRange      calibration.Range  `json:"raw_range"`
	WeightedRange *calibration.Range `json:"weighted_range,omitempty"`
	Levels        []float64          `json:"levels"`
	Labels        []contour.Label    `json:"labels"`
	Guides        []Guide            `json:"guides"`
	Legend        Legend             `json:"legend"`
	Note          string             `json:"note"`

	X        LinearScale       `json:"-"`
	Y        LinearScale       `json:"-"`
	Colors   ColorScale        `json:"-"`
	Field    *field.Field      `json:"-"`
	Contours []contour.Contour `json:"-"`
	Combiner *scoring.Combiner `json:"-"`
}

// Surface is the cached part of a plot: the sampled field and its contours.
type Surface struct {
	Field    *field.Field
	Levels   []float64
	Contours []contour.Contour
}

// Renderer builds plots and memoizes their surfaces.
type Renderer struct {
	model  scoring.Model
	opts   Options
	cache  *field.Cache[*Surface]
	logger *slog.Logger
}

// NewRenderer creates a Renderer for model.
func NewRenderer(model scoring.Model, opts Options, logger *slog.Logger) *Renderer {
	return &Renderer{
		model:  model,
		opts:   opts,
		cache:  field.NewCache[*Surface](opts.CacheEntries),
		logger: logger,
	}
}

// Cache exposes the surface cache for invalidation and metrics.
func (r *Renderer) Cache() *field.Cache[*Surface] { return r.cache }

// Options returns the renderer's options.
func (r *Renderer) Options() Options { return r.opts }

// Model returns the renderer's metric model.
func (r *Renderer) Model() scoring.Model { return r.model }

// Layout resolves the geometry for a container width without rendering.
func (r *Renderer) Layout(width int) Layout {
	return NewLayout(width, r.opts.Layout)
}

// Scales returns the axis scales for a layout.
func (r *Renderer) Scales(l Layout) (x, y LinearScale) {
	pd, rd := r.model.P.Domain, r.model.R.Domain
	x = LinearScale{D0: pd.Min, D1: pd.Max, R0: 0, R1: float64(l.InnerWidth)}
	y = LinearScale{D0: rd.Min, D1: rd.Max, R0: float64(l.InnerHeight), R1: 0}
	return x, y
}

// Build renders the plot model for a container width.
func (r *Renderer) Build(ctx context.Context, width int, variant scoring.Variant, weights scoring.WeightSet) (*Plot, error) {
	l := r.Layout(width)
	comb := scoring.NewCombiner(r.model, variant, weights)

	key := field.Key{Width: l.InnerWidth, Height: l.InnerHeight, Variant: variant}
	if variant == scoring.VariantWeighted {
		key.Weights = weights
	}
	surf, err := r.cache.GetContext(ctx, key, func(ctx context.Context) (*Surface, error) {
		return r.surface(ctx, comb, l)
	})
	if err != nil {
		return nil, fmt.Errorf("build plot: %w", err)
	}

	raw := comb.RawRange()
	xs, ys := r.Scales(l)
	p := &Plot{
		ID:       uuid.NewString(),
		Variant:  variant,
		Weights:  weights,
		Layout:   l,
		RawRange: raw,
		Levels:   surf.Levels,
		X:        xs,
		Y:        ys,
		Colors:   ColorScale{Min: raw.Min, Max: raw.Max},
		Field:    surf.Field,
		Contours: surf.Contours,
		Combiner: comb,
	}
	p.XAxis = Axis{Title: r.model.P.Label + " (%)", Ticks: axisTicks(xs)}
	p.YAxis = Axis{Title: r.model.R.Label + " (%)", Ticks: axisTicks(ys)}
	p.Guides = r.guides(xs, ys)
	p.Labels = r.labels(surf, comb, l)
	p.Legend = r.legend(comb, l)
	p.Note = fmt.Sprintf("Raw K_sum range in this view: %.1f%% to %.1f%%.", raw.Min, raw.Max)
	if variant == scoring.VariantWeighted {
		wr := comb.WeightedRange()
		p.WeightedRange = &wr
		p.Note += fmt.Sprintf(" Weighted range: %.2f to %.2f.", wr.Min, wr.Max)
	}

	r.logger.Debug("plot built",
		"render_id", p.ID,
		"variant", variant,
		"inner_width", l.InnerWidth,
		"inner_height", l.InnerHeight,
		"labels", len(p.Labels),
	)
	return p, nil
}

func (r *Renderer) surface(ctx context.Context, comb *scoring.Combiner, l Layout) (*Surface, error) {
	f, err := field.Sample(ctx, comb, l.InnerWidth, l.InnerHeight)
	if err != nil {
		return nil, err
	}
	levels := contour.Levels(f.Min, f.Max, r.opts.ContourStep)
	return &Surface{Field: f, Levels: levels, Contours: contour.Generate(f, levels)}, nil
}

func axisTicks(s LinearScale) []Tick {
	vals := s.Ticks(axisTickCount)
	out := make([]Tick, len(vals))
	for i, v := range vals {
		out[i] = Tick{Value: v, Pos: s.Map(v), Label: Percent(v)}
	}
	return out
}

func (r *Renderer) guides(xs, ys LinearScale) []Guide {
	var out []Guide
	for _, b := range r.model.P.Breaks() {
		out = append(out, Guide{Metric: r.model.P.Name, Value: b, Pos: xs.Map(b), Vertical: true})
	}
	for _, b := range r.model.R.Breaks() {
		out = append(out, Guide{Metric: r.model.R.Name, Value: b, Pos: ys.Map(b)})
	}
	return out
}

func (r *Renderer) labels(surf *Surface, comb *scoring.Combiner, l Layout) []contour.Label {
	opts := contour.LabelOptions{Threshold: r.opts.LabelThreshold, Spacing: r.opts.LabelSpacing}
	weighted := comb.Variant() == scoring.VariantWeighted
	if weighted {
		ref := r.opts.ReferenceLevel
		opts.Reference = &ref
	}
	labels := contour.PlaceLabels(surf.Contours, float64(l.InnerWidth), opts)
	for i := range labels {
		if weighted {
			labels[i].Text = strconv.FormatFloat(comb.Remap().ScaleToWeighted(labels[i].Value), 'f', 2, 64)
		} else {
			labels[i].Text = Percent(labels[i].Value)
		}
	}
	return labels
}

func (r *Renderer) legend(comb *scoring.Combiner, l Layout) Legend {
	raw := comb.RawRange()
	lg := Legend{
		X:      l.InnerWidth - legendWidth,
		Y:      legendOffset,
		Width:  legendWidth,
		Height: legendHeight,
		Stops:  ColorScale{Min: raw.Min, Max: raw.Max}.Stops(r.opts.LegendStops),
	}

	lo, hi := raw.Min, raw.Max
	format := Percent
	if comb.Variant() == scoring.VariantWeighted {
		wr := comb.WeightedRange()
		lo, hi = wr.Min, wr.Max
		format = func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	}
	s := LinearScale{D0: lo, D1: hi, R0: 0, R1: legendWidth}
	for _, v := range s.Ticks(legendTicks) {
		lg.Ticks = append(lg.Ticks, Tick{Value: v, Pos: s.Map(v), Label: format(v)})
	}
	return lg
}
