package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MikeSquared-Agency/KScore/internal/export"
	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/metrics"
	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

type PlotHandler struct {
	renderer *render.Renderer
	weights  *WeightsHandler
	hermes   hermes.Client
	metrics  *metrics.Metrics
	timeout  time.Duration
	logger   *slog.Logger
}

func NewPlotHandler(rd *render.Renderer, wh *WeightsHandler, h hermes.Client, m *metrics.Metrics, timeout time.Duration, logger *slog.Logger) *PlotHandler {
	return &PlotHandler{renderer: rd, weights: wh, hermes: h, metrics: m, timeout: timeout, logger: logger}
}

// SVG renders the plot document. Optional px/py pin a crosshair at that
// inner-plot pixel.
func (h *PlotHandler) SVG(w http.ResponseWriter, r *http.Request) {
	pin, err := parsePin(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, ok := h.build(w, r, "svg")
	if !ok {
		return
	}
	var probes []render.Probe
	if pin != nil {
		scorer := scoring.NewScorer(h.renderer.Model(), p.Variant, p.Weights, h.logger)
		probes = append(probes, render.ProbeAt(scorer, p.Layout, p.X, p.Y, pin[0], pin[1]))
	}
	var buf bytes.Buffer
	if err := render.WriteSVG(&buf, p, probes...); err != nil {
		h.logger.Error("failed to write svg", "render_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render plot")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *PlotHandler) JSON(w http.ResponseWriter, r *http.Request) {
	p, ok := h.build(w, r, "json")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PlotHandler) Parquet(w http.ResponseWriter, r *http.Request) {
	p, ok := h.build(w, r, "parquet")
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, export.Samples(p)); err != nil {
		h.logger.Error("failed to export field", "render_id", p.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to export field")
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="kscore-`+string(p.Variant)+`.parquet"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Probe answers a single tooltip query at inner-plot pixel (x, y).
func (h *PlotHandler) Probe(w http.ResponseWriter, r *http.Request) {
	pq, err := parsePlotQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	x, err := requiredFloat(r.URL.Query().Get("x"), "x")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	y, err := requiredFloat(r.URL.Query().Get("y"), "y")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pr, err := h.probe(r.Context(), pq, x, y, "http")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pr)
}

func (h *PlotHandler) probe(ctx context.Context, pq plotQuery, x, y float64, transport string) (render.Probe, error) {
	weights := h.weights.defaults
	if pq.Variant == scoring.VariantWeighted {
		weights = pq.override(h.weights.load(ctx))
		if err := weights.Validate(h.weights.bounds); err != nil {
			return render.Probe{}, err
		}
	}
	l := h.renderer.Layout(pq.Width)
	xs, ys := h.renderer.Scales(l)
	scorer := scoring.NewScorer(h.renderer.Model(), pq.Variant, weights, h.logger)

	pr := render.ProbeAt(scorer, l, xs, ys, x, y)
	h.metrics.ProbesTotal.WithLabelValues(transport, strconv.FormatBool(pr.Visible)).Inc()
	return pr, nil
}

// build renders the plot for the request, writing the error response itself
// when it fails. The weighted variant loads the persisted weights, applies
// any query overrides and writes the result back.
func (h *PlotHandler) build(w http.ResponseWriter, r *http.Request, format string) (*render.Plot, bool) {
	pq, err := parsePlotQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	weights := h.weights.defaults
	var stored scoring.WeightSet
	if pq.Variant == scoring.VariantWeighted {
		stored = h.weights.load(ctx)
		weights = pq.override(stored)
		if err := weights.Validate(h.weights.bounds); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return nil, false
		}
	}

	start := time.Now()
	p, err := h.renderer.Build(ctx, pq.Width, pq.Variant, weights)
	elapsed := time.Since(start)
	if err != nil {
		h.logger.Error("failed to build plot", "variant", pq.Variant, "width", pq.Width, "error", err)
		writeError(w, buildStatus(err), "failed to render plot")
		return nil, false
	}
	h.metrics.RendersTotal.WithLabelValues(string(pq.Variant), format).Inc()
	h.metrics.RenderDuration.WithLabelValues(string(pq.Variant)).Observe(elapsed.Seconds())

	if pq.Variant == scoring.VariantWeighted {
		_ = h.weights.persist(ctx, stored, weights, "render")
	}
	h.publishRender(p, elapsed)

	w.Header().Set(renderIDHeader, p.ID)
	return p, true
}

func (h *PlotHandler) publishRender(p *render.Plot, elapsed time.Duration) {
	if h.hermes == nil {
		return
	}
	labels := make([]float64, len(p.Labels))
	for i, l := range p.Labels {
		labels[i] = l.Value
	}
	evt := hermes.RenderCompletedEvent{
		RenderID:   p.ID,
		Variant:    string(p.Variant),
		Width:      p.Layout.InnerWidth,
		Height:     p.Layout.InnerHeight,
		WeightP:    p.Weights.P,
		WeightR:    p.Weights.R,
		Levels:     len(p.Levels),
		Labels:     labels,
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	}
	if err := h.hermes.Publish(hermes.SubjectRenderCompleted(string(p.Variant)), evt); err != nil {
		h.logger.Warn("failed to publish render event", "render_id", p.ID, "error", err)
	}
}
