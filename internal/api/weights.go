package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/metrics"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

type WeightsHandler struct {
	store    store.Store
	hermes   hermes.Client
	metrics  *metrics.Metrics
	defaults scoring.WeightSet
	bounds   scoring.Bounds
	origin   string
	logger   *slog.Logger
}

func NewWeightsHandler(s store.Store, h hermes.Client, m *metrics.Metrics, defaults scoring.WeightSet, bounds scoring.Bounds, origin string, logger *slog.Logger) *WeightsHandler {
	return &WeightsHandler{store: s, hermes: h, metrics: m, defaults: defaults, bounds: bounds, origin: origin, logger: logger}
}

type WeightsResponse struct {
	P      float64        `json:"p"`
	R      float64        `json:"r"`
	Sum    float64        `json:"sum"`
	Bounds scoring.Bounds `json:"bounds"`
}

func (h *WeightsHandler) response(w scoring.WeightSet) WeightsResponse {
	return WeightsResponse{P: w.P, R: w.R, Sum: w.Sum(), Bounds: h.bounds}
}

func (h *WeightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.response(h.load(r.Context())))
}

func (h *WeightsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var req scoring.WeightSet
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(h.bounds); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	prev := h.load(r.Context())
	if err := h.persist(r.Context(), prev, req, "api"); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save weights")
		return
	}
	writeJSON(w, http.StatusOK, h.response(req))
}

func (h *WeightsHandler) Reset(w http.ResponseWriter, r *http.Request) {
	prev := h.load(r.Context())
	if err := h.persist(r.Context(), prev, h.defaults, "reset"); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save weights")
		return
	}
	writeJSON(w, http.StatusOK, h.response(h.defaults))
}

func (h *WeightsHandler) load(ctx context.Context) scoring.WeightSet {
	return store.LoadWeights(ctx, h.store, h.defaults, h.bounds, h.logger)
}

// persist writes next and announces it when it differs from prev.
func (h *WeightsHandler) persist(ctx context.Context, prev, next scoring.WeightSet, source string) error {
	if err := store.SaveWeights(ctx, h.store, next); err != nil {
		h.metrics.StoreErrors.WithLabelValues("save_weights").Inc()
		h.logger.Error("failed to save weights", "source", source, "error", err)
		return err
	}
	if next == prev {
		return nil
	}

	h.metrics.WeightUpdates.WithLabelValues(source).Inc()
	h.logger.Info("weights updated", "p", next.P, "r", next.R, "source", source)
	if h.hermes != nil {
		evt := hermes.WeightsUpdatedEvent{P: next.P, R: next.R, Source: source, Origin: h.origin, Timestamp: time.Now().UTC()}
		if err := h.hermes.Publish(hermes.SubjectWeightsUpdated, evt); err != nil {
			h.logger.Warn("failed to publish weights update", "error", err)
		}
	}
	return nil
}
