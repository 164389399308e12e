package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MikeSquared-Agency/KScore/internal/calibration"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

type CalibrationHandler struct {
	model scoring.Model
}

func NewCalibrationHandler(model scoring.Model) *CalibrationHandler {
	return &CalibrationHandler{model: model}
}

type CalibrationResponse struct {
	Metric   string             `json:"metric"`
	Value    float64            `json:"value"`
	Score    float64            `json:"score"`
	InDomain bool               `json:"in_domain"`
	Domain   calibration.Domain `json:"domain"`
	Range    calibration.Range  `json:"range"`
	Breaks   []float64          `json:"breaks"`
}

// Score returns the calibrated score for ?value= on the metric named in the
// path ("p" or "r").
func (h *CalibrationHandler) Score(w http.ResponseWriter, r *http.Request) {
	var m calibration.Metric
	switch name := chi.URLParam(r, "metric"); name {
	case h.model.P.Name:
		m = h.model.P
	case h.model.R.Name:
		m = h.model.R
	default:
		writeError(w, http.StatusNotFound, "unknown metric "+name)
		return
	}

	v, err := requiredFloat(r.URL.Query().Get("value"), "value")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, CalibrationResponse{
		Metric:   m.Name,
		Value:    v,
		Score:    m.Score(v),
		InDomain: m.Domain.Contains(v),
		Domain:   m.Domain,
		Range:    m.Extremes(),
		Breaks:   m.Breaks(),
	})
}
