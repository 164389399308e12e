package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/MikeSquared-Agency/KScore/internal/field"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

const renderIDHeader = "X-Render-ID"

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// plotQuery holds the parameters shared by every plot endpoint.
type plotQuery struct {
	Width   int
	Variant scoring.Variant
	P       *float64
	R       *float64
}

func parsePlotQuery(r *http.Request) (plotQuery, error) {
	q := r.URL.Query()
	var pq plotQuery

	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return pq, fmt.Errorf("invalid width %q", v)
		}
		pq.Width = n
	}

	variant, err := scoring.ParseVariant(q.Get("variant"))
	if err != nil {
		return pq, err
	}
	pq.Variant = variant

	if pq.P, err = optionalFloat(q.Get("wp"), "wp"); err != nil {
		return pq, err
	}
	if pq.R, err = optionalFloat(q.Get("wr"), "wr"); err != nil {
		return pq, err
	}
	return pq, nil
}

// override replaces the weights given in the query.
func (pq plotQuery) override(w scoring.WeightSet) scoring.WeightSet {
	if pq.P != nil {
		w.P = *pq.P
	}
	if pq.R != nil {
		w.R = *pq.R
	}
	return w
}

func optionalFloat(raw, name string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := requiredFloat(raw, name)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func requiredFloat(raw, name string) (float64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%s required", name)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return f, nil
}

// parsePin reads the optional px/py crosshair position. Both or neither
// must be given.
func parsePin(r *http.Request) (*[2]float64, error) {
	q := r.URL.Query()
	px, err := optionalFloat(q.Get("px"), "px")
	if err != nil {
		return nil, err
	}
	py, err := optionalFloat(q.Get("py"), "py")
	if err != nil {
		return nil, err
	}
	if (px == nil) != (py == nil) {
		return nil, fmt.Errorf("px and py must be given together")
	}
	if px == nil {
		return nil, nil
	}
	return &[2]float64{*px, *py}, nil
}

// buildStatus maps a render failure onto an HTTP status.
func buildStatus(err error) int {
	switch {
	case errors.Is(err, field.ErrGridTooSmall):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
