package api

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

type PageHandler struct {
	weights *WeightsHandler
	width   int
	logger  *slog.Logger
}

func NewPageHandler(wh *WeightsHandler, defaultWidth int, logger *slog.Logger) *PageHandler {
	return &PageHandler{weights: wh, width: defaultWidth, logger: logger}
}

type pageData struct {
	Width   int
	Weights scoring.WeightSet
	Bounds  scoring.Bounds
	Step    float64
}

func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Width:   h.width,
		Weights: h.weights.load(r.Context()),
		Bounds:  h.weights.bounds,
		Step:    0.05,
	}
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
