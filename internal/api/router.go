package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/KScore/internal/config"
	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/metrics"
	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

func NewRouter(cfg *config.Config, rd *render.Renderer, s store.Store, h hermes.Client, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(cfg.Server.RateLimit))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{renderIDHeader},
		MaxAge:         300,
	}))

	weights := NewWeightsHandler(s, h, m, cfg.Weights.Default, cfg.Weights.Bounds, cfg.Server.InstanceID, logger)
	plots := NewPlotHandler(rd, weights, h, m, cfg.RenderTimeout(), logger)
	calib := NewCalibrationHandler(rd.Model())
	page := NewPageHandler(weights, rd.Options().Layout.DefaultWidth, logger)

	r.Get("/", page.Index)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/plot.svg", plots.SVG)
		r.Get("/plot", plots.JSON)
		r.Get("/field.parquet", plots.Parquet)
		r.Get("/probe", plots.Probe)
		r.Get("/ws/probe", plots.ProbeStream(newUpgrader(cfg.Server.AllowedOrigins)))

		r.Get("/calibration/{metric}", calib.Score)

		r.Get("/weights", weights.Get)
		r.Put("/weights", weights.Put)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(cfg.Server.AdminToken))
			r.Post("/weights/reset", weights.Reset)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
