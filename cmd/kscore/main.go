package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/KScore/internal/api"
	"github.com/MikeSquared-Agency/KScore/internal/config"
	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/metrics"
	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = cfg.Logging.NewLogger(os.Stdout)
	if cfg.Server.InstanceID == "" {
		cfg.Server.InstanceID = uuid.NewString()
	}
	logger = logger.With("instance", cfg.Server.InstanceID)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Settings store
	db, err := store.Open(ctx, cfg.Storage.URL)
	if err != nil {
		logger.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	backend, _, _ := store.ParseURL(cfg.Storage.URL)
	logger.Info("settings store ready", "backend", backend)

	// Renderer
	renderer := render.NewRenderer(scoring.DefaultModel(), cfg.RenderOptions(), logger)

	m := metrics.New(prometheus.DefaultRegisterer)
	m.ObserveCache(renderer.Cache())

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")

			// Renders on this instance publish weight changes too; only
			// changes made elsewhere drop the cached surfaces.
			err := hc.Subscribe(hermes.SubjectWeightsUpdated, hermes.ForeignWeightUpdates(cfg.Server.InstanceID, func(evt hermes.WeightsUpdatedEvent) {
				renderer.Cache().Invalidate()
				logger.Debug("surface cache invalidated", "source", evt.Source, "origin", evt.Origin)
			}))
			if err != nil {
				logger.Warn("failed to subscribe to weight updates", "error", err)
			}
		}
	}

	// API server
	router := api.NewRouter(cfg, renderer, db, hermesClient, m, logger)
	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Metrics server
	metricsRouter := api.NewMetricsRouter()
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("API server error", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = apiServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info("shutdown complete")
}
