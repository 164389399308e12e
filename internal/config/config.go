package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Hermes  HermesConfig  `yaml:"hermes"`
	Plot    PlotConfig    `yaml:"plot"`
	Weights WeightsConfig `yaml:"weights"`
	Cache   CacheConfig   `yaml:"cache"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port            int      `yaml:"port"`
	MetricsPort     int      `yaml:"metrics_port"`
	AdminToken      string   `yaml:"admin_token"`
	RateLimit       int      `yaml:"rate_limit"`
	RenderTimeoutMs int      `yaml:"render_timeout_ms"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
	InstanceID      string   `yaml:"instance_id"`
}

type StorageConfig struct {
	URL string `yaml:"url"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

type PlotConfig struct {
	DefaultWidth   int     `yaml:"default_width"`
	MaxWidth       int     `yaml:"max_width"`
	Aspect         float64 `yaml:"aspect"`
	ContourStep    float64 `yaml:"contour_step"`
	LabelThreshold float64 `yaml:"label_threshold"`
	ReferenceLevel float64 `yaml:"reference_level"`
	LabelSpacing   float64 `yaml:"label_spacing"`
	LegendStops    int     `yaml:"legend_stops"`
}

type WeightsConfig struct {
	Default scoring.WeightSet `yaml:"default"`
	Bounds  scoring.Bounds    `yaml:"bounds"`
}

type CacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// NewLogger builds the slog logger described by the logging section. Unknown
// levels fall back to info; any format other than "text" is JSON.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Server.RenderTimeoutMs) * time.Millisecond
}

// RenderOptions converts the plot and cache sections for the renderer.
func (c *Config) RenderOptions() render.Options {
	return render.Options{
		Layout: render.LayoutOptions{
			DefaultWidth: c.Plot.DefaultWidth,
			MaxWidth:     c.Plot.MaxWidth,
			Aspect:       c.Plot.Aspect,
			Margin:       render.DefaultMargin,
		},
		ContourStep:    c.Plot.ContourStep,
		LabelThreshold: c.Plot.LabelThreshold,
		ReferenceLevel: c.Plot.ReferenceLevel,
		LabelSpacing:   c.Plot.LabelSpacing,
		LegendStops:    c.Plot.LegendStops,
		CacheEntries:   c.Cache.MaxEntries,
	}
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            8700,
			MetricsPort:     8701,
			RateLimit:       120,
			RenderTimeoutMs: 10000,
			AllowedOrigins:  []string{"*"},
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Plot: PlotConfig{
			DefaultWidth:   900,
			MaxWidth:       1000,
			Aspect:         0.58,
			ContourStep:    10,
			LabelThreshold: 210,
			ReferenceLevel: 200,
			LabelSpacing:   24,
			LegendStops:    11,
		},
		Weights: WeightsConfig{
			Default: scoring.DefaultWeights(),
			Bounds:  scoring.Bounds{Min: 0, Max: 1},
		},
		Cache: CacheConfig{
			MaxEntries: 64,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Plot.ContourStep <= 0 {
		return fmt.Errorf("invalid config: plot.contour_step must be positive, got %v", c.Plot.ContourStep)
	}
	if c.Plot.MaxWidth <= 0 || c.Plot.DefaultWidth <= 0 {
		return fmt.Errorf("invalid config: plot widths must be positive")
	}
	if c.Plot.Aspect <= 0 {
		return fmt.Errorf("invalid config: plot.aspect must be positive, got %v", c.Plot.Aspect)
	}
	if c.Weights.Bounds.Min > c.Weights.Bounds.Max {
		return fmt.Errorf("invalid config: weights.bounds min %v exceeds max %v", c.Weights.Bounds.Min, c.Weights.Bounds.Max)
	}
	if err := c.Weights.Default.Validate(c.Weights.Bounds); err != nil {
		return fmt.Errorf("invalid config: weights.default: %w", err)
	}
	if c.Server.RenderTimeoutMs <= 0 {
		return fmt.Errorf("invalid config: server.render_timeout_ms must be positive, got %d", c.Server.RenderTimeoutMs)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("KSCORE_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("KSCORE_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("KSCORE_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("KSCORE_INSTANCE_ID"); v != "" {
		cfg.Server.InstanceID = v
	}
	if v := os.Getenv("KSCORE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimit = n
		}
	}
	if v := os.Getenv("KSCORE_STORAGE_URL"); v != "" {
		cfg.Storage.URL = v
	}
	if v := os.Getenv("KSCORE_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("KSCORE_PLOT_WIDTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Plot.DefaultWidth = n
		}
	}
	if v := os.Getenv("KSCORE_WEIGHT_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Weights.Default.P = f
		}
	}
	if v := os.Getenv("KSCORE_WEIGHT_R"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Weights.Default.R = f
		}
	}
	if v := os.Getenv("KSCORE_CACHE_MAX_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxEntries = n
		}
	}
	if v := os.Getenv("KSCORE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("KSCORE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
