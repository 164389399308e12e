package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/KScore/internal/config"
	"github.com/MikeSquared-Agency/KScore/internal/render"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

// Set by the linker at build time.
var version = "dev"

// app carries the loaded configuration into subcommands.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "kscorectl",
		Short:         "Render and inspect the two-metric K score heatmap.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logging.NewLogger(cmd.ErrOrStderr())
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to config file")

	root.AddCommand(
		newRenderCmd(a),
		newTableCmd(a),
		newTermCmd(a),
		newExportCmd(a),
		newWeightsCmd(a),
		newMCPCmd(a),
	)
	return root
}

// plotFlags are shared by every command that builds a plot.
type plotFlags struct {
	width   int
	variant string
	wp      float64
	wr      float64
}

func (f *plotFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.width, "width", 0, "container width in pixels (0 uses the configured default)")
	cmd.Flags().StringVar(&f.variant, "variant", "raw", "combination variant: raw or weighted")
	cmd.Flags().Float64Var(&f.wp, "wp", -1, "weight of P for the weighted variant (default from config)")
	cmd.Flags().Float64Var(&f.wr, "wr", -1, "weight of R for the weighted variant (default from config)")
}

// weights applies the --wp/--wr flags that were given on top of base.
func (f *plotFlags) weights(cmd *cobra.Command, base scoring.WeightSet, bounds scoring.Bounds) (scoring.WeightSet, error) {
	w := base
	if cmd.Flags().Changed("wp") {
		w.P = f.wp
	}
	if cmd.Flags().Changed("wr") {
		w.R = f.wr
	}
	return w, w.Validate(bounds)
}

func (a *app) build(ctx context.Context, cmd *cobra.Command, f *plotFlags) (*render.Plot, error) {
	variant, err := scoring.ParseVariant(f.variant)
	if err != nil {
		return nil, err
	}
	base := a.cfg.Weights.Default
	if variant == scoring.VariantWeighted {
		if base, err = a.storedWeights(ctx); err != nil {
			return nil, err
		}
	}
	weights, err := f.weights(cmd, base, a.cfg.Weights.Bounds)
	if err != nil {
		return nil, err
	}
	renderer := render.NewRenderer(scoring.DefaultModel(), a.cfg.RenderOptions(), a.logger)
	return renderer.Build(ctx, f.width, variant, weights)
}

// storedWeights reads the persisted pair from the configured store, the same
// starting point the service uses for weighted renders.
func (a *app) storedWeights(ctx context.Context) (scoring.WeightSet, error) {
	s, err := store.Open(ctx, a.cfg.Storage.URL)
	if err != nil {
		return scoring.WeightSet{}, err
	}
	defer s.Close()
	return store.LoadWeights(ctx, s, a.cfg.Weights.Default, a.cfg.Weights.Bounds, a.logger), nil
}
