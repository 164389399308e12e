package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MikeSquared-Agency/KScore/internal/client"
	"github.com/MikeSquared-Agency/KScore/internal/hermes"
	"github.com/MikeSquared-Agency/KScore/internal/scoring"
	"github.com/MikeSquared-Agency/KScore/internal/store"
)

// remoteFlags select a running service instead of the local store.
type remoteFlags struct {
	server string
	token  string
}

func (r *remoteFlags) client() *client.HTTPClient {
	return client.NewHTTPClient(strings.TrimRight(r.server, "/"), r.token)
}

func newWeightsCmd(a *app) *cobra.Command {
	var remote remoteFlags
	cmd := &cobra.Command{
		Use:   "weights",
		Short: "Read or change the persisted weights",
	}
	cmd.PersistentFlags().StringVar(&remote.server, "server", "", "base URL of a running kscore service (default: open the configured store)")
	cmd.PersistentFlags().StringVar(&remote.token, "token", "", "admin bearer token for --server")
	cmd.AddCommand(newWeightsGetCmd(a, &remote), newWeightsSetCmd(a, &remote), newWeightsResetCmd(&remote))
	return cmd
}

func newWeightsGetCmd(a *app, remote *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the persisted weights",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote.server != "" {
				w, err := remote.client().Weights(cmd.Context())
				if err != nil {
					return err
				}
				printWeights(cmd, w.P, w.R)
				return nil
			}

			s, err := store.Open(cmd.Context(), a.cfg.Storage.URL)
			if err != nil {
				return err
			}
			defer s.Close()

			w := store.LoadWeights(cmd.Context(), s, a.cfg.Weights.Default, a.cfg.Weights.Bounds, a.logger)
			printWeights(cmd, w.P, w.R)
			return nil
		},
	}
}

func newWeightsSetCmd(a *app, remote *remoteFlags) *cobra.Command {
	var notify bool
	cmd := &cobra.Command{
		Use:   "set <p> <r>",
		Short: "Persist a new weight pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := parseWeights(args[0], args[1])
			if err != nil {
				return err
			}
			if remote.server != "" {
				got, err := remote.client().SetWeights(cmd.Context(), w)
				if err != nil {
					return err
				}
				printWeights(cmd, got.P, got.R)
				return nil
			}
			if err := w.Validate(a.cfg.Weights.Bounds); err != nil {
				return err
			}

			s, err := store.Open(cmd.Context(), a.cfg.Storage.URL)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := store.SaveWeights(cmd.Context(), s, w); err != nil {
				return err
			}
			printWeights(cmd, w.P, w.R)

			if notify && a.cfg.Hermes.URL != "" {
				announce(cmd.Context(), a, w)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&notify, "notify", false, "publish the change so running services drop cached surfaces")
	return cmd
}

func newWeightsResetCmd(remote *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the service's default weights (requires --server)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote.server == "" {
				return fmt.Errorf("reset requires --server")
			}
			w, err := remote.client().ResetWeights(cmd.Context())
			if err != nil {
				return err
			}
			printWeights(cmd, w.P, w.R)
			return nil
		},
	}
}

func parseWeights(p, r string) (scoring.WeightSet, error) {
	wp, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return scoring.WeightSet{}, fmt.Errorf("invalid weight p %q", p)
	}
	wr, err := strconv.ParseFloat(r, 64)
	if err != nil {
		return scoring.WeightSet{}, fmt.Errorf("invalid weight r %q", r)
	}
	return scoring.WeightSet{P: wp, R: wr}, nil
}

// announce publishes a weights update; failures are logged, not returned.
func announce(ctx context.Context, a *app, w scoring.WeightSet) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	hc, err := hermes.NewNATSClient(ctx, a.cfg.Hermes.URL, a.logger)
	if err != nil {
		a.logger.Warn("failed to connect to hermes", "error", err)
		return
	}
	defer hc.Close()

	evt := hermes.WeightsUpdatedEvent{P: w.P, R: w.R, Source: "cli", Timestamp: time.Now().UTC()}
	if err := hc.Publish(hermes.SubjectWeightsUpdated, evt); err != nil {
		a.logger.Warn("failed to publish weights update", "error", err)
	}
}

func printWeights(cmd *cobra.Command, p, r float64) {
	fmt.Fprintf(cmd.OutOrStdout(), "p=%s r=%s\n", formatWeight(p), formatWeight(r))
}

func formatWeight(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
