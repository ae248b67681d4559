package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/server"
)

func serveCmd() *cobra.Command {
	var (
		addr  string
		rps   float64
		burst int
		rate  float64
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve estimates over HTTP",
		Long: `Start the JSON API:

  POST /v1/estimate   {"input", "output", "model"}
  GET  /v1/compare    price comparison at the current rate
  GET  /v1/models     priced models and encodings
  GET  /health        liveness
  GET  /metrics       Prometheus text metrics`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if !cmd.Flags().Changed("addr") {
				addr = env.Addr
			}
			if !cmd.Flags().Changed("rps") {
				rps = env.ServeRPS
			}
			if !cmd.Flags().Changed("burst") {
				burst = env.ServeBurst
			}

			limit, err := limitOption(rps, burst)
			if err != nil {
				exitOnError("serve", err)
			}
			est, err := newEstimator(cmd, rate)
			if err != nil {
				exitOnError("serve", err)
			}

			srv := server.New(est, limit)
			cliLog.Info("serve_start", map[string]interface{}{
				"addr":   addr,
				"rps":    rps,
				"burst":  burst,
				"models": table.Len(),
			})
			if err := srv.ListenAndServe(cmd.Context(), addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				exitOnError("serve", err)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default $TOKEST_ADDR or :8080)")
	cmd.Flags().Float64Var(&rps, "rps", 0, "Requests per second allowed (default $TOKEST_SERVE_RPS or 20)")
	cmd.Flags().IntVar(&burst, "burst", 0, "Request burst allowed (default $TOKEST_SERVE_BURST or 40)")
	addRateFlag(cmd, &rate)
	return cmd
}

// limitOption validates the request limits; zero would reject every request.
func limitOption(rps float64, burst int) (server.Option, error) {
	if rps <= 0 {
		return nil, fmt.Errorf("--rps must be positive, got %v", rps)
	}
	if burst <= 0 {
		return nil, fmt.Errorf("--burst must be positive, got %d", burst)
	}
	return server.WithLimit(rps, burst), nil
}
