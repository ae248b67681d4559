package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/compare"
	"github.com/atish-webtools/web-tools/internal/render"
	"github.com/atish-webtools/web-tools/internal/server"
)

func compareCmd() *cobra.Command {
	var rate float64

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare per-million token prices across models",
		Long: `Show every priced model with input, output and total price per
million tokens. The most expensive rows are marked red, the cheapest green.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			provider, err := rateProvider(cmd, rate)
			if err != nil {
				exitOnError("compare", err)
			}

			base, quote := table.Currency(), env.QuoteCurrency
			rt := provider.Rate(cmd.Context(), base, quote)
			rows := compare.Build(table, rt)

			if jsonOut {
				resp := server.CompareResponse{
					Base:     base,
					Quote:    quote,
					Rate:     rt,
					Snapshot: table.Snapshot(),
					Rows:     rows,
				}
				if err := render.Stdout().JSON(resp); err != nil {
					exitOnError("compare", err)
				}
				return
			}

			r := render.New(pretty)
			fmt.Print(r.Comparison(rows, base, quote, table.Snapshot()))
			fmt.Print(r.Rate(base, quote, rt))
		},
	}

	addRateFlag(cmd, &rate)
	return cmd
}
