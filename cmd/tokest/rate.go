package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/render"
)

type rateOutput struct {
	Base     string  `json:"base_currency"`
	Quote    string  `json:"quote_currency"`
	Rate     float64 `json:"rate"`
	Fallback bool    `json:"fallback"`
}

func rateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "rate",
		Short: "Show the exchange rate used for the secondary currency",
		Long: `Look up the base to secondary currency rate.

Without --strict a failed lookup prints the fallback rate, as estimates do.
With --strict a failed lookup is an error.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			base, quote := table.Currency(), env.QuoteCurrency
			p := httpProvider()

			rt, err := p.FetchRate(cmd.Context(), base, quote)
			fallback := err != nil
			if fallback {
				if strict {
					exitOnError("rate", err)
				}
				rt = p.Fallback()
			}

			if jsonOut {
				if err := render.Stdout().JSON(rateOutput{Base: base, Quote: quote, Rate: rt, Fallback: fallback}); err != nil {
					exitOnError("rate", err)
				}
				return
			}
			fmt.Print(render.New(pretty).Rate(base, quote, rt))
			if fallback {
				fmt.Fprintf(os.Stderr, "Using fallback rate: %v\n", err)
			}
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of using the fallback rate")
	return cmd
}
