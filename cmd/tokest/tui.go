package main

import (
	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/tui"
)

// tuiCmd launches the interactive estimator
func tuiCmd() *cobra.Command {
	var rate float64

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive estimator",
		Long:  "Fill in a prompt, an expected reply and a model, then see the cost and the price comparison",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			est, err := newEstimator(cmd, rate)
			if err != nil {
				exitOnError("tui", err)
			}
			if err := tui.Run(cmd.Context(), est, env.Model); err != nil {
				exitOnError("tui", err)
			}
		},
	}

	addRateFlag(cmd, &rate)
	return cmd
}
