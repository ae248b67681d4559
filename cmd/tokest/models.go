package main

import (
	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/render"
	"github.com/atish-webtools/web-tools/internal/server"
)

func modelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List priced models and their encodings",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			models := server.Models(table)
			w := render.Stdout()

			if jsonOut {
				if err := w.JSON(models); err != nil {
					exitOnError("models", err)
				}
				return
			}

			if len(models) == 0 {
				w.Empty("No models priced")
				return
			}

			base := table.Currency()
			w.Header("models (%d, prices as of %s)", len(models), table.Snapshot())
			for _, m := range models {
				w.Item("%-18s in %-10s out %-10s %s",
					render.Truncate(m.ModelID, 18),
					render.Money(base, m.InputPerMillion, 2),
					render.Money(base, m.OutputPerMillion, 2),
					m.Encoding)
			}
		},
	}
}
