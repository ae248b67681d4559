package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atish-webtools/web-tools/internal/compare"
	"github.com/atish-webtools/web-tools/internal/estimate"
	"github.com/atish-webtools/web-tools/internal/pricing"
	"github.com/atish-webtools/web-tools/internal/render"
)

// estimateOutput is the --json shape of the estimate command.
type estimateOutput struct {
	estimate.Result
	Snapshot   string        `json:"snapshot,omitempty"`
	Comparison []compare.Row `json:"comparison,omitempty"`
}

func estimateCmd() *cobra.Command {
	var (
		model      string
		input      string
		inputFile  string
		output     string
		outputFile string
		rate       float64
		noCompare  bool
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate tokens and cost for a prompt and reply",
		Long: `Count the tokens in a prompt and its expected reply for one model
and price them in the base and secondary currency.

The prompt is read from --input, --input-file, or piped stdin.
The full price comparison follows unless --no-compare is set.`,
		Example: `  tokest estimate -m gpt-4o-mini --input "Summarise this" --output "Sure"
  cat prompt.txt | tokest estimate -m o3 --output-file reply.txt`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if model == "" {
				model = env.Model
			}
			if !table.Has(model) {
				exitOnError("estimate", &pricing.UnknownModelError{ModelID: model})
			}

			in, err := readText(input, inputFile, true)
			if err != nil {
				exitOnError("estimate", err)
			}
			out, err := readText(output, outputFile, false)
			if err != nil {
				exitOnError("estimate", err)
			}

			est, err := newEstimator(cmd, rate)
			if err != nil {
				exitOnError("estimate", err)
			}

			res, err := est.Estimate(cmd.Context(), estimate.Request{Input: in, Output: out, Model: model})
			if err != nil {
				exitOnError("estimate", err)
			}

			var rows []compare.Row
			if !noCompare {
				rows = compare.Build(table, res.Rate)
			}

			if jsonOut {
				if err := render.Stdout().JSON(estimateOutput{Result: res, Snapshot: table.Snapshot(), Comparison: rows}); err != nil {
					exitOnError("estimate", err)
				}
				return
			}

			r := render.New(pretty)
			fmt.Print(r.Estimate(res))
			if !noCompare {
				fmt.Println()
				fmt.Print(r.Comparison(rows, table.Currency(), env.QuoteCurrency, table.Snapshot()))
				fmt.Print(r.Rate(table.Currency(), env.QuoteCurrency, res.Rate))
			}
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "Model id (default $TOKEST_MODEL or gpt-4o)")
	cmd.Flags().StringVarP(&input, "input", "i", "", "Prompt text")
	cmd.Flags().StringVar(&inputFile, "input-file", "", "Read the prompt from a file")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Expected reply text")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "Read the expected reply from a file")
	cmd.Flags().BoolVar(&noCompare, "no-compare", false, "Skip the model price comparison")
	addRateFlag(cmd, &rate)
	cmd.MarkFlagsMutuallyExclusive("input", "input-file")
	cmd.MarkFlagsMutuallyExclusive("output", "output-file")

	return cmd
}
