// Package main provides the tokest CLI entrypoint.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atish-webtools/web-tools/internal/config"
	"github.com/atish-webtools/web-tools/internal/logging"
	"github.com/atish-webtools/web-tools/internal/pricing"
)

var (
	version     = "0.1.0"
	pretty      bool
	jsonOut     bool
	pricingFile string

	env   *config.Env
	table *pricing.Table
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokest",
		Short: "Estimate LLM token usage and cost",
		Long: `tokest counts the tokens in a prompt and its expected reply and
prices them against a per-model price list, in USD and a second currency.

Use 'tokest estimate' for a one-off estimate, 'tokest tui' for the
interactive form, or 'tokest serve' for the HTTP API.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env = config.Load()
			logging.SetLevel(logging.ParseLevel(env.LogLevel))

			var err error
			if table, err = loadTable(pricingFile, env); err != nil {
				return err
			}
			cliLog.Debug("pricing_loaded", map[string]interface{}{
				"command":  cmd.Name(),
				"models":   table.Len(),
				"snapshot": table.Snapshot(),
				"currency": table.Currency(),
			})
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&pretty, "pretty", term.IsTerminal(int(os.Stdout.Fd())), "Pretty print output")
	root.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	root.PersistentFlags().StringVar(&pricingFile, "pricing", "", "Price list TOML file (default: built-in, or $TOKEST_PRICING_FILE)")

	root.AddGroup(
		&cobra.Group{ID: "estimate", Title: "Estimates:"},
		&cobra.Group{ID: "interactive", Title: "Interactive & Service:"},
	)

	for _, c := range []*cobra.Command{estimateCmd(), compareCmd(), modelsCmd(), rateCmd()} {
		c.GroupID = "estimate"
		root.AddCommand(c)
	}
	for _, c := range []*cobra.Command{tuiCmd(), serveCmd()} {
		c.GroupID = "interactive"
		root.AddCommand(c)
	}

	root.AddCommand(versionCmd())
	return root
}

// loadTable returns the price list from path, the configured file, or the
// built-in table, checking it is priced in the configured base currency.
func loadTable(path string, env *config.Env) (*pricing.Table, error) {
	if path == "" {
		path = env.PricingFile
	}

	t := pricing.Default()
	if path != "" {
		var err error
		if t, err = pricing.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if !strings.EqualFold(t.Currency(), env.BaseCurrency) {
		return nil, fmt.Errorf("price list is in %s but base currency is %s", t.Currency(), env.BaseCurrency)
	}
	return t, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tokest version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tokest version %s (prices as of %s)\n", version, pricing.Default().Snapshot())
		},
	}
}
