package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/atish-webtools/web-tools/internal/estimate"
	"github.com/atish-webtools/web-tools/internal/logging"
	"github.com/atish-webtools/web-tools/internal/rates"
	"github.com/atish-webtools/web-tools/internal/tokens"
)

var cliLog = logging.New("cli")

// exitOnError logs the error and prints it to stderr, then exits.
func exitOnError(command string, err error) {
	cliLog.Error("command_failed", map[string]interface{}{"command": command}, err)
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// httpProvider builds the rate service client from the environment.
func httpProvider() *rates.HTTPProvider {
	return rates.NewHTTPProvider(
		rates.WithURL(env.RateURL),
		rates.WithAccessKey(env.RateAccessKey),
		rates.WithTimeout(env.RateTimeout),
		rates.WithFallback(env.FallbackRate),
	)
}

// addRateFlag registers --rate, which pins the exchange rate and skips the lookup.
func addRateFlag(cmd *cobra.Command, rate *float64) {
	cmd.Flags().Float64Var(rate, "rate", 0, "Use this exchange rate instead of looking it up")
}

// rateProvider returns a fixed provider when --rate was given, otherwise the
// rate service fetched once per process.
func rateProvider(cmd *cobra.Command, override float64) (rates.Provider, error) {
	if !cmd.Flags().Changed("rate") {
		return rates.NewCached(httpProvider()), nil
	}
	if override <= 0 {
		return nil, fmt.Errorf("--rate must be positive, got %v", override)
	}
	return rates.Static(override), nil
}

func newEstimator(cmd *cobra.Command, override float64) (*estimate.Estimator, error) {
	provider, err := rateProvider(cmd, override)
	if err != nil {
		return nil, err
	}
	return estimate.New(table, tokens.NewLenient(tokens.NewCounter()), provider, env.QuoteCurrency), nil
}

// readText returns text, or the contents of file when set. With fromStdin it
// reads piped stdin when neither is given.
func readText(text, file string, fromStdin bool) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
		return string(data), nil
	}
	if text != "" || !fromStdin || term.IsTerminal(int(os.Stdin.Fd())) {
		return text, nil
	}
	return readAll(os.Stdin)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
