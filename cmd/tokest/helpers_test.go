package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atish-webtools/web-tools/internal/config"
	"github.com/atish-webtools/web-tools/internal/rates"
)

func TestLoadTableDefault(t *testing.T) {
	tbl, err := loadTable("", &config.Env{BaseCurrency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "2025-07", tbl.Snapshot())
	assert.True(t, tbl.Has("gpt-4o-mini"))
}

func TestLoadTableFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
snapshot = "2026-01"
currency = "USD"

[[model]]
id = "tiny"
input = 0.5
output = 1.5
`), 0o644))

	tbl, err := loadTable("", &config.Env{BaseCurrency: "usd", PricingFile: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"tiny"}, tbl.Models())

	_, err = loadTable(filepath.Join(t.TempDir(), "missing.toml"), &config.Env{BaseCurrency: "USD"})
	assert.Error(t, err)
}

func TestLoadTableCurrencyMismatch(t *testing.T) {
	_, err := loadTable("", &config.Env{BaseCurrency: "EUR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EUR")
}

func TestRateProvider(t *testing.T) {
	env = &config.Env{RateURL: config.DefaultRateURL, FallbackRate: 86}
	t.Cleanup(func() { env = nil })

	newCmd := func() *cobra.Command {
		var rate float64
		cmd := &cobra.Command{Use: "x"}
		addRateFlag(cmd, &rate)
		return cmd
	}

	cmd := newCmd()
	p, err := rateProvider(cmd, 0)
	require.NoError(t, err)
	assert.IsType(t, &rates.Cached{}, p)

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("rate", "90.5"))
	p, err = rateProvider(cmd, 90.5)
	require.NoError(t, err)
	assert.Equal(t, 90.5, p.Rate(context.Background(), "USD", "INR"))

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("rate", "-1"))
	_, err = rateProvider(cmd, -1)
	assert.Error(t, err)
}

func TestReadText(t *testing.T) {
	text, err := readText("inline", "", false)
	require.NoError(t, err)
	assert.Equal(t, "inline", text)

	path := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0o644))
	text, err = readText("ignored", path, true)
	require.NoError(t, err)
	assert.Equal(t, "from file", text)

	_, err = readText("", filepath.Join(t.TempDir(), "nope.txt"), false)
	assert.Error(t, err)

	text, err = readText("", "", false)
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestReadAll(t *testing.T) {
	text, err := readAll(strings.NewReader("piped prompt"))
	require.NoError(t, err)
	assert.Equal(t, "piped prompt", text)
}

func TestRootCommandTree(t *testing.T) {
	root := rootCmd()

	for _, name := range []string{"estimate", "compare", "models", "rate", "tui", "serve", "version"} {
		c, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}

	est, _, err := root.Find([]string{"estimate"})
	require.NoError(t, err)
	for _, flag := range []string{"model", "input", "input-file", "output", "output-file", "rate", "no-compare"} {
		assert.NotNil(t, est.Flags().Lookup(flag), flag)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("json"))
	assert.NotNil(t, root.PersistentFlags().Lookup("pricing"))
}

func TestLimitOptionRejectsNonPositive(t *testing.T) {
	tests := []struct {
		name  string
		rps   float64
		burst int
		ok    bool
	}{
		{"valid", 2.5, 5, true},
		{"zero rps", 0, 5, false},
		{"negative rps", -1, 5, false},
		{"zero burst", 2.5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt, err := limitOption(tt.rps, tt.burst)
			if tt.ok {
				require.NoError(t, err)
				assert.NotNil(t, opt)
				return
			}
			assert.Error(t, err)
			assert.Nil(t, opt)
		})
	}
}
