package estimate

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atish-webtools/web-tools/internal/metrics"
	"github.com/atish-webtools/web-tools/internal/pricing"
	"github.com/atish-webtools/web-tools/internal/rates"
)

// fixedCounter returns a preset count per text.
type fixedCounter struct {
	counts map[string]int
	err    error
	models []string
}

func (f *fixedCounter) Count(text, modelID string) (int, error) {
	f.models = append(f.models, modelID)
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[text], nil
}

func miniTable(t *testing.T) *pricing.Table {
	t.Helper()
	table, err := pricing.NewTable("2025-07", "USD",
		pricing.Entry{ModelID: "gpt-4o-mini", InputPerMillion: 0.15, OutputPerMillion: 0.075})
	require.NoError(t, err)
	return table
}

func relEqual(t *testing.T, want, got float64) {
	t.Helper()
	if want == 0 {
		assert.Zero(t, got)
		return
	}
	assert.LessOrEqual(t, math.Abs(got-want)/math.Abs(want), 1e-9, "want %v, got %v", want, got)
}

func TestWorkedExample(t *testing.T) {
	counter := &fixedCounter{counts: map[string]int{"prompt": 10, "reply": 20}}
	m := metrics.New()
	e := New(miniTable(t), counter, rates.Static(86.0), "INR").WithMetrics(m)

	res, err := e.Estimate(context.Background(), Request{Input: "prompt", Output: "reply", Model: "gpt-4o-mini"})
	require.NoError(t, err)

	assert.Equal(t, 10, res.InputTokens)
	assert.Equal(t, 20, res.OutputTokens)
	assert.Equal(t, 30, res.TotalTokens)
	relEqual(t, 0.0000015, res.InputCost)
	relEqual(t, 0.0000015, res.OutputCost)
	relEqual(t, 0.000003, res.CostBase)
	relEqual(t, 0.000258, res.CostSecondary)
	assert.Equal(t, 86.0, res.Rate)
	assert.Equal(t, "USD", res.BaseCurrency)
	assert.Equal(t, "INR", res.QuoteCurrency)
	assert.Equal(t, []string{"gpt-4o-mini", "gpt-4o-mini"}, counter.models)

	assert.Equal(t, int64(1), m.Estimates.Load())
	assert.Equal(t, int64(30), m.TokensCounted.Load())
}

func TestCalculateInvariants(t *testing.T) {
	table := pricing.Default()
	for _, entry := range table.Entries() {
		for _, rate := range []float64{0.5, 86, 155.3} {
			for _, counts := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1234, 567}, {1_000_000, 2_000_000}} {
				res := Calculate(counts[0], counts[1], entry, rate)
				assert.Equal(t, res.InputTokens+res.OutputTokens, res.TotalTokens)
				relEqual(t, res.CostBase*rate, res.CostSecondary)
				relEqual(t, res.InputCost+res.OutputCost, res.CostBase)
			}
		}
	}
}

func TestCalculateOneMillion(t *testing.T) {
	entry, err := pricing.Default().Lookup("gpt-4.5-preview")
	require.NoError(t, err)

	res := Calculate(1_000_000, 1_000_000, entry, 2)
	relEqual(t, 75.0, res.InputCost)
	relEqual(t, 150.0, res.OutputCost)
	relEqual(t, 450.0, res.CostSecondary)
}

func TestEstimateUnknownModel(t *testing.T) {
	counter := &fixedCounter{}
	m := metrics.New()
	e := New(miniTable(t), counter, rates.Static(86), "INR").WithMetrics(m)

	_, err := e.Estimate(context.Background(), Request{Input: "x", Model: "gpt-4o"})
	require.Error(t, err)
	assert.True(t, pricing.IsUnknownModel(err))
	assert.Empty(t, counter.models, "no tokenization for unknown models")
	assert.Equal(t, int64(1), m.EstimateErrors.Load())
}

func TestEstimateCounterError(t *testing.T) {
	boom := errors.New("tables missing")
	e := New(miniTable(t), &fixedCounter{err: boom}, rates.Static(86), "INR").WithMetrics(metrics.New())

	_, err := e.Estimate(context.Background(), Request{Input: "x", Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "count input tokens")
}

func TestEstimateEmptyTexts(t *testing.T) {
	e := New(miniTable(t), &fixedCounter{counts: map[string]int{}}, rates.Static(86), "INR").WithMetrics(metrics.New())

	res, err := e.Estimate(context.Background(), Request{Model: "gpt-4o-mini"})
	require.NoError(t, err)
	assert.Zero(t, res.TotalTokens)
	assert.Zero(t, res.CostBase)
	assert.Zero(t, res.CostSecondary)
}

type pairSpy struct{ base, quote string }

func (p *pairSpy) Rate(_ context.Context, base, quote string) float64 {
	p.base, p.quote = base, quote
	return 1
}

func TestEstimatorRateUsesTableCurrency(t *testing.T) {
	spy := &pairSpy{}
	e := New(miniTable(t), &fixedCounter{}, spy, "EUR")

	assert.Equal(t, 1.0, e.Rate(context.Background()))
	assert.Equal(t, "USD", spy.base)
	assert.Equal(t, "EUR", spy.quote)
	assert.Equal(t, "EUR", e.Quote())
	assert.Equal(t, 1, e.Table().Len())
}
