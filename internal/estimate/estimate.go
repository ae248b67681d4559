// Package estimate turns prompt and reply text into token counts and cost.
package estimate

import (
	"context"
	"fmt"

	"github.com/atish-webtools/web-tools/internal/metrics"
	"github.com/atish-webtools/web-tools/internal/pricing"
	"github.com/atish-webtools/web-tools/internal/rates"
)

const perMillion = 1_000_000

// TokenCounter counts tokens for a model. *tokens.Counter and *tokens.Lenient satisfy it.
type TokenCounter interface {
	Count(text, modelID string) (int, error)
}

// Request is one estimate: the prompt, the expected reply, and the model.
type Request struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	Model  string `json:"model"`
}

// Result is the token usage and cost of a Request.
// CostSecondary is CostBase * Rate with no intermediate rounding.
type Result struct {
	Model         string  `json:"model"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	TotalTokens   int     `json:"total_tokens"`
	InputCost     float64 `json:"input_cost"`
	OutputCost    float64 `json:"output_cost"`
	CostBase      float64 `json:"cost_base"`
	CostSecondary float64 `json:"cost_secondary"`
	Rate          float64 `json:"rate"`
	BaseCurrency  string  `json:"base_currency,omitempty"`
	QuoteCurrency string  `json:"quote_currency,omitempty"`
}

// Calculate computes cost from token counts, a price entry, and the rate.
func Calculate(inputTokens, outputTokens int, entry pricing.Entry, rate float64) Result {
	inputCost := float64(inputTokens) / perMillion * entry.InputPerMillion
	outputCost := float64(outputTokens) / perMillion * entry.OutputPerMillion
	total := inputCost + outputCost

	return Result{
		Model:         entry.ModelID,
		InputTokens:   inputTokens,
		OutputTokens:  outputTokens,
		TotalTokens:   inputTokens + outputTokens,
		InputCost:     inputCost,
		OutputCost:    outputCost,
		CostBase:      total,
		CostSecondary: total * rate,
		Rate:          rate,
	}
}

// Estimator prices requests against a table using a counter and a rate provider.
type Estimator struct {
	table   *pricing.Table
	counter TokenCounter
	rates   rates.Provider
	quote   string
	metrics *metrics.Metrics
}

// New creates an Estimator converting costs into the quote currency.
// Pass a *rates.Cached provider to fetch the rate once per process.
func New(table *pricing.Table, counter TokenCounter, provider rates.Provider, quote string) *Estimator {
	return &Estimator{
		table:   table,
		counter: counter,
		rates:   provider,
		quote:   quote,
		metrics: metrics.Global(),
	}
}

// WithMetrics returns a copy of e recording on m.
func (e *Estimator) WithMetrics(m *metrics.Metrics) *Estimator {
	cp := *e
	cp.metrics = m
	return &cp
}

// Table returns the price list.
func (e *Estimator) Table() *pricing.Table { return e.table }

// Quote returns the secondary currency code.
func (e *Estimator) Quote() string { return e.quote }

// Rate returns the current base-to-quote multiplier.
func (e *Estimator) Rate(ctx context.Context) float64 {
	return e.rates.Rate(ctx, e.table.Currency(), e.quote)
}

// Estimate tokenizes both texts for req.Model and prices them.
// A model missing from the table fails with pricing.ErrUnknownModel.
func (e *Estimator) Estimate(ctx context.Context, req Request) (Result, error) {
	res, err := e.estimate(ctx, req)
	e.metrics.RecordEstimate(err == nil, res.TotalTokens)
	return res, err
}

func (e *Estimator) estimate(ctx context.Context, req Request) (Result, error) {
	entry, err := e.table.Lookup(req.Model)
	if err != nil {
		return Result{}, err
	}

	in, err := e.counter.Count(req.Input, req.Model)
	if err != nil {
		return Result{}, fmt.Errorf("count input tokens: %w", err)
	}
	out, err := e.counter.Count(req.Output, req.Model)
	if err != nil {
		return Result{}, fmt.Errorf("count output tokens: %w", err)
	}

	res := Calculate(in, out, entry, e.Rate(ctx))
	res.BaseCurrency = e.table.Currency()
	res.QuoteCurrency = e.quote
	return res, nil
}
