// Package metrics provides a simple Prometheus-compatible metrics endpoint.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds runtime counters for tokest
type Metrics struct {
	// Estimates
	Estimates      atomic.Int64
	EstimateErrors atomic.Int64
	TokensCounted  atomic.Int64

	// Exchange rate lookups
	RateFetches   atomic.Int64
	RateFallbacks atomic.Int64

	// HTTP service
	Requests        atomic.Int64
	RateLimited     atomic.Int64
	PanicsRecovered atomic.Int64
	LastRateFetchMs atomic.Int64

	startTime time.Time
}

var (
	global     *Metrics
	globalOnce sync.Once
)

// Global returns the global metrics instance
func Global() *Metrics {
	globalOnce.Do(func() {
		global = New()
	})
	return global
}

// New creates an independent Metrics instance
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordEstimate records one estimate and the tokens it counted
func (m *Metrics) RecordEstimate(success bool, tokens int) {
	m.Estimates.Add(1)
	if !success {
		m.EstimateErrors.Add(1)
		return
	}
	m.TokensCounted.Add(int64(tokens))
}

// RecordRateFetch records an exchange rate fetch attempt
func (m *Metrics) RecordRateFetch(success bool, durationMs int64) {
	m.RateFetches.Add(1)
	if !success {
		m.RateFallbacks.Add(1)
	}
	m.LastRateFetchMs.Store(durationMs)
}

// RecordRequest records an HTTP request and whether it was throttled
func (m *Metrics) RecordRequest(limited bool) {
	m.Requests.Add(1)
	if limited {
		m.RateLimited.Add(1)
	}
}

// RecordPanic records a handler panic turned into an error response
func (m *Metrics) RecordPanic() {
	m.PanicsRecovered.Add(1)
}

func write(w io.Writer, name, kind, help string, value any) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
	fmt.Fprintf(w, "%s %v\n\n", name, value)
}

// Handler returns an HTTP handler for /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")

		write(w, "tokest_uptime_seconds", "gauge", "Time since tokest started",
			fmt.Sprintf("%.2f", time.Since(m.startTime).Seconds()))
		write(w, "tokest_estimates_total", "counter", "Total estimates computed", m.Estimates.Load())
		write(w, "tokest_estimate_errors_total", "counter", "Total failed estimates", m.EstimateErrors.Load())
		write(w, "tokest_tokens_counted_total", "counter", "Total tokens counted by estimates", m.TokensCounted.Load())
		write(w, "tokest_rate_fetches_total", "counter", "Total exchange rate fetch attempts", m.RateFetches.Load())
		write(w, "tokest_rate_fallbacks_total", "counter", "Total exchange rate fetches that used the fallback", m.RateFallbacks.Load())
		write(w, "tokest_last_rate_fetch_ms", "gauge", "Duration of the last exchange rate fetch", m.LastRateFetchMs.Load())
		write(w, "tokest_http_requests_total", "counter", "Total HTTP requests", m.Requests.Load())
		write(w, "tokest_http_rate_limited_total", "counter", "Total HTTP requests rejected by the limiter", m.RateLimited.Load())
		write(w, "tokest_http_panics_recovered_total", "counter", "Total HTTP handler panics recovered", m.PanicsRecovered.Load())
	}
}
