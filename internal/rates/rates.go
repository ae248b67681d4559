// Package rates provides the base-to-secondary currency multiplier.
//
// Providers never fail: a rate service that cannot be reached or answers
// with something unusable yields the configured fallback rate instead.
package rates

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DefaultFallback is the USD to INR rate used when the service is unusable.
const DefaultFallback = 86.0

// Provider returns the multiplier converting base currency amounts to quote.
// Implementations always return a positive number.
type Provider interface {
	Rate(ctx context.Context, base, quote string) float64
}

// Static always returns the same rate.
type Static float64

// Rate returns s.
func (s Static) Rate(context.Context, string, string) float64 {
	return float64(s)
}

// FetchError describes why a rate lookup could not produce a rate.
type FetchError struct {
	Base   string
	Quote  string
	Reason string // request, transport, status, read, decode, missing, invalid
	Err    error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s/%s rate: %s", e.Base, e.Quote, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Cached fetches each currency pair once and reuses it for its lifetime.
type Cached struct {
	next  Provider
	mu    sync.Mutex
	rates map[string]float64
}

// NewCached wraps next with a per-pair cache.
func NewCached(next Provider) *Cached {
	return &Cached{
		next:  next,
		rates: make(map[string]float64),
	}
}

// Rate returns the cached rate, fetching it from the wrapped provider on first use.
// The lock is held across the fetch so concurrent callers trigger a single request.
// The fetch ignores ctx cancellation: the result is shared by every later caller,
// and the wrapped provider bounds it with its own timeout.
func (c *Cached) Rate(ctx context.Context, base, quote string) float64 {
	key := strings.ToUpper(base) + "/" + strings.ToUpper(quote)

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.rates[key]; ok {
		return r
	}
	r := c.next.Rate(context.WithoutCancel(ctx), base, quote)
	c.rates[key] = r
	return r
}
