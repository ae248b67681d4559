package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/atish-webtools/web-tools/internal/logging"
	"github.com/atish-webtools/web-tools/internal/metrics"
)

const (
	// DefaultURL is the rate service endpoint. {base} and {quote} are substituted.
	DefaultURL = "https://api.exchangerate.host/latest?base={base}&symbols={quote}"

	// DefaultTimeout bounds the single rate request.
	DefaultTimeout = 5 * time.Second

	maxBody = 1 << 20
)

// HTTPClient interface for HTTP requests (enables testing)
type HTTPClient interface {
	Do(*http.Request) (*http.Response, error)
}

// Verify http.Client implements HTTPClient
var _ HTTPClient = (*http.Client)(nil)

// HTTPProvider looks rates up on a JSON rate service that answers
// {"rates": {"<QUOTE>": <number>}}.
type HTTPProvider struct {
	client    HTTPClient
	url       string
	accessKey string
	timeout   time.Duration
	fallback  float64
	metrics   *metrics.Metrics
	log       *logging.Logger
}

// Option configures an HTTPProvider.
type Option func(*HTTPProvider)

// WithClient sets the HTTP client.
func WithClient(c HTTPClient) Option {
	return func(p *HTTPProvider) { p.client = c }
}

// WithURL sets the URL template.
func WithURL(u string) Option {
	return func(p *HTTPProvider) { p.url = u }
}

// WithAccessKey appends access_key=<key> to every request.
func WithAccessKey(key string) Option {
	return func(p *HTTPProvider) { p.accessKey = key }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(p *HTTPProvider) { p.timeout = d }
}

// WithFallback sets the rate returned when the lookup fails.
func WithFallback(r float64) Option {
	return func(p *HTTPProvider) { p.fallback = r }
}

// WithMetrics records fetches on m instead of the global metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *HTTPProvider) { p.metrics = m }
}

// NewHTTPProvider creates a provider with defaults for anything not set.
func NewHTTPProvider(opts ...Option) *HTTPProvider {
	p := &HTTPProvider{
		client:   http.DefaultClient,
		url:      DefaultURL,
		timeout:  DefaultTimeout,
		fallback: DefaultFallback,
		log:      logging.New("rates"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.fallback <= 0 {
		p.fallback = DefaultFallback
	}
	if p.metrics == nil {
		p.metrics = metrics.Global()
	}
	return p
}

// Fallback returns the rate used when a lookup fails.
func (p *HTTPProvider) Fallback() float64 {
	return p.fallback
}

// Rate makes one request and returns the quoted rate, or the fallback
// if the lookup fails for any reason FetchRate reports.
func (p *HTTPProvider) Rate(ctx context.Context, base, quote string) float64 {
	start := time.Now()
	r, err := p.FetchRate(ctx, base, quote)
	p.metrics.RecordRateFetch(err == nil, time.Since(start).Milliseconds())
	if err != nil {
		p.log.Warn("rate_fallback", map[string]interface{}{
			"base":     base,
			"quote":    quote,
			"fallback": p.fallback,
		}, err)
		return p.fallback
	}
	p.log.TimedEvent("rate_fetched", start, map[string]interface{}{
		"base":  base,
		"quote": quote,
		"rate":  r,
	})
	return r
}

// FetchRate performs the lookup without the fallback. Every error it
// returns is a *FetchError.
func (p *HTTPProvider) FetchRate(ctx context.Context, base, quote string) (float64, error) {
	base, quote = strings.ToUpper(base), strings.ToUpper(quote)
	fail := func(reason string, err error) (float64, error) {
		return 0, &FetchError{Base: base, Quote: quote, Reason: reason, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.requestURL(base, quote), nil)
	if err != nil {
		return fail("request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fail("transport", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fail("status", fmt.Errorf("HTTP %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fail("read", err)
	}
	if !gjson.ValidBytes(body) {
		return fail("decode", fmt.Errorf("body is not valid JSON"))
	}

	v := gjson.GetBytes(body, "rates."+quote)
	if !v.Exists() {
		return fail("missing", fmt.Errorf("no rates.%s in response", quote))
	}
	if v.Type != gjson.Number {
		return fail("invalid", fmt.Errorf("rates.%s is %s, not a number", quote, v.Type))
	}
	r := v.Float()
	if r <= 0 {
		return fail("invalid", fmt.Errorf("rates.%s = %v is not positive", quote, r))
	}
	return r, nil
}

func (p *HTTPProvider) requestURL(base, quote string) string {
	u := strings.NewReplacer(
		"{base}", url.QueryEscape(base),
		"{quote}", url.QueryEscape(quote),
	).Replace(p.url)
	if p.accessKey == "" {
		return u
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + "access_key=" + url.QueryEscape(p.accessKey)
}
