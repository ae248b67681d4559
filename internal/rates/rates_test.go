package rates

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atish-webtools/web-tools/internal/metrics"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newProvider(url string, opts ...Option) *HTTPProvider {
	opts = append([]Option{WithURL(url + "/latest?base={base}&symbols={quote}"), WithMetrics(metrics.New())}, opts...)
	return NewHTTPProvider(opts...)
}

func TestRateSuccess(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"base":"USD","rates":{"INR":83.25}}`))
	}))
	defer srv.Close()

	p := newProvider(srv.URL)
	assert.Equal(t, 83.25, p.Rate(context.Background(), "usd", "inr"))
	assert.Equal(t, "base=USD&symbols=INR", gotQuery)
}

func TestRateAccessKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("access_key")
		_, _ = w.Write([]byte(`{"rates":{"EUR":0.9}}`))
	}))
	defer srv.Close()

	p := newProvider(srv.URL, WithAccessKey("s3cret"))
	assert.Equal(t, 0.9, p.Rate(context.Background(), "USD", "EUR"))
	assert.Equal(t, "s3cret", gotKey)
}

func TestRateFallsBack(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		reason string
	}{
		{"server error", http.StatusInternalServerError, `{"rates":{"INR":80}}`, "status"},
		{"not found", http.StatusNotFound, ``, "status"},
		{"malformed json", http.StatusOK, `{"rates":`, "decode"},
		{"html", http.StatusOK, `<html>nope</html>`, "decode"},
		{"missing rates", http.StatusOK, `{"success":false,"error":{"code":101}}`, "missing"},
		{"missing quote", http.StatusOK, `{"rates":{"EUR":0.9}}`, "missing"},
		{"string value", http.StatusOK, `{"rates":{"INR":"83.1"}}`, "invalid"},
		{"null value", http.StatusOK, `{"rates":{"INR":null}}`, "invalid"},
		{"zero", http.StatusOK, `{"rates":{"INR":0}}`, "invalid"},
		{"negative", http.StatusOK, `{"rates":{"INR":-3}}`, "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serve(t, tt.status, tt.body)
			p := newProvider(srv.URL)

			assert.Equal(t, DefaultFallback, p.Rate(context.Background(), "USD", "INR"))

			_, err := p.FetchRate(context.Background(), "USD", "INR")
			var fe *FetchError
			require.True(t, errors.As(err, &fe), "error %v", err)
			assert.Equal(t, tt.reason, fe.Reason)
		})
	}
}

func TestRateTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	p := newProvider(srv.URL, WithTimeout(50*time.Millisecond))

	start := time.Now()
	got := p.Rate(context.Background(), "USD", "INR")
	assert.Equal(t, 86.0, got)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestRateTransportErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := newProvider(url)
	assert.Equal(t, 86.0, p.Rate(context.Background(), "USD", "INR"))

	_, err := p.FetchRate(context.Background(), "USD", "INR")
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "transport", fe.Reason)
}

type failingClient struct{}

func (failingClient) Do(*http.Request) (*http.Response, error) {
	return nil, errors.New("dial tcp: no route to host")
}

func TestRateCustomFallbackAndClient(t *testing.T) {
	m := metrics.New()
	p := NewHTTPProvider(WithClient(failingClient{}), WithFallback(0.92), WithMetrics(m))

	assert.Equal(t, 0.92, p.Fallback())
	assert.Equal(t, 0.92, p.Rate(context.Background(), "USD", "EUR"))
	assert.Equal(t, int64(1), m.RateFetches.Load())
	assert.Equal(t, int64(1), m.RateFallbacks.Load())
}

func TestNonPositiveFallbackUsesDefault(t *testing.T) {
	p := NewHTTPProvider(WithFallback(-1), WithTimeout(0), WithMetrics(metrics.New()))
	assert.Equal(t, DefaultFallback, p.Fallback())
	assert.Equal(t, DefaultTimeout, p.timeout)
}

func TestFetchErrorMessage(t *testing.T) {
	err := &FetchError{Base: "USD", Quote: "INR", Reason: "status", Err: errors.New("HTTP 503")}
	assert.Equal(t, "fetch USD/INR rate: status: HTTP 503", err.Error())
	assert.EqualError(t, errors.Unwrap(err), "HTTP 503")
}

type countingProvider struct {
	mu    sync.Mutex
	calls int
	rate  float64
}

func (c *countingProvider) Rate(context.Context, string, string) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.rate
}

func TestCachedFetchesOncePerPair(t *testing.T) {
	next := &countingProvider{rate: 84.5}
	c := NewCached(next)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 84.5, c.Rate(ctx, "USD", "INR"))
		}()
	}
	wg.Wait()
	assert.Equal(t, 84.5, c.Rate(ctx, "usd", "inr"))
	assert.Equal(t, 1, next.calls)

	c.Rate(ctx, "USD", "EUR")
	assert.Equal(t, 2, next.calls)
}

func TestCachedKeepsFallback(t *testing.T) {
	p := NewHTTPProvider(WithClient(failingClient{}), WithMetrics(metrics.New()))
	c := NewCached(p)

	assert.Equal(t, 86.0, c.Rate(context.Background(), "USD", "INR"))
	assert.Equal(t, 86.0, c.Rate(context.Background(), "USD", "INR"))
}

func TestCachedIgnoresCancelledCaller(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"rates":{"INR":83.25}}`)
	c := NewCached(newProvider(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, 83.25, c.Rate(ctx, "USD", "INR"))
	assert.Equal(t, 83.25, c.Rate(context.Background(), "USD", "INR"))
}

func TestStatic(t *testing.T) {
	var p Provider = Static(90.5)
	assert.Equal(t, 90.5, p.Rate(context.Background(), "USD", "INR"))
}
