// Package server exposes estimates and the price comparison over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/atish-webtools/web-tools/internal/compare"
	"github.com/atish-webtools/web-tools/internal/estimate"
	"github.com/atish-webtools/web-tools/internal/logging"
	"github.com/atish-webtools/web-tools/internal/metrics"
	"github.com/atish-webtools/web-tools/internal/pricing"
	"github.com/atish-webtools/web-tools/internal/tokens"
)

const maxRequestBody = 4 << 20

// Server serves the estimate API.
type Server struct {
	est     *estimate.Estimator
	limiter *rate.Limiter
	metrics *metrics.Metrics
	log     *logging.Logger
	mux     *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLimit throttles requests to rps with the given burst.
func WithLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records on m instead of the global metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a Server around est.
func New(est *estimate.Estimator, opts ...Option) *Server {
	s := &Server{
		est:     est,
		limiter: rate.NewLimiter(rate.Inf, 0),
		metrics: metrics.Global(),
		log:     logging.New("server"),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("POST /v1/estimate", s.handleEstimate)
	s.mux.HandleFunc("GET /v1/compare", s.handleCompare)
	s.mux.HandleFunc("GET /v1/models", s.handleModels)
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.mux.HandleFunc("GET /metrics", s.metrics.Handler())
	return s
}

// Handler returns the root handler with request IDs, throttling and panic recovery.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestID(r.Context(), r.Header.Get("X-Request-ID"))
		w.Header().Set("X-Request-ID", logging.GetRequestID(ctx))
		r = r.WithContext(ctx)

		limited := !s.limiter.Allow()
		s.metrics.RecordRequest(limited)
		if limited {
			writeError(w, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		sw := &statusWriter{ResponseWriter: w}
		recovery := logging.NewRecoveryHandler("server")
		recovery.OnPanic = func(interface{}, string) { s.metrics.RecordPanic() }
		err := recovery.WrapError(func() error {
			s.mux.ServeHTTP(sw, r)
			return nil
		})
		// A started response can't be replaced; the client sees it cut short.
		if err != nil && !sw.wrote {
			writeError(w, http.StatusInternalServerError, errors.New("internal error"))
		}
	})
}

// statusWriter records whether the response has been started.
type statusWriter struct {
	http.ResponseWriter
	wrote bool
}

func (w *statusWriter) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	log := logging.FromContext(r.Context(), "server")

	var req estimate.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, errors.New("model is required"))
		return
	}

	res, err := s.est.Estimate(r.Context(), req)
	switch {
	case pricing.IsUnknownModel(err):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		log.Error("estimate_failed", map[string]interface{}{"model": req.Model}, err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	log.TimedEvent("estimate", start, map[string]interface{}{
		"model":        res.Model,
		"total_tokens": res.TotalTokens,
	})
	writeJSON(w, http.StatusOK, res)
}

// CompareResponse is the body of GET /v1/compare.
type CompareResponse struct {
	Base     string        `json:"base_currency"`
	Quote    string        `json:"quote_currency"`
	Rate     float64       `json:"rate"`
	Snapshot string        `json:"snapshot,omitempty"`
	Rows     []compare.Row `json:"rows"`
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	table := s.est.Table()
	rt := s.est.Rate(r.Context())
	writeJSON(w, http.StatusOK, CompareResponse{
		Base:     table.Currency(),
		Quote:    s.est.Quote(),
		Rate:     rt,
		Snapshot: table.Snapshot(),
		Rows:     compare.Build(table, rt),
	})
}

// ModelInfo describes one priced model.
type ModelInfo struct {
	pricing.Entry
	Encoding string `json:"encoding"`
}

// Models lists the table's entries with the encoding each one counts with.
func Models(table *pricing.Table) []ModelInfo {
	entries := table.Entries()
	out := make([]ModelInfo, len(entries))
	for i, e := range entries {
		name, ok := tokens.Lookup(e.ModelID)
		if !ok {
			name = tokens.DefaultEncoding
		}
		out[i] = ModelInfo{Entry: e, Encoding: name}
	}
	return out
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Models(s.est.Table()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
