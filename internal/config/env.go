// Package config provides centralized configuration management.
// Only cmd/tokest reads it; core packages take explicit arguments.
package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Env holds all tokest environment variables.
type Env struct {
	// Model is the model preselected for estimates (TOKEST_MODEL)
	Model string

	// BaseCurrency is the pricing currency (TOKEST_BASE_CURRENCY)
	BaseCurrency string

	// QuoteCurrency is the secondary display currency (TOKEST_QUOTE_CURRENCY)
	QuoteCurrency string

	// RateURL is the rate service URL template (TOKEST_RATE_URL)
	RateURL string

	// RateAccessKey is sent as access_key to the rate service (TOKEST_RATE_ACCESS_KEY)
	RateAccessKey string

	// RateTimeout bounds the rate request (TOKEST_RATE_TIMEOUT)
	RateTimeout time.Duration

	// FallbackRate is used when the rate lookup fails (TOKEST_FALLBACK_RATE)
	FallbackRate float64

	// PricingFile replaces the built-in price list (TOKEST_PRICING_FILE)
	PricingFile string

	// Addr is the HTTP listen address for serve (TOKEST_ADDR)
	Addr string

	// ServeRPS and ServeBurst configure the serve limiter (TOKEST_SERVE_RPS, TOKEST_SERVE_BURST)
	ServeRPS   float64
	ServeBurst int

	// LogLevel is the minimum log level (TOKEST_LOG_LEVEL)
	LogLevel string
}

// Defaults
const (
	DefaultModel         = "gpt-4o"
	DefaultBaseCurrency  = "USD"
	DefaultQuoteCurrency = "INR"
	DefaultRateURL       = "https://api.exchangerate.host/latest?base={base}&symbols={quote}"
	DefaultRateTimeout   = 5 * time.Second
	DefaultFallbackRate  = 86.0
	DefaultAddr          = ":8080"
	DefaultServeRPS      = 20.0
	DefaultServeBurst    = 40
	DefaultLogLevel      = "warn"
)

var (
	env     *Env
	envOnce sync.Once
)

// Load returns the singleton environment configuration.
// Thread-safe, loads once on first call.
func Load() *Env {
	envOnce.Do(func() {
		env = &Env{
			Model:         getEnvDefault("TOKEST_MODEL", DefaultModel),
			BaseCurrency:  strings.ToUpper(getEnvDefault("TOKEST_BASE_CURRENCY", DefaultBaseCurrency)),
			QuoteCurrency: strings.ToUpper(getEnvDefault("TOKEST_QUOTE_CURRENCY", DefaultQuoteCurrency)),
			RateURL:       getEnvDefault("TOKEST_RATE_URL", DefaultRateURL),
			RateAccessKey: os.Getenv("TOKEST_RATE_ACCESS_KEY"),
			RateTimeout:   getEnvDuration("TOKEST_RATE_TIMEOUT", DefaultRateTimeout),
			FallbackRate:  getEnvPositiveFloat("TOKEST_FALLBACK_RATE", DefaultFallbackRate),
			PricingFile:   os.Getenv("TOKEST_PRICING_FILE"),
			Addr:          getEnvDefault("TOKEST_ADDR", DefaultAddr),
			ServeRPS:      getEnvPositiveFloat("TOKEST_SERVE_RPS", DefaultServeRPS),
			ServeBurst:    getEnvPositiveInt("TOKEST_SERVE_BURST", DefaultServeBurst),
			LogLevel:      getEnvDefault("TOKEST_LOG_LEVEL", DefaultLogLevel),
		}
	})
	return env
}

// Reset resets the cached environment (for testing).
func Reset() {
	envOnce = sync.Once{}
	env = nil
}

func getEnvDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func getEnvPositiveFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(key)), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getEnvPositiveInt(key string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
