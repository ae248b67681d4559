// Package tokens provides token counting using tiktoken-go.
// Each model id selects its own encoding; unmapped ids use cl100k_base.
package tokens

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/atish-webtools/web-tools/internal/logging"
)

// DefaultEncoding is used for model ids tiktoken has no mapping for.
const DefaultEncoding = "cl100k_base"

// ErrEncodingUnavailable is returned when an encoding's tables cannot be loaded.
var ErrEncodingUnavailable = errors.New("encoding unavailable")

// Encoder turns text into token ids. *tiktoken.Tiktoken satisfies it.
type Encoder interface {
	Encode(text string, allowedSpecial []string, disallowedSpecial []string) []int
}

// Loader returns the encoder for an encoding name.
type Loader func(name string) (Encoder, error)

// Special-token markers in user text count as one token each, the way the
// model APIs bill them, rather than being split into ordinary text.
var allowAllSpecial = []string{"all"}

// Model ids newer than tiktoken-go's tables. Checked after them.
var (
	extraModels = map[string]string{
		"o1":      "o200k_base",
		"o3":      "o200k_base",
		"o4-mini": "o200k_base",
	}
	extraPrefixes = map[string]string{
		"o1-":      "o200k_base",
		"o3-":      "o200k_base",
		"o4-mini-": "o200k_base",
	}
)

// Counter counts tokens per model, caching loaded encodings.
type Counter struct {
	mu       sync.Mutex
	load     Loader
	fallback string
	encoders map[string]Encoder
}

// Option configures a Counter.
type Option func(*Counter)

// WithLoader replaces the tiktoken loader.
func WithLoader(l Loader) Option {
	return func(c *Counter) {
		c.load = l
	}
}

// NewCounter creates a Counter backed by tiktoken-go.
func NewCounter(opts ...Option) *Counter {
	c := &Counter{
		load:     tiktokenLoader,
		fallback: DefaultEncoding,
		encoders: make(map[string]Encoder),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func tiktokenLoader(name string) (Encoder, error) {
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	return enc, nil
}

// Lookup returns the encoding mapped to modelID, consulting tiktoken's
// tables first. Exact ids win over prefixes; among prefixes the longest wins.
func Lookup(modelID string) (string, bool) {
	if name, ok := lookup(modelID, tiktoken.MODEL_TO_ENCODING, tiktoken.MODEL_PREFIX_TO_ENCODING); ok {
		return name, true
	}
	return lookup(modelID, extraModels, extraPrefixes)
}

func lookup(modelID string, exact, prefixes map[string]string) (string, bool) {
	if name, ok := exact[modelID]; ok {
		return name, true
	}
	var best, name string
	for prefix, enc := range prefixes {
		if strings.HasPrefix(modelID, prefix) && len(prefix) > len(best) {
			best, name = prefix, enc
		}
	}
	return name, best != ""
}

// EncodingFor returns the encoding the counter uses for modelID and whether
// it came from a model mapping rather than the default.
func (c *Counter) EncodingFor(modelID string) (string, bool) {
	if name, ok := Lookup(modelID); ok {
		return name, true
	}
	return c.fallback, false
}

// Count returns the number of tokens modelID's encoding produces for text.
func (c *Counter) Count(text, modelID string) (int, error) {
	if text == "" {
		return 0, nil
	}
	name, _ := c.EncodingFor(modelID)
	enc, err := c.encoder(name)
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, allowAllSpecial, nil)), nil
}

func (c *Counter) encoder(name string) (Encoder, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encoders[name]; ok {
		return enc, nil
	}
	enc, err := c.load(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncodingUnavailable, name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("%w: %s: loader returned nil", ErrEncodingUnavailable, name)
	}
	c.encoders[name] = enc
	return enc, nil
}

// Lenient counts with a Counter and estimates with Rough when an encoding
// cannot be loaded (offline, no BPE cache), so counting never fails.
type Lenient struct {
	counter *Counter
	log     *logging.Logger
	warned  sync.Once
}

// NewLenient wraps c.
func NewLenient(c *Counter) *Lenient {
	return &Lenient{counter: c, log: logging.New("tokens")}
}

// Count returns the exact count, or the Rough estimate when the encoding is unavailable.
func (l *Lenient) Count(text, modelID string) (int, error) {
	n, err := l.counter.Count(text, modelID)
	if errors.Is(err, ErrEncodingUnavailable) {
		l.warned.Do(func() {
			l.log.Warn("rough_estimate", map[string]interface{}{"model": modelID}, err)
		})
		return Rough(text), nil
	}
	return n, err
}

// Rough estimates tokens at about 4 bytes per token.
func Rough(text string) int {
	return (len(text) + 3) / 4
}
