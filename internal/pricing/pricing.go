// Package pricing holds the per-model price list used for cost estimates.
// Prices are denominated in the table's base currency per one million tokens.
package pricing

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// DefaultCurrency is the base currency assumed when a price list omits one.
const DefaultCurrency = "USD"

//go:embed pricing.toml
var embedded []byte

// Entry is the published price of one model.
type Entry struct {
	ModelID          string  `toml:"id" json:"model"`
	InputPerMillion  float64 `toml:"input" json:"input_per_million"`
	OutputPerMillion float64 `toml:"output" json:"output_per_million"`
}

// Total returns the combined input and output price per million tokens.
func (e Entry) Total() float64 {
	return e.InputPerMillion + e.OutputPerMillion
}

// Table is an ordered, read-only price list keyed by model id.
type Table struct {
	snapshot string
	currency string
	entries  []Entry
	index    map[string]int
}

type document struct {
	Snapshot string  `toml:"snapshot"`
	Currency string  `toml:"currency"`
	Models   []Entry `toml:"model"`
}

var (
	defaultTable *Table
	defaultOnce  sync.Once
)

// Default returns the compiled-in price list.
func Default() *Table {
	defaultOnce.Do(func() {
		t, err := Parse(embedded)
		if err != nil {
			panic(fmt.Sprintf("pricing: embedded price list: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Parse decodes a TOML price list. Entry order is preserved.
func Parse(data []byte) (*Table, error) {
	var doc document
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, invalid("unknown keys: %s", strings.Join(keys, ", "))
	}
	return NewTable(doc.Snapshot, doc.Currency, doc.Models...)
}

// LoadFile reads a price list from disk.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// NewTable builds a table from entries in the given order.
func NewTable(snapshot, currency string, entries ...Entry) (*Table, error) {
	if len(entries) == 0 {
		return nil, invalid("no models")
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	t := &Table{
		snapshot: snapshot,
		currency: strings.ToUpper(currency),
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		switch {
		case e.ModelID == "":
			return nil, invalid("entry %d has no model id", len(t.entries))
		case !validPrice(e.InputPerMillion) || !validPrice(e.OutputPerMillion):
			return nil, invalid("%s has a negative or non-finite price", e.ModelID)
		}
		if _, dup := t.index[e.ModelID]; dup {
			return nil, invalid("duplicate model %s", e.ModelID)
		}
		t.index[e.ModelID] = len(t.entries)
		t.entries = append(t.entries, e)
	}
	return t, nil
}

func validPrice(p float64) bool {
	return p >= 0 && !math.IsInf(p, 0)
}

// Lookup returns the entry for modelID.
func (t *Table) Lookup(modelID string) (Entry, error) {
	i, ok := t.index[modelID]
	if !ok {
		return Entry{}, &UnknownModelError{ModelID: modelID}
	}
	return t.entries[i], nil
}

// Has reports whether modelID is priced.
func (t *Table) Has(modelID string) bool {
	_, ok := t.index[modelID]
	return ok
}

// Entries returns a copy of the entries in table order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Models returns the model ids in table order.
func (t *Table) Models() []string {
	ids := make([]string, len(t.entries))
	for i, e := range t.entries {
		ids[i] = e.ModelID
	}
	return ids
}

// Len returns the number of models.
func (t *Table) Len() int { return len(t.entries) }

// Snapshot returns the date the prices were taken, e.g. "2025-07".
func (t *Table) Snapshot() string { return t.snapshot }

// Currency returns the base currency code.
func (t *Table) Currency() string { return t.currency }
