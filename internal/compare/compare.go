// Package compare builds the per-million price comparison across all models.
package compare

import (
	"github.com/atish-webtools/web-tools/internal/pricing"
)

// Row is one model's combined price per million tokens.
//
// TotalPriceBase is input + output price, an unweighted sum rather than a
// blended cost. Every row equal to the cheapest total has IsMin set and
// every row equal to the most expensive has IsMax set, so ties flag
// several rows and a table of equal prices flags every row with both.
type Row struct {
	ModelID             string  `json:"model"`
	InputPrice          float64 `json:"input_price"`
	OutputPrice         float64 `json:"output_price"`
	TotalPriceBase      float64 `json:"total_price_base"`
	TotalPriceSecondary float64 `json:"total_price_secondary"`
	IsMin               bool    `json:"is_min"`
	IsMax               bool    `json:"is_max"`
}

// Build returns one row per table entry, in table order.
func Build(table *pricing.Table, rate float64) []Row {
	entries := table.Entries()
	rows := make([]Row, len(entries))
	if len(entries) == 0 {
		return rows
	}

	lo, hi := entries[0].Total(), entries[0].Total()
	for i, e := range entries {
		total := e.Total()
		rows[i] = Row{
			ModelID:             e.ModelID,
			InputPrice:          e.InputPerMillion,
			OutputPrice:         e.OutputPerMillion,
			TotalPriceBase:      total,
			TotalPriceSecondary: total * rate,
		}
		lo = min(lo, total)
		hi = max(hi, total)
	}

	for i := range rows {
		rows[i].IsMin = rows[i].TotalPriceBase == lo
		rows[i].IsMax = rows[i].TotalPriceBase == hi
	}
	return rows
}

// Extremes returns the flagged cheapest and most expensive rows.
func Extremes(rows []Row) (cheapest, priciest []Row) {
	for _, r := range rows {
		if r.IsMin {
			cheapest = append(cheapest, r)
		}
		if r.IsMax {
			priciest = append(priciest, r)
		}
	}
	return cheapest, priciest
}
