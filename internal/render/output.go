// Package render provides output formatting for terminal and JSON consumption.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/atish-webtools/web-tools/internal/compare"
	"github.com/atish-webtools/web-tools/internal/estimate"
)

// Styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	maxStyle    = cellStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#ffcccc"))
	minStyle    = cellStyle.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("#ccffcc"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Renderer handles output formatting.
type Renderer struct {
	pretty bool
}

// New creates a new renderer.
func New(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// CurrencySymbol returns the display prefix for a currency code.
func CurrencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "USD":
		return "$"
	case "INR":
		return "₹"
	case "EUR":
		return "€"
	case "GBP":
		return "£"
	case "JPY":
		return "¥"
	default:
		return strings.ToUpper(code) + " "
	}
}

// Money formats an amount with the currency's symbol and fixed decimals.
func Money(code string, amount float64, decimals int) string {
	return fmt.Sprintf("%s%.*f", CurrencySymbol(code), decimals, amount)
}

// Rate formats the exchange rate header line.
func (r *Renderer) Rate(base, quote string, rate float64) string {
	if r.pretty {
		return fmt.Sprintf("%s %s → %s: %s\n",
			color.CyanString("Exchange rate"), base, quote,
			color.New(color.Bold).Sprint(Money(quote, rate, 2)))
	}
	return fmt.Sprintf("rate %s/%s=%.4f\n", base, quote, rate)
}

// Estimate formats one estimate result. Costs use 6 decimals in the base
// currency and 4 in the secondary currency.
func (r *Renderer) Estimate(res estimate.Result) string {
	base, quote := res.BaseCurrency, res.QuoteCurrency
	costBase := Money(base, res.CostBase, 6)
	costQuote := Money(quote, res.CostSecondary, 4)

	if !r.pretty {
		return fmt.Sprintf("model=%s input_tokens=%d output_tokens=%d total_tokens=%d cost_%s=%s cost_%s=%s\n",
			res.Model, res.InputTokens, res.OutputTokens, res.TotalTokens,
			strings.ToLower(base), costBase, strings.ToLower(quote), costQuote)
	}

	var sb strings.Builder
	sb.WriteString(color.CyanString("Your Token Usage & Cost") + " " + color.HiBlackString("(%s)", res.Model) + "\n")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Input Tokens", "Output Tokens", "Total Tokens",
			fmt.Sprintf("Cost (%s)", base), fmt.Sprintf("Cost (%s)", quote)).
		Row(fmt.Sprint(res.InputTokens), fmt.Sprint(res.OutputTokens), fmt.Sprint(res.TotalTokens),
			costBase, costQuote)

	sb.WriteString(t.String())
	sb.WriteString("\n")
	return sb.String()
}

// Comparison formats the per-million price comparison. Rows flagged as the
// maximum are highlighted red, minimum rows green; a row flagged both
// (all prices equal) shows as maximum.
func (r *Renderer) Comparison(rows []compare.Row, base, quote, snapshot string) string {
	var sb strings.Builder

	if !r.pretty {
		fmt.Fprintf(&sb, "%-18s %12s %12s %12s %14s\n", "model", "input_"+strings.ToLower(base),
			"output_"+strings.ToLower(base), "total_"+strings.ToLower(base), "total_"+strings.ToLower(quote))
		for _, row := range rows {
			fmt.Fprintf(&sb, "%-18s %12.2f %12.2f %12.2f %14.2f%s\n",
				row.ModelID, row.InputPrice, row.OutputPrice,
				row.TotalPriceBase, row.TotalPriceSecondary, flagSuffix(row))
		}
		return sb.String()
	}

	title := "Model Pricing Comparison (per 1M tokens)"
	if snapshot != "" {
		title += color.HiBlackString(" prices as of %s", snapshot)
	}
	sb.WriteString(color.New(color.FgCyan).Sprint(title) + "\n")

	data := make([][]string, len(rows))
	for i, row := range rows {
		data[i] = []string{
			row.ModelID,
			Money(base, row.InputPrice, 2),
			Money(base, row.OutputPrice, 2),
			Money(base, row.TotalPriceBase, 2),
			Money(quote, row.TotalPriceSecondary, 2),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(i, col int) lipgloss.Style {
			switch {
			case i == table.HeaderRow:
				return headerStyle
			case i < 0 || i >= len(rows):
				return cellStyle
			case rows[i].IsMax:
				return maxStyle
			case rows[i].IsMin:
				return minStyle
			default:
				return cellStyle
			}
		}).
		Headers("Model",
			fmt.Sprintf("Input Price (%s)", base),
			fmt.Sprintf("Output Price (%s)", base),
			fmt.Sprintf("Total Price (%s)", base),
			fmt.Sprintf("Total Price (%s)", quote)).
		Rows(data...)

	sb.WriteString(t.String())
	sb.WriteString("\n")
	cheapest, priciest := compare.Extremes(rows)
	if len(priciest) > 0 {
		sb.WriteString(color.RedString("■ most expensive: %s", modelIDs(priciest)) + "  " +
			color.GreenString("■ cheapest: %s", modelIDs(cheapest)) + "\n")
	}
	return sb.String()
}

func modelIDs(rows []compare.Row) string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ModelID
	}
	return strings.Join(ids, ", ")
}

func flagSuffix(row compare.Row) string {
	switch {
	case row.IsMax && row.IsMin:
		return "  min,max"
	case row.IsMax:
		return "  max"
	case row.IsMin:
		return "  min"
	default:
		return ""
	}
}
