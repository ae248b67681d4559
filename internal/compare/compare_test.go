package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atish-webtools/web-tools/internal/pricing"
)

func table(t *testing.T, entries ...pricing.Entry) *pricing.Table {
	t.Helper()
	tbl, err := pricing.NewTable("", "USD", entries...)
	require.NoError(t, err)
	return tbl
}

func models(rows []Row) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ModelID
	}
	return ids
}

func TestBuildDefaultTable(t *testing.T) {
	tbl := pricing.Default()
	rows := Build(tbl, 86.0)

	require.Len(t, rows, tbl.Len())
	assert.Equal(t, tbl.Models(), models(rows))

	cheapest, priciest := Extremes(rows)
	assert.Equal(t, []string{"gpt-4.5-preview"}, models(priciest))
	assert.Equal(t, []string{"gpt-4o-mini"}, models(cheapest))

	for _, r := range rows {
		assert.Equal(t, r.InputPrice+r.OutputPrice, r.TotalPriceBase)
		assert.InDelta(t, r.TotalPriceBase*86.0, r.TotalPriceSecondary, 1e-9)
		assert.False(t, r.IsMin && r.IsMax, "%s flagged both", r.ModelID)
	}

	top := rows[4]
	assert.Equal(t, "gpt-4.5-preview", top.ModelID)
	assert.Equal(t, 225.0, top.TotalPriceBase)
	assert.InDelta(t, 19350.0, top.TotalPriceSecondary, 1e-9)
}

func TestBuildTies(t *testing.T) {
	rows := Build(table(t,
		pricing.Entry{ModelID: "a", InputPerMillion: 1, OutputPerMillion: 1},
		pricing.Entry{ModelID: "b", InputPerMillion: 5, OutputPerMillion: 5},
		pricing.Entry{ModelID: "c", InputPerMillion: 2, OutputPerMillion: 0},
		pricing.Entry{ModelID: "d", InputPerMillion: 3, OutputPerMillion: 7},
		pricing.Entry{ModelID: "e", InputPerMillion: 3, OutputPerMillion: 3},
	), 1)

	cheapest, priciest := Extremes(rows)
	assert.Equal(t, []string{"a", "c"}, models(cheapest))
	assert.Equal(t, []string{"b", "d"}, models(priciest))
	assert.False(t, rows[4].IsMin || rows[4].IsMax)
}

func TestBuildAllEqual(t *testing.T) {
	rows := Build(table(t,
		pricing.Entry{ModelID: "a", InputPerMillion: 1, OutputPerMillion: 2},
		pricing.Entry{ModelID: "b", InputPerMillion: 2, OutputPerMillion: 1},
	), 1)

	for _, r := range rows {
		assert.True(t, r.IsMin, r.ModelID)
		assert.True(t, r.IsMax, r.ModelID)
	}
}

func TestBuildSingleEntry(t *testing.T) {
	rows := Build(table(t, pricing.Entry{ModelID: "only", InputPerMillion: 0.15, OutputPerMillion: 0.075}), 86)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsMin)
	assert.True(t, rows[0].IsMax)
	assert.InDelta(t, 0.225*86, rows[0].TotalPriceSecondary, 1e-9)
}

func TestExtremesEmpty(t *testing.T) {
	cheapest, priciest := Extremes(nil)
	assert.Empty(t, cheapest)
	assert.Empty(t, priciest)
}
