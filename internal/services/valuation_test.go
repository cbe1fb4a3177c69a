package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polyfolio/polyfolio/internal/domain"
)

// fixedResolver answers every position from a static asset-id price map,
// falling back to the embedded price.
type fixedResolver struct {
	prices map[string]decimal.Decimal
}

func (r *fixedResolver) Resolve(pos domain.Position) domain.PriceQuote {
	if price, ok := r.prices[pos.AssetID]; ok {
		return domain.PriceQuote{Price: price, Source: domain.SourceLiveQuoteDecimal, AsOf: time.Now()}
	}
	return domain.PriceQuote{Price: pos.EmbeddedCurrentPrice, Source: domain.SourceEmbeddedFallback, AsOf: time.Now()}
}

func TestValuateSinglePosition(t *testing.T) {
	positions := []domain.Position{{
		AssetID:       "123",
		Size:          d("10"),
		AvgEntryPrice: d("0.40"),
	}}
	resolver := &fixedResolver{prices: map[string]decimal.Decimal{"123": d("0.55")}}

	valuations, metrics := Valuate(positions, resolver)
	require.Len(t, valuations, 1)

	v := valuations[0]
	assert.True(t, v.Invested.Equal(d("4.00")), "invested = %s", v.Invested)
	assert.True(t, v.CurrentValue.Equal(d("5.50")), "current value = %s", v.CurrentValue)
	assert.True(t, v.PnLAbsolute.Equal(d("1.50")), "pnl = %s", v.PnLAbsolute)
	assert.True(t, v.PnLPercent.Equal(d("37.5")), "pnl%% = %s", v.PnLPercent)
	assert.Equal(t, domain.SourceLiveQuoteDecimal, v.Quote.Source)

	assert.Equal(t, 1, metrics.PositionCount)
	assert.True(t, metrics.TotalCurrentValue.Equal(d("5.50")))
	assert.True(t, metrics.TotalPnLAbsolute.Equal(d("1.50")))
	assert.True(t, metrics.TotalPnLPercent.Equal(d("37.5")))
}

func TestValuateExcludesDust(t *testing.T) {
	positions := []domain.Position{
		{AssetID: "1", Size: d("0.05"), AvgEntryPrice: d("0.50")},
		{AssetID: "2", Size: d("5"), AvgEntryPrice: d("0.50")},
	}
	resolver := &fixedResolver{prices: map[string]decimal.Decimal{
		"1": d("0.90"), "2": d("0.60"),
	}}

	valuations, metrics := Valuate(positions, resolver)
	require.Len(t, valuations, 1)
	assert.Equal(t, "2", valuations[0].Position.AssetID)
	assert.Equal(t, 1, metrics.PositionCount)
	// Dust must not leak into the totals either.
	assert.True(t, metrics.TotalInvested.Equal(d("2.50")), "invested = %s", metrics.TotalInvested)
}

func TestValuateTotalsAreExactSums(t *testing.T) {
	// Values chosen to expose float drift: 0.1 + 0.2 style sums must come
	// out exact through the decimal path.
	positions := []domain.Position{
		{AssetID: "1", Size: d("1"), AvgEntryPrice: d("0.1")},
		{AssetID: "2", Size: d("1"), AvgEntryPrice: d("0.2")},
		{AssetID: "3", Size: d("1"), AvgEntryPrice: d("0.3")},
	}
	resolver := &fixedResolver{prices: map[string]decimal.Decimal{
		"1": d("0.1"), "2": d("0.2"), "3": d("0.3"),
	}}

	valuations, metrics := Valuate(positions, resolver)
	require.Len(t, valuations, 3)

	var invested, current decimal.Decimal
	for _, v := range valuations {
		invested = invested.Add(v.Invested)
		current = current.Add(v.CurrentValue)
	}
	assert.True(t, metrics.TotalInvested.Equal(invested), "total invested %s != sum %s", metrics.TotalInvested, invested)
	assert.True(t, metrics.TotalCurrentValue.Equal(current))
	assert.True(t, metrics.TotalInvested.Equal(d("0.6")))
	assert.True(t, metrics.TotalPnLAbsolute.IsZero())
	assert.True(t, metrics.TotalPnLPercent.IsZero())
}

func TestValuateSortsByCurrentValueDescending(t *testing.T) {
	positions := []domain.Position{
		{AssetID: "small", Size: d("1"), AvgEntryPrice: d("0.10")},
		{AssetID: "tie-first", Size: d("10"), AvgEntryPrice: d("0.50")},
		{AssetID: "big", Size: d("100"), AvgEntryPrice: d("0.50")},
		{AssetID: "tie-second", Size: d("10"), AvgEntryPrice: d("0.50")},
	}
	resolver := &fixedResolver{prices: map[string]decimal.Decimal{
		"small": d("0.10"), "tie-first": d("0.50"), "big": d("0.50"), "tie-second": d("0.50"),
	}}

	valuations, _ := Valuate(positions, resolver)
	require.Len(t, valuations, 4)

	got := make([]string, len(valuations))
	for i, v := range valuations {
		got[i] = v.Position.AssetID
	}
	// Ties keep input order.
	assert.Equal(t, []string{"big", "tie-first", "tie-second", "small"}, got)
}

func TestValuateZeroEntryPrice(t *testing.T) {
	// Free shares (airdrops, resolved claims) have no meaningful PnL
	// percentage; it stays zero instead of dividing by zero.
	positions := []domain.Position{
		{AssetID: "free", Size: d("10"), AvgEntryPrice: decimal.Zero},
	}
	resolver := &fixedResolver{prices: map[string]decimal.Decimal{"free": d("0.25")}}

	valuations, metrics := Valuate(positions, resolver)
	require.Len(t, valuations, 1)
	assert.True(t, valuations[0].PnLPercent.IsZero())
	assert.True(t, valuations[0].CurrentValue.Equal(d("2.5")))
	assert.True(t, metrics.TotalPnLPercent.IsZero(), "zero invested total must not divide")
}

func TestValuateEmptyInput(t *testing.T) {
	valuations, metrics := Valuate(nil, &fixedResolver{})
	assert.Empty(t, valuations)
	assert.Equal(t, 0, metrics.PositionCount)
	assert.True(t, metrics.TotalInvested.IsZero())
	assert.True(t, metrics.TotalCurrentValue.IsZero())
}
