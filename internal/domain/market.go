package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Market is one tradable question from the bulk event listing.
// A snapshot refresh builds a fresh set of Markets and swaps them in whole;
// a Market is never mutated after it is published.
type Market struct {
	ID            string
	Slug          string
	Title         string
	EndTime       *time.Time
	Volume        decimal.Decimal
	Liquidity     decimal.Decimal
	OutcomePrices []decimal.Decimal
	Tags          []string
	HasRewards    bool
}

// OutcomePrice returns the price for the given outcome index, or zero when
// the index is out of range. Index 0 is the affirmative ("Yes") outcome;
// every upstream source we consume orders outcomes this way, and the whole
// resolution chain relies on it.
func (m *Market) OutcomePrice(outcomeIndex int) decimal.Decimal {
	if m == nil || outcomeIndex < 0 || outcomeIndex >= len(m.OutcomePrices) {
		return decimal.Zero
	}
	return m.OutcomePrices[outcomeIndex]
}

// HoursToEnd returns the hours remaining until the market ends, or -1 when
// no end time is known.
func (m *Market) HoursToEnd(now time.Time) float64 {
	if m.EndTime == nil {
		return -1
	}
	return m.EndTime.Sub(now).Hours()
}

// URL returns the public event page for the market.
func (m *Market) URL() string {
	return "https://polymarket.com/event/" + m.Slug
}
