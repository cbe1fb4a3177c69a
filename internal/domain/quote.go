package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteSource tags which resolution tier produced a price.
type QuoteSource string

const (
	SourceSnapshotExact    QuoteSource = "snapshot"
	SourceTargetedBatch    QuoteSource = "targeted"
	SourceLiveQuoteDecimal QuoteSource = "live-dec"
	SourceLiveQuoteHex     QuoteSource = "live-hex"
	SourceEmbeddedFallback QuoteSource = "embedded"
)

// PriceQuote is a resolved price for one position. Price is never negative;
// SourceEmbeddedFallback means no live tier answered.
type PriceQuote struct {
	Price  decimal.Decimal
	Source QuoteSource
	AsOf   time.Time
}

// PositionValuation is one position with its resolved price and derived
// per-position metrics.
type PositionValuation struct {
	Position     Position
	Quote        PriceQuote
	Invested     decimal.Decimal // size * avg entry price
	CurrentValue decimal.Decimal // size * resolved price
	PnLAbsolute  decimal.Decimal
	PnLPercent   decimal.Decimal // 0 when avg entry price is 0
}

// PortfolioMetrics aggregates eligible positions. Recomputed on every
// valuation pass, never cached.
type PortfolioMetrics struct {
	TotalInvested     decimal.Decimal
	TotalCurrentValue decimal.Decimal
	TotalPnLAbsolute  decimal.Decimal
	TotalPnLPercent   decimal.Decimal
	PositionCount     int
}
