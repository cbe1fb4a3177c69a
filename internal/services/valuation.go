package services

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// PriceResolver resolves one position to a quote. Satisfied by *Resolver;
// tests substitute fixed-price fakes.
type PriceResolver interface {
	Resolve(pos domain.Position) domain.PriceQuote
}

// Valuate combines raw positions with resolved prices into per-position and
// portfolio metrics. Positions below the dust threshold are excluded
// entirely. Output is sorted by current value descending, ties keeping
// input order.
func Valuate(positions []domain.Position, resolver PriceResolver) ([]domain.PositionValuation, domain.PortfolioMetrics) {
	valuations := make([]domain.PositionValuation, 0, len(positions))
	metrics := domain.PortfolioMetrics{
		TotalInvested:     decimal.Zero,
		TotalCurrentValue: decimal.Zero,
		TotalPnLAbsolute:  decimal.Zero,
		TotalPnLPercent:   decimal.Zero,
	}

	for _, pos := range positions {
		if !pos.Eligible() {
			continue
		}

		quote := resolver.Resolve(pos)
		invested := pos.Size.Mul(pos.AvgEntryPrice)
		current := pos.Size.Mul(quote.Price)

		pnlPercent := decimal.Zero
		if pos.AvgEntryPrice.IsPositive() {
			pnlPercent = quote.Price.Sub(pos.AvgEntryPrice).
				Div(pos.AvgEntryPrice).
				Mul(hundred)
		}

		valuations = append(valuations, domain.PositionValuation{
			Position:     pos,
			Quote:        quote,
			Invested:     invested,
			CurrentValue: current,
			PnLAbsolute:  current.Sub(invested),
			PnLPercent:   pnlPercent,
		})

		metrics.TotalInvested = metrics.TotalInvested.Add(invested)
		metrics.TotalCurrentValue = metrics.TotalCurrentValue.Add(current)
	}

	metrics.TotalPnLAbsolute = metrics.TotalCurrentValue.Sub(metrics.TotalInvested)
	if metrics.TotalInvested.IsPositive() {
		metrics.TotalPnLPercent = metrics.TotalPnLAbsolute.
			Div(metrics.TotalInvested).
			Mul(hundred)
	}
	metrics.PositionCount = len(valuations)

	sort.SliceStable(valuations, func(i, j int) bool {
		return valuations[i].CurrentValue.GreaterThan(valuations[j].CurrentValue)
	})

	return valuations, metrics
}
