package domain

import "github.com/shopspring/decimal"

// DustThreshold is the minimum position size counted toward valuation.
// Polymarket leaves sub-0.1 share remainders behind after partial fills and
// redemptions; they are noise, not holdings.
var DustThreshold = decimal.RequireFromString("0.1")

// Position is one held outcome share for one user, as reported by the
// positions source. Identifier coverage is inconsistent upstream: a position
// may carry any non-empty subset of {MarketID, MarketSlug, AssetID}.
type Position struct {
	MarketID      string
	MarketSlug    string
	AssetID       string // decimal-string form of the on-chain token id
	Title         string
	Outcome       string // outcome label, e.g. "Yes"
	OutcomeIndex  int
	Size          decimal.Decimal
	AvgEntryPrice decimal.Decimal
	// EmbeddedCurrentPrice is upstream's own (possibly stale) price estimate,
	// kept as the terminal resolution fallback.
	EmbeddedCurrentPrice decimal.Decimal
}

// Eligible reports whether the position is large enough to count toward
// portfolio valuation.
func (p *Position) Eligible() bool {
	return p.Size.GreaterThanOrEqual(DustThreshold)
}

// HasIdentifier reports whether any usable identifier is present. Positions
// without one skip every live resolution tier and fall straight to the
// embedded price.
func (p *Position) HasIdentifier() bool {
	return p.MarketID != "" || p.MarketSlug != "" || p.AssetID != ""
}

// SideLabel renders the held side for display: index 0 is Yes, 1 is No.
// Positions that carry an explicit outcome label keep it.
func (p *Position) SideLabel() string {
	if p.Outcome != "" {
		return p.Outcome
	}
	if p.OutcomeIndex == 0 {
		return "Yes"
	}
	return "No"
}
