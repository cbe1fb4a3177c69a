package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
)

// Resolver maps an arbitrary position identifier to a current price by
// walking a fixed tier order and stopping at the first hit. It is built per
// valuation pass over captured cache views, so every position in the pass
// reads the same snapshot and quote generations and Resolve is
// deterministic for the life of the pass.
//
// Tier order, cheapest and freshest-for-top-markets first:
//
//  1. snapshot: bulk listing price by slug or market id
//  2. targeted: per-pass batch fetch for markets outside the snapshot
//  3. live-dec: order-book quote by decimal token id
//  4. live-hex: order-book quote by hex token id
//  5. embedded: the position's own stale upstream price, never fails
//
// A price of exactly zero counts as "no match" at every live tier: upstream
// payloads encode absent fields as zero, and the two cases cannot be told
// apart.
type Resolver struct {
	snapshot *SnapshotView
	quotes   *QuoteView
	batch    map[string][]decimal.Decimal
	asOf     time.Time
	tiers    []tier
}

type tier struct {
	source domain.QuoteSource
	lookup func(keys domain.NormalizedKeys, pos *domain.Position) decimal.Decimal
}

// NewResolver builds a resolver for one valuation pass. batch holds the
// targeted prefetch results for this pass, keyed by market id; nil is fine
// when nothing needed prefetching.
func NewResolver(snapshot *SnapshotView, quotes *QuoteView, batch map[string][]decimal.Decimal) *Resolver {
	r := &Resolver{
		snapshot: snapshot,
		quotes:   quotes,
		batch:    batch,
		asOf:     time.Now(),
	}
	r.tiers = []tier{
		{domain.SourceSnapshotExact, r.fromSnapshot},
		{domain.SourceTargetedBatch, r.fromBatch},
		{domain.SourceLiveQuoteDecimal, r.fromLiveDecimal},
		{domain.SourceLiveQuoteHex, r.fromLiveHex},
	}
	return r
}

// Resolve returns a price quote for the position. It always succeeds: when
// every live tier misses, the position's embedded upstream price comes back
// tagged SourceEmbeddedFallback, zero if even that is absent. The returned
// price is never negative.
func (r *Resolver) Resolve(pos domain.Position) domain.PriceQuote {
	keys := domain.Normalize(pos)

	if pos.HasIdentifier() {
		for _, t := range r.tiers {
			if price := t.lookup(keys, &pos); price.IsPositive() {
				return domain.PriceQuote{Price: price, Source: t.source, AsOf: r.asOf}
			}
		}
	}

	embedded := pos.EmbeddedCurrentPrice
	if embedded.IsNegative() {
		embedded = decimal.Zero
	}
	return domain.PriceQuote{Price: embedded, Source: domain.SourceEmbeddedFallback, AsOf: r.asOf}
}

func (r *Resolver) fromSnapshot(keys domain.NormalizedKeys, pos *domain.Position) decimal.Decimal {
	if keys.Slug != "" {
		if price, ok := r.snapshot.PriceByMarket(keys.Slug, pos.OutcomeIndex); ok {
			return price
		}
	}
	if keys.MarketID != "" {
		if price, ok := r.snapshot.PriceByMarket(keys.MarketID, pos.OutcomeIndex); ok {
			return price
		}
	}
	return decimal.Zero
}

func (r *Resolver) fromBatch(keys domain.NormalizedKeys, pos *domain.Position) decimal.Decimal {
	if r.batch == nil || keys.MarketID == "" {
		return decimal.Zero
	}
	prices, ok := r.batch[keys.MarketID]
	if !ok || pos.OutcomeIndex < 0 || pos.OutcomeIndex >= len(prices) {
		return decimal.Zero
	}
	return prices[pos.OutcomeIndex]
}

func (r *Resolver) fromLiveDecimal(keys domain.NormalizedKeys, _ *domain.Position) decimal.Decimal {
	price, _ := r.quotes.PriceForAsset(keys.AssetDecimal)
	return price
}

func (r *Resolver) fromLiveHex(keys domain.NormalizedKeys, _ *domain.Position) decimal.Decimal {
	price, _ := r.quotes.PriceForAsset(keys.AssetHex)
	return price
}

// NeedsTargetedFetch reports whether the position would miss the snapshot
// tier and carries a market id the targeted fetcher can use. The portfolio
// pass collects these up front and issues one grouped fetch for all of them.
func (r *Resolver) NeedsTargetedFetch(pos domain.Position) (string, bool) {
	keys := domain.Normalize(pos)
	if keys.MarketID == "" {
		return "", false
	}
	if price := r.fromSnapshot(keys, &pos); price.IsPositive() {
		return "", false
	}
	return keys.MarketID, true
}
