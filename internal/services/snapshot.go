package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
	"github.com/polyfolio/polyfolio/pkg/cache"
	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

// EventLister is the slice of the API client the snapshot cache needs.
type EventLister interface {
	ListEvents(ctx context.Context, q api.EventQuery) ([]api.GammaEvent, error)
}

// marketIndex is one immutable snapshot generation: the listing in upstream
// order plus lookup maps built in the same pass.
type marketIndex struct {
	ordered []*domain.Market
	bySlug  map[string]*domain.Market
	byID    map[string]*domain.Market
}

// MarketSnapshot caches the bulk market listing behind a TTL. A refresh
// builds the full index aside and publishes it in one swap; on upstream
// failure the previous generation keeps serving.
type MarketSnapshot struct {
	api   EventLister
	limit int
	store *cache.Store[*marketIndex]

	// refreshMu serializes fetches so a thundering herd of stale readers
	// issues one upstream request, not one each.
	refreshMu sync.Mutex
}

// NewMarketSnapshot creates a snapshot cache over the given listing source.
func NewMarketSnapshot(lister EventLister, limit int, ttl time.Duration) *MarketSnapshot {
	if limit <= 0 {
		limit = 1000
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &MarketSnapshot{
		api:   lister,
		limit: limit,
		store: cache.NewStore[*marketIndex](ttl),
	}
}

// Refresh fetches the listing unless the current generation is still inside
// its TTL. Failures are soft: the error is advisory, the previous snapshot
// stays published, and no caller sees a partially built index.
func (s *MarketSnapshot) Refresh(ctx context.Context) error {
	if s.store.Fresh() {
		return nil
	}
	return s.ForceRefresh(ctx)
}

// ForceRefresh fetches the listing regardless of TTL.
func (s *MarketSnapshot) ForceRefresh(ctx context.Context) error {
	_, before := s.store.Current()

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another waiter may have published while this caller queued on the
	// lock; that generation is as forced as ours would be.
	if _, now := s.store.Current(); now.Seq != before.Seq {
		return nil
	}

	events, err := s.api.ListEvents(ctx, api.EventQuery{
		Limit:  s.limit,
		Active: true,
		Closed: false,
		Order:  "volume",
	})
	if err != nil {
		logger.Warnf("market snapshot refresh failed, serving previous generation: %v", err)
		return errors.Wrap(err, "refresh market snapshot")
	}

	s.store.Publish(buildIndex(events))
	logger.WithField("markets", len(events)).Debugf("market snapshot refreshed")
	return nil
}

// View returns an immutable handle on the current generation. A valuation
// pass captures one view up front so every position reads the same data even
// if a refresh lands mid-pass.
func (s *MarketSnapshot) View() *SnapshotView {
	idx, gen := s.store.Current()
	if idx == nil {
		idx = &marketIndex{
			bySlug: map[string]*domain.Market{},
			byID:   map[string]*domain.Market{},
		}
	}
	return &SnapshotView{idx: idx, gen: gen}
}

// Get returns up to limit markets passing the explorer filter, sorted by
// time-to-end ascending. It reads the current generation and never blocks on
// a refresh.
func (s *MarketSnapshot) Get(limit int, f ExplorerFilter) []ExplorerRow {
	return BuildExplorer(s.View(), limit, f, time.Now())
}

// buildIndex converts the raw listing into one index generation. Markets
// whose outcomePrices fail to parse get [0, 0] so one bad payload row cannot
// sink the whole refresh.
func buildIndex(events []api.GammaEvent) *marketIndex {
	idx := &marketIndex{
		ordered: make([]*domain.Market, 0, len(events)),
		bySlug:  make(map[string]*domain.Market, len(events)),
		byID:    make(map[string]*domain.Market, len(events)),
	}

	for _, ev := range events {
		if ev.Slug == "" || len(ev.Markets) == 0 {
			continue
		}
		primary := ev.Markets[0]

		prices, err := api.ParseOutcomePrices(primary.OutcomePrices)
		if err != nil || len(prices) == 0 {
			prices = []decimal.Decimal{decimal.Zero, decimal.Zero}
		}

		m := &domain.Market{
			ID:            primary.ID,
			Slug:          ev.Slug,
			Title:         ev.Title,
			Volume:        ev.Volume.Decimal(),
			Liquidity:     primary.Liquidity.Decimal(),
			OutcomePrices: prices,
			Tags: lo.FilterMap(ev.Tags, func(t api.GammaTag, _ int) (string, bool) {
				return t.Label, t.Label != ""
			}),
			HasRewards: len(primary.ClobRewards) > 0,
		}
		if ev.EndDate != "" {
			if end, err := time.Parse(time.RFC3339, ev.EndDate); err == nil {
				m.EndTime = &end
			}
		}

		idx.ordered = append(idx.ordered, m)
		idx.bySlug[ev.Slug] = m
		if primary.ID != "" {
			idx.byID[primary.ID] = m
		}
	}

	return idx
}

// SnapshotView is a read-only handle on one snapshot generation.
type SnapshotView struct {
	idx *marketIndex
	gen cache.Generation
}

// Markets returns the snapshot in upstream (volume) order.
func (v *SnapshotView) Markets() []*domain.Market {
	return v.idx.ordered
}

// Lookup finds a market by market id or slug.
func (v *SnapshotView) Lookup(idOrSlug string) (*domain.Market, bool) {
	if idOrSlug == "" {
		return nil, false
	}
	if m, ok := v.idx.byID[idOrSlug]; ok {
		return m, true
	}
	m, ok := v.idx.bySlug[idOrSlug]
	return m, ok
}

// PriceByMarket reads one outcome price from the snapshot. The second return
// is false when the market is unknown here; a price of exactly zero also
// reports false, because upstream payloads encode "field absent" as zero and
// the resolver must treat the two identically.
func (v *SnapshotView) PriceByMarket(idOrSlug string, outcomeIndex int) (decimal.Decimal, bool) {
	m, ok := v.Lookup(idOrSlug)
	if !ok {
		return decimal.Zero, false
	}
	price := m.OutcomePrice(outcomeIndex)
	if price.IsZero() {
		return decimal.Zero, false
	}
	return price, true
}

// AsOf returns when this generation was published.
func (v *SnapshotView) AsOf() time.Time {
	return v.gen.AsOf
}

// Populated reports whether this view holds real data (at least one refresh
// has succeeded).
func (v *SnapshotView) Populated() bool {
	return v.gen.Populated
}
