package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
	"github.com/polyfolio/polyfolio/pkg/cache"
	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

// LivePriceFetcher is the slice of the API client the live quote cache needs.
type LivePriceFetcher interface {
	GetLivePrices(ctx context.Context) ([]api.TokenPrice, error)
}

// LiveQuoteCache caches the bulk order-book price map. Its TTL is short:
// book-derived prices move much faster than the event listing. The feed keys
// entries by whichever token id encoding it happens to emit, so each entry is
// indexed under both its decimal and hex forms when both are derivable.
type LiveQuoteCache struct {
	api       LivePriceFetcher
	store     *cache.Store[map[string]decimal.Decimal]
	refreshMu sync.Mutex
}

// NewLiveQuoteCache creates a live quote cache over the given feed.
func NewLiveQuoteCache(fetcher LivePriceFetcher, ttl time.Duration) *LiveQuoteCache {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &LiveQuoteCache{
		api:   fetcher,
		store: cache.NewStore[map[string]decimal.Decimal](ttl),
	}
}

// Refresh pulls the feed unless the current map is still fresh. Same soft
// failure policy as the market snapshot: on error the last good map keeps
// serving.
func (c *LiveQuoteCache) Refresh(ctx context.Context) error {
	if c.store.Fresh() {
		return nil
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	if c.store.Fresh() {
		return nil
	}

	prices, err := c.api.GetLivePrices(ctx)
	if err != nil {
		logger.Warnf("live quote refresh failed, serving previous map: %v", err)
		return errors.Wrap(err, "refresh live quotes")
	}

	c.store.Publish(buildQuoteMap(prices))
	logger.WithField("quotes", len(prices)).Debugf("live quote map refreshed")
	return nil
}

// buildQuoteMap indexes the feed under every derivable id encoding.
func buildQuoteMap(prices []api.TokenPrice) map[string]decimal.Decimal {
	m := make(map[string]decimal.Decimal, len(prices)*2)
	for _, p := range prices {
		if p.TokenID == "" {
			continue
		}
		price := p.Price.Decimal()
		m[p.TokenID] = price

		if alt := domain.DecimalToHex(p.TokenID); alt != "" {
			m[alt] = price
		} else if alt := domain.HexToDecimal(p.TokenID); alt != "" {
			m[alt] = price
		}
	}
	return m
}

// View returns a read-only handle on the current quote generation.
func (c *LiveQuoteCache) View() *QuoteView {
	quotes, gen := c.store.Current()
	return &QuoteView{quotes: quotes, gen: gen}
}

// QuoteView is one immutable generation of the live price map.
type QuoteView struct {
	quotes map[string]decimal.Decimal
	gen    cache.Generation
}

// PriceForAsset looks up a price by token id in either encoding. A zero
// price reports false; the feed uses zero for tokens with no book.
func (v *QuoteView) PriceForAsset(id string) (decimal.Decimal, bool) {
	if id == "" || v.quotes == nil {
		return decimal.Zero, false
	}
	price, ok := v.quotes[id]
	if !ok || price.IsZero() {
		return decimal.Zero, false
	}
	return price, true
}

// AsOf returns when this generation was published.
func (v *QuoteView) AsOf() time.Time {
	return v.gen.AsOf
}
