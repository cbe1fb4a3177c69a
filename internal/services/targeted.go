package services

import (
	"context"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

// TargetedBatchSize caps the number of market ids per request. The ids are
// repeated query parameters, and past ~20 the URL trips upstream limits.
const TargetedBatchSize = 20

// MarketFetcher is the slice of the API client the targeted fetcher needs.
type MarketFetcher interface {
	GetMarketsByIDs(ctx context.Context, ids []string) ([]api.GammaMarket, error)
}

// TargetedPriceFetcher pulls prices for specific markets the bulk snapshot
// missed. One call covers a whole valuation pass; it must never be invoked
// once per position.
type TargetedPriceFetcher struct {
	api MarketFetcher
}

// NewTargetedPriceFetcher creates a fetcher over the given market source.
func NewTargetedPriceFetcher(fetcher MarketFetcher) *TargetedPriceFetcher {
	return &TargetedPriceFetcher{api: fetcher}
}

// FetchPrices resolves outcome prices for the given market ids. Blank ids
// are dropped and duplicates collapse before batching. Batches fetch
// concurrently; a failed batch contributes nothing for its ids and does not
// abort its siblings, so the result may be a partial mapping.
func (f *TargetedPriceFetcher) FetchPrices(ctx context.Context, ids []string) map[string][]decimal.Decimal {
	cleaned := lo.Uniq(lo.FilterMap(ids, func(id string, _ int) (string, bool) {
		id = strings.TrimSpace(id)
		return id, id != ""
	}))
	if len(cleaned) == 0 {
		return map[string][]decimal.Decimal{}
	}

	batches := lo.Chunk(cleaned, TargetedBatchSize)

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		merged = make(map[string][]decimal.Decimal, len(cleaned))
	)

	for _, batch := range batches {
		wg.Add(1)
		go func(batch []string) {
			defer wg.Done()

			markets, err := f.api.GetMarketsByIDs(ctx, batch)
			if err != nil {
				logger.Warnf("targeted price batch of %d ids failed: %v", len(batch), err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			for _, m := range markets {
				prices, err := api.ParseOutcomePrices(m.OutcomePrices)
				if err != nil || len(prices) == 0 {
					continue
				}
				merged[m.ID] = prices
			}
		}(batch)
	}
	wg.Wait()

	logger.WithField("requested", len(cleaned)).
		WithField("resolved", len(merged)).
		Debugf("targeted price fetch done in %d batches", len(batches))
	return merged
}
