package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/polyfolio/polyfolio/internal/domain"
	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

// ErrInvalidAddress rejects inputs that cannot be a wallet address.
var ErrInvalidAddress = errors.New("invalid wallet address")

// ErrPortfolioUnavailable wraps a total positions-source failure; the caller
// shows "could not load portfolio" rather than an empty one.
var ErrPortfolioUnavailable = errors.New("could not load portfolio")

// PositionsFetcher is the slice of the API client the portfolio service needs.
type PositionsFetcher interface {
	GetPositions(ctx context.Context, q api.PositionsQuery) ([]api.DataPosition, error)
}

// Portfolio is the result of one valuation pass.
type Portfolio struct {
	PassID     string
	Address    string
	Valuations []domain.PositionValuation
	Metrics    domain.PortfolioMetrics
	AsOf       time.Time
}

// PortfolioService runs valuation passes: fetch positions, resolve every
// price through the tier chain, aggregate. One pass per user-triggered
// refresh; no background scheduler.
type PortfolioService struct {
	api      PositionsFetcher
	snapshot *MarketSnapshot
	targeted *TargetedPriceFetcher
	live     *LiveQuoteCache

	positionLimit int
}

// NewPortfolioService wires the valuation pipeline together.
func NewPortfolioService(fetcher PositionsFetcher, snapshot *MarketSnapshot, targeted *TargetedPriceFetcher, live *LiveQuoteCache) *PortfolioService {
	return &PortfolioService{
		api:           fetcher,
		snapshot:      snapshot,
		targeted:      targeted,
		live:          live,
		positionLimit: 100,
	}
}

// ValidateAddress checks a user-supplied wallet address. The dashboard used
// to accept anything ten characters or longer; a proper hex check catches
// typos before they turn into confusing empty portfolios.
func ValidateAddress(address string) error {
	address = strings.TrimSpace(address)
	if len(address) < 10 || !common.IsHexAddress(address) {
		return ErrInvalidAddress
	}
	return nil
}

// Valuation runs one pass for the given address.
//
// The pass captures the snapshot and live-quote generations up front, so all
// positions read consistent cache state even if a background refresh
// publishes mid-pass. The targeted batch fetch and the live quote refresh
// run concurrently; they touch no shared mutable state and the pass only
// needs both finished before resolving.
func (s *PortfolioService) Valuation(ctx context.Context, address string) (*Portfolio, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	log := logger.WithFields(logrus.Fields{"pass": passID, "user": shortAddress(address)})

	raw, err := s.api.GetPositions(ctx, api.PositionsQuery{
		User:          address,
		SizeThreshold: domain.DustThreshold.String(),
		Limit:         s.positionLimit,
	})
	if err != nil {
		log.Warnf("positions source failed: %v", err)
		return nil, errors.Wrap(ErrPortfolioUnavailable, err.Error())
	}

	positions := make([]domain.Position, 0, len(raw))
	for _, p := range raw {
		positions = append(positions, toDomainPosition(p))
	}

	// The snapshot refresh is TTL-gated; most passes reuse the generation
	// the explorer already paid for.
	if err := s.snapshot.Refresh(ctx); err != nil {
		log.Debugf("snapshot refresh soft-failed: %v", err)
	}
	snapView := s.snapshot.View()

	// Collect every market id the snapshot cannot price and fetch them in
	// one grouped call, concurrently with the live quote refresh.
	probe := NewResolver(snapView, s.live.View(), nil)
	var missing []string
	for _, pos := range positions {
		if id, ok := probe.NeedsTargetedFetch(pos); ok {
			missing = append(missing, id)
		}
	}

	var (
		wg    sync.WaitGroup
		batch map[string][]decimal.Decimal
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		batch = s.targeted.FetchPrices(ctx, missing)
	}()
	go func() {
		defer wg.Done()
		if err := s.live.Refresh(ctx); err != nil {
			log.Debugf("live quote refresh soft-failed: %v", err)
		}
	}()
	wg.Wait()

	resolver := NewResolver(snapView, s.live.View(), batch)
	valuations, metrics := Valuate(positions, resolver)

	log.WithFields(logrus.Fields{
		"positions": len(positions),
		"valued":    metrics.PositionCount,
		"equity":    metrics.TotalCurrentValue.StringFixed(2),
	}).Infof("valuation pass complete")

	return &Portfolio{
		PassID:     passID,
		Address:    address,
		Valuations: valuations,
		Metrics:    metrics,
		AsOf:       time.Now(),
	}, nil
}

// toDomainPosition maps an upstream payload onto the domain model.
func toDomainPosition(p api.DataPosition) domain.Position {
	return domain.Position{
		MarketID:             p.BestMarketID(),
		MarketSlug:           p.BestSlug(),
		AssetID:              p.Asset,
		Title:                p.Title,
		Outcome:              p.Outcome,
		OutcomeIndex:         p.OutcomeIndex,
		Size:                 p.Size.Decimal(),
		AvgEntryPrice:        p.AvgPrice.Decimal(),
		EmbeddedCurrentPrice: p.EmbeddedPrice().Decimal(),
	}
}

func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:10]
}
