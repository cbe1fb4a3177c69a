package api

import (
	"context"
	"strconv"
	"time"

	sdkhttp "github.com/polyfolio/polyfolio/pkg/sdk/http"
)

// Client talks to the three Polymarket read APIs: gamma (event listing and
// targeted market prices), data-api (user positions), and the CLOB quote
// feed. All calls are unauthenticated idempotent reads.
type Client struct {
	gamma *sdkhttp.Client
	data  *sdkhttp.Client
	clob  *sdkhttp.Client
}

// Options configures a Client. Zero values fall back to production hosts.
type Options struct {
	GammaURL string
	DataURL  string
	ClobURL  string
	Timeout  time.Duration
}

// NewClient creates a new Polymarket API client.
func NewClient(opts Options) *Client {
	if opts.GammaURL == "" {
		opts.GammaURL = "https://gamma-api.polymarket.com"
	}
	if opts.DataURL == "" {
		opts.DataURL = "https://data-api.polymarket.com"
	}
	if opts.ClobURL == "" {
		opts.ClobURL = "https://clob.polymarket.com"
	}
	return &Client{
		gamma: sdkhttp.NewClient(opts.GammaURL, opts.Timeout),
		data:  sdkhttp.NewClient(opts.DataURL, opts.Timeout),
		clob:  sdkhttp.NewClient(opts.ClobURL, opts.Timeout),
	}
}

// EventQuery controls /events requests.
type EventQuery struct {
	Limit     int
	Active    bool
	Closed    bool
	Order     string
	Ascending bool
}

// ListEvents fetches the bulk event listing from the gamma API, ordered by
// volume by default so the most actively priced markets fill the snapshot.
func (c *Client) ListEvents(ctx context.Context, q EventQuery) ([]GammaEvent, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	order := q.Order
	if order == "" {
		order = "volume"
	}

	var events []GammaEvent
	err := c.gamma.Get(ctx, "/events", &sdkhttp.RequestOptions{
		Params: map[string]any{
			"limit":     strconv.Itoa(limit),
			"active":    strconv.FormatBool(q.Active),
			"closed":    strconv.FormatBool(q.Closed),
			"order":     order,
			"ascending": strconv.FormatBool(q.Ascending),
		},
	}, &events)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// PositionsQuery controls data-api /positions requests.
type PositionsQuery struct {
	User          string
	SizeThreshold string
	Limit         int
}

// GetPositions fetches a user's open positions from the data-api.
func (c *Client) GetPositions(ctx context.Context, q PositionsQuery) ([]DataPosition, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	threshold := q.SizeThreshold
	if threshold == "" {
		threshold = "0.1"
	}

	var positions []DataPosition
	err := c.data.Get(ctx, "/positions", &sdkhttp.RequestOptions{
		Params: map[string]any{
			"user":          q.User,
			"sizeThreshold": threshold,
			"limit":         strconv.Itoa(limit),
		},
	}, &positions)
	if err != nil {
		return nil, err
	}
	return positions, nil
}

// GetMarketsByIDs fetches specific markets from the gamma API by repeating
// the id query parameter. Callers must keep batches at or under 20 ids;
// longer URLs get rejected upstream.
func (c *Client) GetMarketsByIDs(ctx context.Context, ids []string) ([]GammaMarket, error) {
	var markets []GammaMarket
	err := c.gamma.Get(ctx, "/markets", &sdkhttp.RequestOptions{
		Params: map[string]any{
			"id": ids,
		},
	}, &markets)
	if err != nil {
		return nil, err
	}
	return markets, nil
}

// GetLivePrices fetches the bulk order-book price feed: one entry per active
// token, keyed by whichever token id encoding the feed happens to emit.
func (c *Client) GetLivePrices(ctx context.Context) ([]TokenPrice, error) {
	var prices []TokenPrice
	if err := c.clob.Get(ctx, "/prices", nil, &prices); err != nil {
		return nil, err
	}
	return prices, nil
}
