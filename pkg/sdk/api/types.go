package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Numeric handles Polymarket numbers that may arrive as strings or numbers.
type Numeric float64

func (n *Numeric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || strings.EqualFold(string(data), "null") {
		*n = 0
		return nil
	}

	// Handle quoted numbers.
	if data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*n = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*n = Numeric(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Numeric(f)
	return nil
}

func (n Numeric) Float64() float64 {
	return float64(n)
}

// Decimal converts to the decimal type used by the valuation layer.
func (n Numeric) Decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(n))
}

// GammaEvent is one event from the gamma /events listing. The listing nests
// the tradable market(s) under Markets; for binary events Markets[0] carries
// the prices.
type GammaEvent struct {
	ID      string             `json:"id"`
	Slug    string             `json:"slug"`
	Title   string             `json:"title"`
	EndDate string             `json:"endDate"` // ISO-8601
	Volume  Numeric            `json:"volume"`
	Tags    []GammaTag         `json:"tags"`
	Markets []GammaEventMarket `json:"markets"`
}

// GammaEventMarket is the market object nested in an event.
type GammaEventMarket struct {
	ID            string            `json:"id"`
	Slug          string            `json:"slug"`
	Liquidity     Numeric           `json:"liquidity"`
	OutcomePrices string            `json:"outcomePrices"` // JSON array of string decimals
	ClobRewards   []json.RawMessage `json:"clobRewards"`
}

type GammaTag struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Slug  string `json:"slug"`
}

// GammaMarket is a market from the gamma /markets endpoint, used by the
// targeted price fetch.
type GammaMarket struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Question      string `json:"question"`
	OutcomePrices string `json:"outcomePrices"`
}

// DataPosition is an open position from the data-api /positions endpoint.
// Identifier coverage varies by payload age, hence the redundant fields.
type DataPosition struct {
	Asset        string  `json:"asset"` // token id, decimal string
	ConditionID  string  `json:"conditionId"`
	MarketID     string  `json:"marketId"`
	MarketSlug   string  `json:"marketSlug"`
	Slug         string  `json:"slug"`
	EventSlug    string  `json:"eventSlug"`
	Title        string  `json:"title"`
	Outcome      string  `json:"outcome"`
	OutcomeIndex int     `json:"outcomeIndex"`
	Size         Numeric `json:"size"`
	AvgPrice     Numeric `json:"avgPrice"`
	CurrentPrice Numeric `json:"currentPrice"`
	CurPrice     Numeric `json:"curPrice"`
	ProxyWallet  string  `json:"proxyWallet"`
}

// BestSlug returns the market slug under whichever field the payload used.
func (p *DataPosition) BestSlug() string {
	if p.MarketSlug != "" {
		return p.MarketSlug
	}
	return p.Slug
}

// BestMarketID returns the market id, falling back to the condition id which
// older payloads report instead.
func (p *DataPosition) BestMarketID() string {
	if p.MarketID != "" {
		return p.MarketID
	}
	return p.ConditionID
}

// EmbeddedPrice returns upstream's own price estimate under whichever field
// name the payload used.
func (p *DataPosition) EmbeddedPrice() Numeric {
	if p.CurrentPrice != 0 {
		return p.CurrentPrice
	}
	return p.CurPrice
}

// TokenPrice is one entry from the bulk order-book quote feed.
type TokenPrice struct {
	TokenID string  `json:"tokenId"`
	Price   Numeric `json:"price"`
}

// ParseOutcomePrices decodes a gamma outcomePrices field, a JSON-encoded
// array of string decimals like "[\"0.65\", \"0.35\"]".
func ParseOutcomePrices(raw string) ([]decimal.Decimal, error) {
	var strs []string
	if err := json.Unmarshal([]byte(raw), &strs); err != nil {
		return nil, err
	}
	prices := make([]decimal.Decimal, 0, len(strs))
	for _, s := range strs {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return nil, err
		}
		prices = append(prices, d)
	}
	return prices, nil
}
