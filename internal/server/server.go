package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/services"
	"github.com/polyfolio/polyfolio/pkg/config"
)

// Server exposes the valuation engine as a JSON API: the market explorer
// and per-address portfolio valuation. Read-only; there is nothing to
// authenticate.
type Server struct {
	cfg       *config.Config
	snapshot  *services.MarketSnapshot
	portfolio *services.PortfolioService
}

// New creates a Server over already-wired services.
func New(cfg *config.Config, snapshot *services.MarketSnapshot, portfolio *services.PortfolioService) *Server {
	return &Server{cfg: cfg, snapshot: snapshot, portfolio: portfolio}
}

// Router builds the HTTP handler.
func (s *Server) Router() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	api := r.Group("/api")
	api.GET("/markets", s.handleMarkets)
	api.GET("/portfolio/:address", s.handlePortfolio)

	return r
}

type marketRow struct {
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	YesPrice  string `json:"yesPrice"`
	Volume    string `json:"volume"`
	Liquidity string `json:"liquidity"`
	TimeLeft  string `json:"timeLeft"`
	URL       string `json:"url"`
}

func (s *Server) handleMarkets(c *gin.Context) {
	if err := s.snapshot.Refresh(c.Request.Context()); err != nil && !s.snapshot.View().Populated() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "market listing unavailable"})
		return
	}

	filter := s.filterFromQuery(c)
	limit := intQuery(c, "limit", s.cfg.Explorer.Limit)

	rows := s.snapshot.Get(limit, filter)
	out := make([]marketRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, marketRow{
			Slug:      row.Market.Slug,
			Title:     row.Market.Title,
			Category:  row.Category,
			YesPrice:  row.YesPrice.StringFixed(3),
			Volume:    row.Market.Volume.StringFixed(0),
			Liquidity: row.Market.Liquidity.StringFixed(0),
			TimeLeft:  row.TimeLabel,
			URL:       row.Market.URL(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"markets": out, "asOf": s.snapshot.View().AsOf().Format(time.RFC3339)})
}

type positionRow struct {
	Title        string `json:"title"`
	Side         string `json:"side"`
	Size         string `json:"size"`
	AvgPrice     string `json:"avgPrice"`
	CurrentPrice string `json:"currentPrice"`
	Value        string `json:"value"`
	PnLPercent   string `json:"pnlPercent"`
	Source       string `json:"source"`
}

func (s *Server) handlePortfolio(c *gin.Context) {
	address := c.Param("address")

	portfolio, err := s.portfolio.Valuation(c.Request.Context(), address)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidAddress):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		case errors.Is(err, services.ErrPortfolioUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "could not load portfolio"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	rows := make([]positionRow, 0, len(portfolio.Valuations))
	for _, v := range portfolio.Valuations {
		rows = append(rows, positionRow{
			Title:        v.Position.Title,
			Side:         v.Position.SideLabel(),
			Size:         v.Position.Size.StringFixed(1),
			AvgPrice:     v.Position.AvgEntryPrice.StringFixed(3),
			CurrentPrice: v.Quote.Price.StringFixed(3),
			Value:        v.CurrentValue.StringFixed(2),
			PnLPercent:   v.PnLPercent.StringFixed(1),
			Source:       string(v.Quote.Source),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"pass":      portfolio.PassID,
		"positions": rows,
		"metrics": gin.H{
			"totalInvested": portfolio.Metrics.TotalInvested.StringFixed(2),
			"totalValue":    portfolio.Metrics.TotalCurrentValue.StringFixed(2),
			"totalPnl":      portfolio.Metrics.TotalPnLAbsolute.StringFixed(2),
			"totalPnlPct":   portfolio.Metrics.TotalPnLPercent.StringFixed(1),
			"positions":     portfolio.Metrics.PositionCount,
		},
		"asOf": portfolio.AsOf.Format(time.RFC3339),
	})
}

func (s *Server) filterFromQuery(c *gin.Context) services.ExplorerFilter {
	defaults := s.cfg.Explorer
	filter := services.ExplorerFilter{
		MaxDays:      intQuery(c, "max_days", defaults.MaxDays),
		MinVolume:    decimalQuery(c, "min_volume", defaults.MinVolume),
		MinLiquidity: decimalQuery(c, "min_liquidity", defaults.MinLiquidity),
		ExcludeBots:  boolQuery(c, "exclude_bots", defaults.ExcludeBots),
	}
	if cats := c.QueryArray("category"); len(cats) > 0 {
		filter.Categories = cats
	} else {
		filter.Categories = defaults.Categories
	}
	return filter
}

func intQuery(c *gin.Context, key string, fallback int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

func boolQuery(c *gin.Context, key string, fallback bool) bool {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			return v
		}
	}
	return fallback
}

func decimalQuery(c *gin.Context, key string, fallback float64) decimal.Decimal {
	if raw := c.Query(key); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			return v
		}
	}
	return decimal.NewFromFloat(fallback)
}
