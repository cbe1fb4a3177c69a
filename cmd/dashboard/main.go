package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/services"
	"github.com/polyfolio/polyfolio/pkg/config"
	"github.com/polyfolio/polyfolio/pkg/logger"
	"github.com/polyfolio/polyfolio/pkg/sdk/api"
)

const explorerRows = 25

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("238")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))

	gainStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	lossStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1)
)

type tab int

const (
	tabExplorer tab = iota
	tabPortfolio
)

type model struct {
	cfg       *config.Config
	snapshot  *services.MarketSnapshot
	portfolio *services.PortfolioService

	active    tab
	rows      []services.ExplorerRow
	folio     *services.Portfolio
	folioErr  string
	marketErr string
	lastTick  time.Time
}

type marketsMsg struct {
	rows []services.ExplorerRow
	err  error
}

type portfolioMsg struct {
	folio *services.Portfolio
	err   error
}

type tickMsg time.Time

func (m model) Init() tea.Cmd {
	return tea.Batch(m.loadMarkets(), m.loadPortfolio(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(15*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) loadMarkets() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.Refresh.RequestTimeout)
		defer cancel()
		err := m.snapshot.Refresh(ctx)
		rows := m.snapshot.Get(explorerRows, services.ExplorerFilter{
			MaxDays:      m.cfg.Explorer.MaxDays,
			MinVolume:    decimal.NewFromFloat(m.cfg.Explorer.MinVolume),
			MinLiquidity: decimal.NewFromFloat(m.cfg.Explorer.MinLiquidity),
			Categories:   m.cfg.Explorer.Categories,
			ExcludeBots:  m.cfg.Explorer.ExcludeBots,
		})
		if len(rows) > 0 {
			err = nil // stale rows beat an error banner
		}
		return marketsMsg{rows: rows, err: err}
	}
}

func (m model) loadPortfolio() tea.Cmd {
	if m.cfg.UserAddress == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*m.cfg.Refresh.RequestTimeout)
		defer cancel()
		folio, err := m.portfolio.Valuation(ctx, m.cfg.UserAddress)
		return portfolioMsg{folio: folio, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "left":
			if m.active == tabExplorer {
				m.active = tabPortfolio
			} else {
				m.active = tabExplorer
			}
		case "r":
			return m, tea.Batch(m.loadMarkets(), m.loadPortfolio())
		}

	case tickMsg:
		m.lastTick = time.Time(msg)
		return m, tea.Batch(m.loadMarkets(), m.loadPortfolio(), tick())

	case marketsMsg:
		m.rows = msg.rows
		m.marketErr = ""
		if msg.err != nil {
			m.marketErr = msg.err.Error()
		}

	case portfolioMsg:
		if msg.err != nil {
			m.folioErr = "could not load portfolio"
		} else {
			m.folio = msg.folio
			m.folioErr = ""
		}
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Polymarket Portfolio Dashboard"))
	b.WriteString("  ")
	for i, name := range []string{"EXPLORER", "PORTFOLIO"} {
		style := tabStyle
		if tab(i) == m.active {
			style = activeTabStyle
		}
		b.WriteString(style.Render(name))
	}
	b.WriteString("\n\n")

	if m.active == tabExplorer {
		b.WriteString(m.viewExplorer())
	} else {
		b.WriteString(m.viewPortfolio())
	}

	b.WriteString("\n")
	footer := "tab: switch  r: refresh  q: quit"
	if !m.lastTick.IsZero() {
		footer += "  |  refreshed " + m.lastTick.Format("15:04:05")
	}
	b.WriteString(dimStyle.Render(footer))
	b.WriteString("\n")
	return b.String()
}

func (m model) viewExplorer() string {
	if m.marketErr != "" && len(m.rows) == 0 {
		return lossStyle.Render("market listing unavailable: " + m.marketErr)
	}
	if len(m.rows) == 0 {
		return dimStyle.Render("no markets match the current filters")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-10s %-52s %6s %10s %9s %6s",
		"CATEGORY", "MARKET", "YES", "VOLUME", "LIQ", "ENDS")))
	b.WriteString("\n")
	for _, row := range m.rows {
		title := row.Market.Title
		if len(title) > 50 {
			title = title[:49] + "…"
		}
		b.WriteString(fmt.Sprintf("%-10s %-52s %6s %10s %9s %6s\n",
			truncate(row.Category, 10),
			title,
			row.YesPrice.StringFixed(2),
			"$"+row.Market.Volume.StringFixed(0),
			"$"+row.Market.Liquidity.StringFixed(0),
			row.TimeLabel,
		))
	}
	return borderStyle.Render(b.String())
}

func (m model) viewPortfolio() string {
	if m.cfg.UserAddress == "" {
		return dimStyle.Render("set user_address in config.yaml (or POLYFOLIO_USER_ADDRESS) to see your portfolio")
	}
	if m.folioErr != "" {
		return lossStyle.Render(m.folioErr)
	}
	if m.folio == nil {
		return dimStyle.Render("loading positions…")
	}
	if len(m.folio.Valuations) == 0 {
		return dimStyle.Render("no active positions")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Total value: $%s    PnL: %s%%",
		m.folio.Metrics.TotalCurrentValue.StringFixed(2),
		m.folio.Metrics.TotalPnLPercent.StringFixed(1))))
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("%-44s %-4s %8s %7s %7s %9s %8s %-8s",
		"MARKET", "SIDE", "SHARES", "ENTRY", "NOW", "VALUE", "PNL%", "SRC")))
	b.WriteString("\n")

	for _, v := range m.folio.Valuations {
		title := v.Position.Title
		if len(title) > 42 {
			title = title[:41] + "…"
		}
		pnl := v.PnLPercent.StringFixed(1) + "%"
		if v.PnLPercent.IsNegative() {
			pnl = lossStyle.Render(pnl)
		} else {
			pnl = gainStyle.Render(pnl)
		}
		b.WriteString(fmt.Sprintf("%-44s %-4s %8s %7s %7s %9s %8s %-8s\n",
			title,
			v.Position.SideLabel(),
			v.Position.Size.StringFixed(1),
			v.Position.AvgEntryPrice.StringFixed(3),
			v.Quote.Price.StringFixed(3),
			"$"+v.CurrentValue.StringFixed(2),
			pnl,
			string(v.Quote.Source),
		))
	}
	return borderStyle.Render(b.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func main() {
	var configPath = flag.String("config", "config.yaml", "config file path")
	flag.Parse()

	_ = godotenv.Load()

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal; logs go to file only.
	logFile := cfg.LogFile
	if logFile == "" {
		logFile = "logs/dashboard.log"
	}
	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: logFile,
		MaxSize:    20,
		MaxBackups: 2,
		MaxAge:     7,
		FileOnly:   true,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	client := api.NewClient(api.Options{
		GammaURL: cfg.API.GammaURL,
		DataURL:  cfg.API.DataURL,
		ClobURL:  cfg.API.ClobURL,
		Timeout:  cfg.Refresh.RequestTimeout,
	})

	snapshot := services.NewMarketSnapshot(client, cfg.Explorer.Limit, cfg.Refresh.SnapshotTTL)
	targeted := services.NewTargetedPriceFetcher(client)
	live := services.NewLiveQuoteCache(client, cfg.Refresh.LiveQuoteTTL)
	portfolio := services.NewPortfolioService(client, snapshot, targeted, live)

	m := model{
		cfg:       cfg,
		snapshot:  snapshot,
		portfolio: portfolio,
		active:    tabExplorer,
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "dashboard: %v\n", err)
		os.Exit(1)
	}
}
