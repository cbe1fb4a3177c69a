package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"main category wins", []string{"Elections", "Politics"}, "Politics"},
		{"first main category wins", []string{"Sports", "Crypto"}, "Crypto"},
		{"falls back to first tag", []string{"Weather", "Climate"}, "Weather"},
		{"no tags", nil, "Other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.tags); got != tt.want {
				t.Errorf("Categorize(%v) = %q, want %q", tt.tags, got, tt.want)
			}
		})
	}
}

func TestIsBotMarket(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Bitcoin Up or Down - June 1, 3PM ET", true},
		{"ETH up/down hourly", true},
		{"SOL 15min candle", true},
		{"Will it rain tomorrow in NYC?", false},
		{"UP token listed by July?", false},
	}

	for _, tt := range tests {
		if got := IsBotMarket(tt.title); got != tt.want {
			t.Errorf("IsBotMarket(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

func TestTimeLeftLabel(t *testing.T) {
	tests := []struct {
		hours float64
		want  string
	}{
		{-1, "N/A"},
		{0.5, "0h"},
		{5, "5h"},
		{23.9, "23h"},
		{24, "1d"},
		{72, "3d"},
	}

	for _, tt := range tests {
		if got := TimeLeftLabel(tt.hours); got != tt.want {
			t.Errorf("TimeLeftLabel(%v) = %q, want %q", tt.hours, got, tt.want)
		}
	}
}

func explorerMarket(slug, title string, endIn time.Duration, volume, liquidity string, tags []string, now time.Time) *domain.Market {
	m := &domain.Market{
		Slug:      slug,
		Title:     title,
		Volume:    decimal.RequireFromString(volume),
		Liquidity: decimal.RequireFromString(liquidity),
		Tags:      tags,
		OutcomePrices: []decimal.Decimal{
			decimal.RequireFromString("0.50"),
			decimal.RequireFromString("0.50"),
		},
	}
	if endIn != 0 {
		end := now.Add(endIn)
		m.EndTime = &end
	}
	return m
}

func TestBuildExplorer(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	markets := []*domain.Market{
		explorerMarket("soon", "Ends soon", 2*time.Hour, "5000", "500", []string{"Politics"}, now),
		explorerMarket("later", "Ends later", 48*time.Hour, "9000", "900", []string{"Crypto"}, now),
		explorerMarket("bot", "BTC up or down 3PM", 1*time.Hour, "99999", "9999", []string{"Crypto"}, now),
		explorerMarket("thin", "Thin market", 3*time.Hour, "10", "5", []string{"Politics"}, now),
		explorerMarket("far", "Ends next month", 40*24*time.Hour, "8000", "800", []string{"Sports"}, now),
		explorerMarket("ended", "Already over", -1*time.Hour, "7000", "700", []string{"Sports"}, now),
		explorerMarket("no-end", "Open ended", 0, "6000", "600", []string{"News"}, now),
	}
	view := &SnapshotView{idx: indexOf(markets)}

	f := ExplorerFilter{
		MaxDays:      7,
		MinVolume:    decimal.RequireFromString("1000"),
		MinLiquidity: decimal.RequireFromString("100"),
		ExcludeBots:  true,
	}
	rows := BuildExplorer(view, 0, f, now)

	got := make([]string, len(rows))
	for i, r := range rows {
		got[i] = r.Market.Slug
	}
	// Sorted by time-to-end ascending. The bot market, the thin market, the
	// ended one, the far-out one, and the open-ended one are all gone.
	want := []string{"soon", "later"}
	if len(got) != len(want) {
		t.Fatalf("rows = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rows = %v, want %v", got, want)
		}
	}

	if rows[0].TimeLabel != "2h" {
		t.Errorf("TimeLabel = %q, want 2h", rows[0].TimeLabel)
	}
	if rows[0].Category != "Politics" {
		t.Errorf("Category = %q, want Politics", rows[0].Category)
	}
	if !rows[0].YesPrice.Equal(decimal.RequireFromString("0.50")) {
		t.Errorf("YesPrice = %s, want 0.50", rows[0].YesPrice)
	}
}

func TestBuildExplorerUnknownEndTimes(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	markets := []*domain.Market{
		explorerMarket("dated", "Has an end", 2*time.Hour, "5000", "500", nil, now),
		explorerMarket("open", "Open ended", 0, "5000", "500", nil, now),
	}
	view := &SnapshotView{idx: indexOf(markets)}

	// A max-days window drops markets with no known end time.
	rows := BuildExplorer(view, 0, ExplorerFilter{MaxDays: 7}, now)
	if len(rows) != 1 || rows[0].Market.Slug != "dated" {
		t.Errorf("MaxDays filter kept %d rows", len(rows))
	}

	// Without the window they are listed, sorted after every dated market.
	rows = BuildExplorer(view, 0, ExplorerFilter{}, now)
	if len(rows) != 2 || rows[1].Market.Slug != "open" {
		t.Fatalf("unfiltered rows = %d", len(rows))
	}
	if rows[1].TimeLabel != "N/A" {
		t.Errorf("open-ended TimeLabel = %q, want N/A", rows[1].TimeLabel)
	}
}

func TestBuildExplorerCategoryFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	markets := []*domain.Market{
		explorerMarket("pol", "Politics market", 2*time.Hour, "5000", "500", []string{"Politics"}, now),
		explorerMarket("cry", "Crypto market", 3*time.Hour, "5000", "500", []string{"Crypto"}, now),
	}
	view := &SnapshotView{idx: indexOf(markets)}

	rows := BuildExplorer(view, 0, ExplorerFilter{Categories: []string{"Crypto"}}, now)
	if len(rows) != 1 || rows[0].Market.Slug != "cry" {
		t.Errorf("category filter returned %d rows", len(rows))
	}
}

func TestBuildExplorerLimit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	markets := []*domain.Market{
		explorerMarket("a", "A", 1*time.Hour, "5000", "500", nil, now),
		explorerMarket("b", "B", 2*time.Hour, "5000", "500", nil, now),
		explorerMarket("c", "C", 3*time.Hour, "5000", "500", nil, now),
	}
	view := &SnapshotView{idx: indexOf(markets)}

	rows := BuildExplorer(view, 2, ExplorerFilter{}, now)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Market.Slug != "a" || rows[1].Market.Slug != "b" {
		t.Errorf("limit kept wrong rows: %s, %s", rows[0].Market.Slug, rows[1].Market.Slug)
	}
}

func indexOf(markets []*domain.Market) *marketIndex {
	idx := &marketIndex{
		ordered: markets,
		bySlug:  make(map[string]*domain.Market, len(markets)),
		byID:    make(map[string]*domain.Market, len(markets)),
	}
	for _, m := range markets {
		idx.bySlug[m.Slug] = m
		if m.ID != "" {
			idx.byID[m.ID] = m
		}
	}
	return idx
}
