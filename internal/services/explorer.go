package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/polyfolio/polyfolio/internal/domain"
)

// MainCategories are the curated dashboard categories. A market whose tags
// match none of these falls back to its first tag, then to "Other".
var MainCategories = []string{
	"Politics", "Crypto", "Sports", "Business", "Science", "Pop Culture", "News",
}

// botTitleMarkers identify high-frequency candle markets that drown out the
// listing when bots are not filtered.
var botTitleMarkers = []string{"up or down", "up/down", "15min"}

// ExplorerFilter narrows the market listing for display.
type ExplorerFilter struct {
	MaxDays      int
	MinVolume    decimal.Decimal
	MinLiquidity decimal.Decimal
	Categories   []string // empty means all
	ExcludeBots  bool
}

// ExplorerRow is one listing entry with its presentation fields resolved.
type ExplorerRow struct {
	Market    *domain.Market
	Category  string
	YesPrice  decimal.Decimal
	HoursLeft float64
	TimeLabel string
}

// Categorize maps a market's tags onto the dashboard category set: the first
// main category present wins, otherwise the first tag, otherwise "Other".
func Categorize(tags []string) string {
	for _, main := range MainCategories {
		if lo.Contains(tags, main) {
			return main
		}
	}
	if len(tags) > 0 {
		return tags[0]
	}
	return "Other"
}

// IsBotMarket reports whether a title looks like an automated candle market.
func IsBotMarket(title string) bool {
	title = strings.ToLower(title)
	return lo.SomeBy(botTitleMarkers, func(marker string) bool {
		return strings.Contains(title, marker)
	})
}

// TimeLeftLabel renders remaining time the way the dashboard shows it:
// hours under a day, days otherwise.
func TimeLeftLabel(hoursLeft float64) string {
	if hoursLeft < 0 {
		return "N/A"
	}
	if hoursLeft < 24 {
		return fmt.Sprintf("%dh", int(hoursLeft))
	}
	return fmt.Sprintf("%dd", int(hoursLeft/24))
}

// BuildExplorer applies the filter to a snapshot view and returns up to
// limit rows sorted by time-to-end ascending (most urgent first). Markets
// that already ended are dropped regardless of filter; markets with no known
// end time are dropped whenever a max-days window is set.
func BuildExplorer(view *SnapshotView, limit int, f ExplorerFilter, now time.Time) []ExplorerRow {
	rows := make([]ExplorerRow, 0, 64)

	for _, m := range view.Markets() {
		if f.ExcludeBots && IsBotMarket(m.Title) {
			continue
		}

		category := Categorize(m.Tags)
		if len(f.Categories) > 0 && !lo.Contains(f.Categories, category) {
			continue
		}

		hoursLeft := m.HoursToEnd(now)
		if m.EndTime != nil && hoursLeft <= 0 {
			continue
		}
		// An unknown end time counts as "too far out" under a max-days
		// window: the window exists to surface markets resolving soon.
		if f.MaxDays > 0 && (hoursLeft < 0 || hoursLeft > float64(f.MaxDays)*24) {
			continue
		}
		if m.Volume.LessThan(f.MinVolume) || m.Liquidity.LessThan(f.MinLiquidity) {
			continue
		}

		rows = append(rows, ExplorerRow{
			Market:    m,
			Category:  category,
			YesPrice:  m.OutcomePrice(0),
			HoursLeft: hoursLeft,
			TimeLabel: TimeLeftLabel(hoursLeft),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		// Unknown end times sort last.
		hi, hj := rows[i].HoursLeft, rows[j].HoursLeft
		if hi < 0 {
			return false
		}
		if hj < 0 {
			return true
		}
		return hi < hj
	})

	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
