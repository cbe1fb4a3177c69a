package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestPositionEligible(t *testing.T) {
	tests := []struct {
		name string
		size string
		want bool
	}{
		{"above threshold", "10", true},
		{"exactly threshold", "0.1", true},
		{"dust", "0.05", false},
		{"zero", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Position{Size: decimal.RequireFromString(tt.size)}
			if got := p.Eligible(); got != tt.want {
				t.Errorf("Eligible() with size %s = %v, want %v", tt.size, got, tt.want)
			}
		})
	}
}

func TestPositionHasIdentifier(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want bool
	}{
		{"market id only", Position{MarketID: "1"}, true},
		{"slug only", Position{MarketSlug: "s"}, true},
		{"asset only", Position{AssetID: "123"}, true},
		{"none", Position{Title: "orphan"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.HasIdentifier(); got != tt.want {
				t.Errorf("HasIdentifier() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPositionSideLabel(t *testing.T) {
	tests := []struct {
		name string
		pos  Position
		want string
	}{
		{"explicit label wins", Position{Outcome: "Over", OutcomeIndex: 1}, "Over"},
		{"index zero is yes", Position{OutcomeIndex: 0}, "Yes"},
		{"index one is no", Position{OutcomeIndex: 1}, "No"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pos.SideLabel(); got != tt.want {
				t.Errorf("SideLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarketOutcomePrice(t *testing.T) {
	m := &Market{OutcomePrices: []decimal.Decimal{
		decimal.RequireFromString("0.65"),
		decimal.RequireFromString("0.35"),
	}}

	if got := m.OutcomePrice(0); !got.Equal(decimal.RequireFromString("0.65")) {
		t.Errorf("OutcomePrice(0) = %s, want 0.65", got)
	}
	if got := m.OutcomePrice(1); !got.Equal(decimal.RequireFromString("0.35")) {
		t.Errorf("OutcomePrice(1) = %s, want 0.35", got)
	}
	if got := m.OutcomePrice(2); !got.IsZero() {
		t.Errorf("OutcomePrice(2) out of range = %s, want 0", got)
	}
	if got := m.OutcomePrice(-1); !got.IsZero() {
		t.Errorf("OutcomePrice(-1) = %s, want 0", got)
	}

	var nilMarket *Market
	if got := nilMarket.OutcomePrice(0); !got.IsZero() {
		t.Errorf("nil market OutcomePrice = %s, want 0", got)
	}
}

func TestMarketHoursToEnd(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	m := &Market{}
	if got := m.HoursToEnd(now); got != -1 {
		t.Errorf("HoursToEnd with no end time = %v, want -1", got)
	}

	end := now.Add(36 * time.Hour)
	m.EndTime = &end
	if got := m.HoursToEnd(now); got != 36 {
		t.Errorf("HoursToEnd = %v, want 36", got)
	}
}
