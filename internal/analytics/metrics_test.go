package analytics

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestRiskReward(t *testing.T) {
	tests := []struct {
		name      string
		entry     string
		sl        string
		tp        string
		direction types.Direction
		want      string
	}{
		{"buy two to one", "100", "90", "120", types.DirectionBuy, "2"},
		{"sell two to one", "100", "110", "80", types.DirectionSell, "2"},
		{"zero risk", "100", "100", "120", types.DirectionBuy, "0"},
		{"negative risk", "100", "110", "120", types.DirectionBuy, "0"},
		{"half reward", "100", "90", "105", types.DirectionBuy, "0.5"},
		{"tp below entry on buy", "100", "90", "80", types.DirectionBuy, "0"},
		{"missing sl", "100", "0", "120", types.DirectionBuy, "0"},
		{"missing tp", "100", "90", "0", types.DirectionBuy, "0"},
		{"missing entry", "0", "90", "120", types.DirectionBuy, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RiskReward(d(tt.entry), d(tt.sl), d(tt.tp), tt.direction)
			if !got.Equal(d(tt.want)) {
				t.Errorf("RiskReward(%s, %s, %s, %s) = %s, want %s",
					tt.entry, tt.sl, tt.tp, tt.direction, got, tt.want)
			}
		})
	}
}

func TestPnL(t *testing.T) {
	tests := []struct {
		name      string
		entry     string
		exit      string
		size      string
		direction types.Direction
		symbol    string
		want      string
	}{
		{"buy gold win", "2000", "2010", "0.5", types.DirectionBuy, "XAUUSD", "500"},
		{"sell gold win", "2000", "1990", "0.5", types.DirectionSell, "XAUUSD", "500"},
		{"buy gold loss", "2000", "1995", "1", types.DirectionBuy, "GOLD", "-500"},
		{"fx pair one lot", "1.1000", "1.1050", "1", types.DirectionBuy, "EURUSD", "500"},
		{"jpy pair", "150.00", "150.50", "1", types.DirectionBuy, "USDJPY", "500"},
		{"unknown symbol", "50", "55", "2", types.DirectionBuy, "US30", "10"},
		{"crypto", "60000", "61000", "0.1", types.DirectionBuy, "BTCUSD", "100"},
		{"missing exit", "2000", "0", "1", types.DirectionBuy, "XAUUSD", "0"},
		{"missing size", "2000", "2010", "0", types.DirectionBuy, "XAUUSD", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PnL(d(tt.entry), d(tt.exit), d(tt.size), tt.direction, tt.symbol)
			if !got.Equal(d(tt.want)) {
				t.Errorf("PnL = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPnLAndPercentAgreeInSign(t *testing.T) {
	cases := []struct {
		entry, exit string
		direction   types.Direction
	}{
		{"100", "110", types.DirectionBuy},
		{"100", "90", types.DirectionBuy},
		{"100", "110", types.DirectionSell},
		{"100", "90", types.DirectionSell},
		{"100", "100", types.DirectionBuy},
	}

	for _, c := range cases {
		pnl := PnL(d(c.entry), d(c.exit), d("1"), c.direction, "US30")
		pct := PnLPercent(d(c.entry), d(c.exit), c.direction)
		if !pct.Valid {
			t.Fatalf("expected valid percent for entry=%s exit=%s", c.entry, c.exit)
		}
		if pnl.Sign() != pct.Decimal.Sign() {
			t.Errorf("sign mismatch for %s->%s %s: pnl=%s pct=%s",
				c.entry, c.exit, c.direction, pnl, pct.Decimal)
		}
	}
}

func TestPnLPercent(t *testing.T) {
	got := PnLPercent(d("100"), d("103"), types.DirectionBuy)
	if !got.Valid || !got.Decimal.Equal(d("3")) {
		t.Errorf("expected 3%%, got %+v", got)
	}

	got = PnLPercent(d("100"), d("103"), types.DirectionSell)
	if !got.Valid || !got.Decimal.Equal(d("-3")) {
		t.Errorf("expected -3%%, got %+v", got)
	}

	// Thirds round to two decimals.
	got = PnLPercent(d("3"), d("4"), types.DirectionBuy)
	if !got.Valid || got.Decimal.String() != "33.33" {
		t.Errorf("expected 33.33, got %+v", got)
	}

	if PnLPercent(d("0"), d("103"), types.DirectionBuy).Valid {
		t.Error("expected invalid percent with zero entry")
	}
	if PnLPercent(d("100"), d("0"), types.DirectionBuy).Valid {
		t.Error("expected invalid percent with zero exit")
	}
}

func TestFormatHoldingTime(t *testing.T) {
	parse := func(s string) time.Time {
		ts, err := time.Parse("2006-01-02T15:04", s)
		if err != nil {
			t.Fatalf("bad test time %q: %v", s, err)
		}
		return ts
	}

	tests := []struct {
		open, close string
		want        string
	}{
		{"2024-01-01T10:00", "2024-01-01T10:45", "45m"},
		{"2024-01-01T10:00", "2024-01-01T13:00", "3h"},
		{"2024-01-01T10:00", "2024-01-01T13:30", "3h 30m"},
		{"2024-01-01T10:00", "2024-01-02T13:30", "1d 3h"},
		{"2024-01-01T10:00", "2024-01-03T10:00", "2d"},
		{"2024-01-01T10:00", "2024-01-01T09:00", ""}, // negative duration
		{"2024-01-01T10:00", "2024-01-01T10:00", ""},
	}

	for _, tt := range tests {
		got := FormatHoldingTime(parse(tt.open), parse(tt.close))
		if got != tt.want {
			t.Errorf("FormatHoldingTime(%s, %s) = %q, want %q", tt.open, tt.close, got, tt.want)
		}
	}
}

func TestHoldingTimeRequiresTimes(t *testing.T) {
	trade := types.Trade{
		OpenDate: "2024-01-01", OpenTime: "10:00",
		CloseDate: "2024-01-01", CloseTime: "12:00",
	}
	if got := HoldingTime(&trade); got != "2h" {
		t.Errorf("expected 2h, got %q", got)
	}

	trade.CloseTime = ""
	if got := HoldingTime(&trade); got != "" {
		t.Errorf("expected empty holding time without close time, got %q", got)
	}

	trade = types.Trade{OpenDate: "2024-01-01", CloseTime: "12:00"}
	if got := HoldingTime(&trade); got != "" {
		t.Errorf("expected empty holding time without open time, got %q", got)
	}
}

func TestHoldingTimeCloseDateDefaultsToOpen(t *testing.T) {
	trade := types.Trade{
		OpenDate: "2024-01-01", OpenTime: "10:00", CloseTime: "10:45",
	}
	if got := HoldingTime(&trade); got != "45m" {
		t.Errorf("expected 45m, got %q", got)
	}
}

func TestContractMultiplier(t *testing.T) {
	tests := []struct {
		symbol string
		want   int64
	}{
		{"XAUUSD", 100},
		{"GOLD", 100},
		{"XAGUSD", 5000},
		{"EURUSD", 100000},
		{"EUR/USD", 100000},
		{"USDJPY", 1000},
		{"US30", 1},
		{"BTCUSD", 1},
		{"", 1},
	}

	for _, tt := range tests {
		if got := ContractMultiplier(tt.symbol); !got.Equal(decimal.NewFromInt(tt.want)) {
			t.Errorf("ContractMultiplier(%q) = %s, want %d", tt.symbol, got, tt.want)
		}
	}
}
