package journal

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

func TestParseTradeMalformedCellsDegrade(t *testing.T) {
	row := store.TradeRow{
		ID:           "trd_1",
		EntryPrice:   "not-a-number",
		ExitPrice:    "",
		PositionSize: "1.5",
		PnL:          "garbage",
		PnLPct:       "also garbage",
		Emotion:      "eight",
		Direction:    "Buy",
	}
	trade := ParseTrade(row)

	if !trade.EntryPrice.IsZero() {
		t.Errorf("malformed entry should parse to zero, got %s", trade.EntryPrice)
	}
	if !trade.PnL.IsZero() {
		t.Errorf("malformed pnl should parse to zero, got %s", trade.PnL)
	}
	if trade.PnLPct.Valid {
		t.Error("malformed pct should parse to invalid")
	}
	if trade.Emotion != 0 {
		t.Errorf("malformed emotion should parse to zero, got %d", trade.Emotion)
	}
	if !trade.PositionSize.Equal(decimal.NewFromFloat(1.5)) {
		t.Errorf("valid size should survive: %s", trade.PositionSize)
	}
}

func TestTradeRowKeepsBreakevenDistinct(t *testing.T) {
	trade := types.Trade{ID: "trd_1", Direction: types.DirectionBuy}
	row := TradeRow(trade)

	// A breakeven P&L is written as "0"; an absent entry price stays empty.
	if row.PnL != "0" {
		t.Errorf("expected pnl cell \"0\", got %q", row.PnL)
	}
	if row.EntryPrice != "" {
		t.Errorf("expected empty entry cell, got %q", row.EntryPrice)
	}
	if row.PnLPct != "" {
		t.Errorf("expected empty pct cell, got %q", row.PnLPct)
	}
}

func TestTradeRoundTrip(t *testing.T) {
	trade := types.Trade{
		ID:           "trd_1",
		OpenDate:     "2024-03-04",
		OpenTime:     "09:30",
		Symbol:       "XAUUSD",
		Direction:    types.DirectionSell,
		PositionSize: decimal.NewFromFloat(0.5),
		EntryPrice:   decimal.NewFromInt(2000),
		ExitPrice:    decimal.NewFromInt(1990),
		Emotion:      7,
		Strategy:     "breakout",
		Username:     "alice",
	}
	Recompute(&trade)

	got := ParseTrade(TradeRow(trade))
	if !got.PnL.Equal(trade.PnL) {
		t.Errorf("pnl changed across round trip: %s vs %s", got.PnL, trade.PnL)
	}
	if got.Emotion != 7 || got.Strategy != "breakout" || got.Direction != types.DirectionSell {
		t.Errorf("fields changed across round trip: %+v", got)
	}
}

func TestParseWithdrawalBool(t *testing.T) {
	for _, cell := range []string{"TRUE", "true", "Yes", "1"} {
		w := ParseWithdrawal(store.WithdrawalRow{IsProfit: cell})
		if !w.IsProfit {
			t.Errorf("expected %q to parse as profit", cell)
		}
	}
	for _, cell := range []string{"", "FALSE", "no", "0", "junk"} {
		w := ParseWithdrawal(store.WithdrawalRow{IsProfit: cell})
		if w.IsProfit {
			t.Errorf("expected %q to parse as not profit", cell)
		}
	}
}

func TestNormalizeSize(t *testing.T) {
	size := NormalizeSize(decimal.NewFromInt(50), UnitTroyOz)
	if !size.Equal(decimal.NewFromFloat(0.5)) {
		t.Errorf("50 troy oz should be 0.5 lots, got %s", size)
	}
	size = NormalizeSize(decimal.NewFromInt(2), UnitLots)
	if !size.Equal(decimal.NewFromInt(2)) {
		t.Errorf("lots pass through, got %s", size)
	}
}
