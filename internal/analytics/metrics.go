// Package analytics provides the trading-journal analytics layer: per-trade
// financial metrics, aggregate statistics, and behavioral insight detectors.
// Everything here is pure computation over in-memory trade records; nothing
// does I/O or mutates its inputs.
package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

var (
	two        = decimal.NewFromInt(2)
	oneHundred = decimal.NewFromInt(100)
)

// fxCurrencies are the ISO codes recognized when classifying a symbol as a
// forex pair.
var fxCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"AUD": true, "NZD": true, "CAD": true, "CHF": true,
	"SGD": true, "SEK": true, "NOK": true, "MXN": true,
	"ZAR": true, "TRY": true, "PLN": true, "HKD": true,
}

// ContractMultiplier returns the canonical per-lot contract multiplier for a
// symbol. One table, applied at the single P&L call site:
//
//	metals: XAU/GOLD 100, XAG/SILVER 5000
//	forex:  JPY crosses 1000, other pairs 100000
//	indices, crypto, anything unrecognized: 1
func ContractMultiplier(symbol string) decimal.Decimal {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case strings.Contains(s, "XAU") || strings.Contains(s, "GOLD"):
		return decimal.NewFromInt(100)
	case strings.Contains(s, "XAG") || strings.Contains(s, "SILVER"):
		return decimal.NewFromInt(5000)
	}
	if base, quote, ok := splitFXPair(s); ok {
		if base == "JPY" || quote == "JPY" {
			return decimal.NewFromInt(1000)
		}
		return decimal.NewFromInt(100000)
	}
	return decimal.NewFromInt(1)
}

// splitFXPair recognizes 6-letter currency pairs, with or without a slash.
func splitFXPair(symbol string) (base, quote string, ok bool) {
	s := strings.ReplaceAll(symbol, "/", "")
	if len(s) != 6 {
		return "", "", false
	}
	base, quote = s[:3], s[3:]
	if fxCurrencies[base] && fxCurrencies[quote] {
		return base, quote, true
	}
	return "", "", false
}

// RiskReward computes the planned risk:reward ratio.
//
//	Buy:  risk = entry - sl, reward = tp - entry
//	Sell: risk = sl - entry, reward = entry - tp
//
// The ratio is only meaningful when entry, stop loss, and take profit are all
// recorded and risk is positive; anything else, including a take profit on
// the wrong side of entry, yields zero.
func RiskReward(entry, sl, tp decimal.Decimal, direction types.Direction) decimal.Decimal {
	if entry.IsZero() || sl.IsZero() || tp.IsZero() {
		return decimal.Zero
	}
	var risk, reward decimal.Decimal
	if direction == types.DirectionSell {
		risk = sl.Sub(entry)
		reward = entry.Sub(tp)
	} else {
		risk = entry.Sub(sl)
		reward = tp.Sub(entry)
	}
	if !risk.IsPositive() {
		return decimal.Zero
	}
	ratio := reward.Div(risk)
	if ratio.IsNegative() {
		return decimal.Zero
	}
	return ratio
}

// PnL computes the signed currency result of a closed trade: positive means
// profit, with the direction flipping the entry/exit delta. Any missing
// input degrades to zero rather than producing a bogus figure.
func PnL(entry, exit, size decimal.Decimal, direction types.Direction, symbol string) decimal.Decimal {
	if entry.IsZero() || exit.IsZero() || size.IsZero() {
		return decimal.Zero
	}
	delta := exit.Sub(entry)
	if direction == types.DirectionSell {
		delta = entry.Sub(exit)
	}
	return delta.Mul(size).Mul(ContractMultiplier(symbol))
}

// PnLPercent computes the signed percent return of a closed trade, rounded
// to two decimal places. Invalid when entry or exit is missing, so that the
// sign always agrees with PnL for the same trade.
func PnLPercent(entry, exit decimal.Decimal, direction types.Direction) decimal.NullDecimal {
	if entry.IsZero() || exit.IsZero() {
		return decimal.NullDecimal{}
	}
	delta := exit.Sub(entry)
	if direction == types.DirectionSell {
		delta = entry.Sub(exit)
	}
	pct := delta.Div(entry).Mul(oneHundred).Round(2)
	return decimal.NullDecimal{Decimal: pct, Valid: true}
}

// FormatHoldingTime renders the time a position was held, floor-to-minute:
// "45m" under an hour, "3h" / "3h 30m" under a day, "2d" / "2d 3h" beyond.
// A close at or before the open yields an empty string, never a negative.
func FormatHoldingTime(open, close time.Time) string {
	if !close.After(open) {
		return ""
	}
	minutes := int(close.Sub(open).Minutes())
	switch {
	case minutes < 60:
		return fmt.Sprintf("%dm", minutes)
	case minutes < 24*60:
		h, m := minutes/60, minutes%60
		if m == 0 {
			return fmt.Sprintf("%dh", h)
		}
		return fmt.Sprintf("%dh %dm", h, m)
	default:
		d, h := minutes/(24*60), (minutes%(24*60))/60
		if h == 0 {
			return fmt.Sprintf("%dd", d)
		}
		return fmt.Sprintf("%dd %dh", d, h)
	}
}

// HoldingTime computes the formatted holding time for a trade. It requires
// the open date, open time, and close time to all be present; otherwise the
// holding time is unknown and the result is empty, not zero.
func HoldingTime(t *types.Trade) string {
	if t.OpenDate == "" || t.OpenTime == "" || t.CloseTime == "" {
		return ""
	}
	open, ok := t.OpenAt()
	if !ok {
		return ""
	}
	close, ok := t.CloseAt()
	if !ok {
		return ""
	}
	return FormatHoldingTime(open, close)
}

// holdingMinutes returns the held duration in whole minutes, or false when
// it cannot be computed for the trade.
func holdingMinutes(t *types.Trade) (int, bool) {
	if t.OpenDate == "" || t.OpenTime == "" || t.CloseTime == "" {
		return 0, false
	}
	open, ok := t.OpenAt()
	if !ok {
		return 0, false
	}
	close, ok := t.CloseAt()
	if !ok || !close.After(open) {
		return 0, false
	}
	return int(close.Sub(open).Minutes()), true
}
