// Package journal implements the trading-journal domain: the typed parsing
// boundary over the string-typed row store, unit normalization, and the
// application service enforcing ownership and derived-field freshness.
package journal

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

// parseDecimal converts a stored cell to a decimal. Malformed or empty cells
// degrade to zero so a single bad row never breaks aggregate computation.
func parseDecimal(cell string) decimal.Decimal {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseNullDecimal(cell string) decimal.NullDecimal {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(cell)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func parseInt(cell string) int {
	n, err := strconv.Atoi(strings.TrimSpace(cell))
	if err != nil {
		return 0
	}
	return n
}

func parseBool(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// formatDecimal renders a decimal cell, keeping absent values as empty
// cells rather than "0".
func formatDecimal(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func formatBool(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// ParseTrade converts a stored row into a typed trade record.
func ParseTrade(row store.TradeRow) types.Trade {
	return types.Trade{
		ID:           row.ID,
		OpenDate:     row.OpenDate,
		OpenTime:     row.OpenTime,
		CloseDate:    row.CloseDate,
		CloseTime:    row.CloseTime,
		Symbol:       row.Symbol,
		Direction:    types.Direction(row.Direction),
		PositionSize: parseDecimal(row.PositionSize),
		EntryPrice:   parseDecimal(row.EntryPrice),
		ExitPrice:    parseDecimal(row.ExitPrice),
		StopLoss:     parseDecimal(row.StopLoss),
		TakeProfit:   parseDecimal(row.TakeProfit),
		PnL:          parseDecimal(row.PnL),
		PnLPct:       parseNullDecimal(row.PnLPct),
		RiskReward:   parseDecimal(row.RiskReward),
		HoldingTime:  row.HoldingTime,
		Strategy:     row.Strategy,
		TimeFrame:    row.TimeFrame,
		ChartPattern: row.ChartPattern,
		Emotion:      parseInt(row.Emotion),
		MainMistake:  row.MainMistake,
		FollowedPlan: row.FollowedPlan,
		Notes:        row.Notes,
		Username:     row.Username,
	}
}

// TradeRow converts a typed trade record back into a stored row. The cached
// P&L cell keeps an explicit "0" so a breakeven trade stays distinguishable
// from a missing value.
func TradeRow(t types.Trade) store.TradeRow {
	emotion := ""
	if t.Emotion != 0 {
		emotion = strconv.Itoa(t.Emotion)
	}
	pnlPct := ""
	if t.PnLPct.Valid {
		pnlPct = t.PnLPct.Decimal.String()
	}
	return store.TradeRow{
		ID:           t.ID,
		OpenDate:     t.OpenDate,
		OpenTime:     t.OpenTime,
		CloseDate:    t.CloseDate,
		CloseTime:    t.CloseTime,
		Symbol:       t.Symbol,
		Direction:    string(t.Direction),
		PositionSize: formatDecimal(t.PositionSize),
		EntryPrice:   formatDecimal(t.EntryPrice),
		ExitPrice:    formatDecimal(t.ExitPrice),
		StopLoss:     formatDecimal(t.StopLoss),
		TakeProfit:   formatDecimal(t.TakeProfit),
		PnL:          t.PnL.String(),
		PnLPct:       pnlPct,
		RiskReward:   formatDecimal(t.RiskReward),
		HoldingTime:  t.HoldingTime,
		Strategy:     t.Strategy,
		TimeFrame:    t.TimeFrame,
		ChartPattern: t.ChartPattern,
		Emotion:      emotion,
		MainMistake:  t.MainMistake,
		FollowedPlan: t.FollowedPlan,
		Notes:        t.Notes,
		Username:     t.Username,
	}
}

// ParseWithdrawal converts a stored row into a typed withdrawal.
func ParseWithdrawal(row store.WithdrawalRow) types.Withdrawal {
	return types.Withdrawal{
		ID:       row.ID,
		Username: row.Username,
		Date:     row.Date,
		Amount:   parseDecimal(row.Amount),
		Bank:     row.Bank,
		IsProfit: parseBool(row.IsProfit),
		Notes:    row.Notes,
	}
}

// WithdrawalRow converts a typed withdrawal back into a stored row.
func WithdrawalRow(w types.Withdrawal) store.WithdrawalRow {
	return store.WithdrawalRow{
		ID:       w.ID,
		Username: w.Username,
		Date:     w.Date,
		Amount:   w.Amount.String(),
		Bank:     w.Bank,
		IsProfit: formatBool(w.IsProfit),
		Notes:    w.Notes,
	}
}
