// Package store defines the row-store persistence contracts. The journal
// persists into a spreadsheet-style row store: trade and withdrawal cells are
// plain strings, ordering is whatever the store returns, and there is no
// transactionality beyond single-row writes.
package store

import (
	"context"
	"errors"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// ErrNotFound is returned when a row id does not exist.
var ErrNotFound = errors.New("store: row not found")

// TradeRow is one trade as stored: every cell a string. The typed parsing
// boundary in the journal package converts rows to records and back.
type TradeRow struct {
	ID           string
	OpenDate     string
	OpenTime     string
	CloseDate    string
	CloseTime    string
	Symbol       string
	Direction    string
	PositionSize string
	EntryPrice   string
	ExitPrice    string
	StopLoss     string
	TakeProfit   string
	PnL          string
	PnLPct       string
	RiskReward   string
	HoldingTime  string
	Strategy     string
	TimeFrame    string
	ChartPattern string
	Emotion      string
	MainMistake  string
	FollowedPlan string
	Notes        string
	Username     string
}

// WithdrawalRow is one withdrawal as stored.
type WithdrawalRow struct {
	ID       string
	Username string
	Date     string
	Amount   string
	Bank     string
	IsProfit string
	Notes    string
}

// TradeStore persists trade rows.
type TradeStore interface {
	ListTrades(ctx context.Context, username string) ([]TradeRow, error)
	GetTrade(ctx context.Context, id string) (TradeRow, error)
	AppendTrade(ctx context.Context, row TradeRow) error
	UpdateTrade(ctx context.Context, row TradeRow) error
	DeleteTrade(ctx context.Context, id string) error
}

// WithdrawalStore persists withdrawal rows.
type WithdrawalStore interface {
	ListWithdrawals(ctx context.Context, username string) ([]WithdrawalRow, error)
	GetWithdrawal(ctx context.Context, id string) (WithdrawalRow, error)
	AppendWithdrawal(ctx context.Context, row WithdrawalRow) error
	UpdateWithdrawal(ctx context.Context, row WithdrawalRow) error
	DeleteWithdrawal(ctx context.Context, id string) error
}

// UserStore looks up and creates journal accounts.
type UserStore interface {
	GetUser(ctx context.Context, username string) (types.User, error)
	CreateUser(ctx context.Context, user types.User) error
}

// SubscriptionStore tracks push endpoints. Upsert is keyed by endpoint and
// the last writer owns it.
type SubscriptionStore interface {
	UpsertSubscription(ctx context.Context, sub types.Subscription) error
	ListActiveSubscriptions(ctx context.Context, username string) ([]types.Subscription, error)
	DeactivateSubscription(ctx context.Context, endpoint string) error
}

// Store is the full persistence surface the application wires up.
type Store interface {
	TradeStore
	WithdrawalStore
	UserStore
	SubscriptionStore
	Close() error
}
