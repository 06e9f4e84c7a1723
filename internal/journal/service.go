package journal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/journal-desktop/journal-backend/internal/analytics"
	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
	"github.com/journal-desktop/journal-backend/pkg/utils"
)

var (
	// ErrOwnership is returned when a caller touches a record owned by a
	// different username. This is a rejected operation, not a computation
	// error.
	ErrOwnership = errors.New("journal: record owned by another user")

	// ErrNotFound mirrors the store's not-found for callers that only see
	// the service.
	ErrNotFound = store.ErrNotFound

	ErrInvalidDirection = errors.New("journal: direction must be Buy or Sell")
	ErrInvalidAmount    = errors.New("journal: withdrawal amount must be positive")
)

// Alerter is notified with the user's full trade list after a successful
// trade save. Implementations must not block; the save path does not wait
// on delivery.
type Alerter interface {
	TradeSaved(ctx context.Context, username string, trades []types.Trade)
}

// Service is the journal application service. All reads and writes flow
// through it so derived fields are never stale and ownership is always
// checked before a write.
type Service struct {
	logger *zap.Logger
	store  store.Store
	alerts Alerter
}

// NewService creates the journal service.
func NewService(logger *zap.Logger, st store.Store) *Service {
	return &Service{logger: logger, store: st}
}

// SetAlerter attaches a post-save alerter. A nil alerter disables alerts.
func (s *Service) SetAlerter(a Alerter) {
	s.alerts = a
}

// alertSaved re-reads the user's trades and hands them to the alerter. A
// failed read only costs the alert, never the save.
func (s *Service) alertSaved(ctx context.Context, username string) {
	if s.alerts == nil {
		return
	}
	trades, err := s.ListTrades(ctx, username)
	if err != nil {
		s.logger.Warn("skipping post-save alerts", zap.Error(err))
		return
	}
	s.alerts.TradeSaved(ctx, username, trades)
}

// Recompute refreshes every derived field from the trade's raw inputs. It
// runs on every save so an edit of any price, size, time, or direction can
// never leave a stale cached value behind.
func Recompute(t *types.Trade) {
	t.PnL = analytics.PnL(t.EntryPrice, t.ExitPrice, t.PositionSize, t.Direction, t.Symbol)
	t.PnLPct = analytics.PnLPercent(t.EntryPrice, t.ExitPrice, t.Direction)
	t.RiskReward = analytics.RiskReward(t.EntryPrice, t.StopLoss, t.TakeProfit, t.Direction)
	t.HoldingTime = analytics.HoldingTime(t)
}

// ListTrades returns the user's trades parsed into typed records, in the
// order the store keeps them.
func (s *Service) ListTrades(ctx context.Context, username string) ([]types.Trade, error) {
	rows, err := s.store.ListTrades(ctx, username)
	if err != nil {
		return nil, err
	}
	trades := make([]types.Trade, len(rows))
	for i, row := range rows {
		trades[i] = ParseTrade(row)
	}
	return trades, nil
}

// CreateTrade records a new trade for the user. The size is normalized to
// lots, derived fields are computed, and ownership is fixed to the caller.
func (s *Service) CreateTrade(ctx context.Context, username string, t types.Trade, unit SizeUnit) (types.Trade, error) {
	if t.Direction == "" {
		t.Direction = types.DirectionBuy
	}
	if !t.Direction.Valid() {
		return types.Trade{}, ErrInvalidDirection
	}
	if t.ID == "" {
		t.ID = utils.GenerateTradeID()
	}
	t.Symbol = strings.TrimSpace(t.Symbol)
	t.PositionSize = NormalizeSize(t.PositionSize, unit)
	t.Username = username
	Recompute(&t)

	if err := s.store.AppendTrade(ctx, TradeRow(t)); err != nil {
		return types.Trade{}, fmt.Errorf("creating trade: %w", err)
	}
	s.logger.Info("trade recorded",
		zap.String("id", t.ID),
		zap.String("symbol", t.Symbol),
		zap.String("username", username),
	)
	s.alertSaved(ctx, username)
	return t, nil
}

// UpdateTrade edits an existing trade. The first writer's username sticks;
// an edit under a different username is rejected.
func (s *Service) UpdateTrade(ctx context.Context, username string, t types.Trade, unit SizeUnit) (types.Trade, error) {
	existing, err := s.store.GetTrade(ctx, t.ID)
	if err != nil {
		return types.Trade{}, err
	}
	if existing.Username != "" && existing.Username != username {
		return types.Trade{}, ErrOwnership
	}
	if t.Direction == "" {
		t.Direction = types.DirectionBuy
	}
	if !t.Direction.Valid() {
		return types.Trade{}, ErrInvalidDirection
	}
	t.Symbol = strings.TrimSpace(t.Symbol)
	t.PositionSize = NormalizeSize(t.PositionSize, unit)
	t.Username = username
	if existing.Username != "" {
		t.Username = existing.Username
	}
	Recompute(&t)

	if err := s.store.UpdateTrade(ctx, TradeRow(t)); err != nil {
		return types.Trade{}, fmt.Errorf("updating trade: %w", err)
	}
	s.alertSaved(ctx, username)
	return t, nil
}

// DeleteTrade removes a trade after an ownership check.
func (s *Service) DeleteTrade(ctx context.Context, username, id string) error {
	existing, err := s.store.GetTrade(ctx, id)
	if err != nil {
		return err
	}
	if existing.Username != "" && existing.Username != username {
		return ErrOwnership
	}
	return s.store.DeleteTrade(ctx, id)
}

// ListWithdrawals returns the user's withdrawals.
func (s *Service) ListWithdrawals(ctx context.Context, username string) ([]types.Withdrawal, error) {
	rows, err := s.store.ListWithdrawals(ctx, username)
	if err != nil {
		return nil, err
	}
	out := make([]types.Withdrawal, len(rows))
	for i, row := range rows {
		out[i] = ParseWithdrawal(row)
	}
	return out, nil
}

// CreateWithdrawal records a withdrawal for the user.
func (s *Service) CreateWithdrawal(ctx context.Context, username string, w types.Withdrawal) (types.Withdrawal, error) {
	if !w.Amount.IsPositive() {
		return types.Withdrawal{}, ErrInvalidAmount
	}
	if w.ID == "" {
		w.ID = utils.GenerateWithdrawalID()
	}
	w.Username = username
	if err := s.store.AppendWithdrawal(ctx, WithdrawalRow(w)); err != nil {
		return types.Withdrawal{}, fmt.Errorf("creating withdrawal: %w", err)
	}
	return w, nil
}

// UpdateWithdrawal edits a withdrawal owned by the user.
func (s *Service) UpdateWithdrawal(ctx context.Context, username string, w types.Withdrawal) (types.Withdrawal, error) {
	existing, err := s.store.GetWithdrawal(ctx, w.ID)
	if err != nil {
		return types.Withdrawal{}, err
	}
	if existing.Username != "" && existing.Username != username {
		return types.Withdrawal{}, ErrOwnership
	}
	if !w.Amount.IsPositive() {
		return types.Withdrawal{}, ErrInvalidAmount
	}
	w.Username = username
	if err := s.store.UpdateWithdrawal(ctx, WithdrawalRow(w)); err != nil {
		return types.Withdrawal{}, fmt.Errorf("updating withdrawal: %w", err)
	}
	return w, nil
}

// DeleteWithdrawal removes a withdrawal after an ownership check.
func (s *Service) DeleteWithdrawal(ctx context.Context, username, id string) error {
	existing, err := s.store.GetWithdrawal(ctx, id)
	if err != nil {
		return err
	}
	if existing.Username != "" && existing.Username != username {
		return ErrOwnership
	}
	return s.store.DeleteWithdrawal(ctx, id)
}
