// Package gormstore implements the row store on GORM + SQLite. Columns for
// trade and withdrawal cells are all text, standing in for the spreadsheet
// the journal was built around; insertion order is preserved per user.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/journal-desktop/journal-backend/internal/store"
	"github.com/journal-desktop/journal-backend/pkg/types"
)

type tradeModel struct {
	ID           string `gorm:"primaryKey"`
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
	Pnl          string
	PnlPct       string
	RiskReward   string
	HoldingTime  string
	Strategy     string
	TimeFrame    string
	ChartPattern string
	Emotion      string
	MainMistake  string
	FollowedPlan string
	Notes        string
	Username     string    `gorm:"index"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (tradeModel) TableName() string { return "trades" }

type withdrawalModel struct {
	ID        string `gorm:"primaryKey"`
	Username  string `gorm:"index"`
	Date      string
	Amount    string
	Bank      string
	IsProfit  string
	Notes     string
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (withdrawalModel) TableName() string { return "withdrawals" }

type userModel struct {
	ID           string `gorm:"primaryKey"`
	Username     string `gorm:"uniqueIndex"`
	PasswordHash string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (userModel) TableName() string { return "users" }

type subscriptionModel struct {
	Endpoint    string `gorm:"primaryKey"`
	Username    string `gorm:"index"`
	UserID      string
	Auth        string
	P256dh      string
	IsActive    bool
	LastUpdated time.Time
}

func (subscriptionModel) TableName() string { return "subscriptions" }

// Store is the GORM-backed row store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New opens (creating if needed) the SQLite database at path and migrates
// the schema.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("gormstore: database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("gormstore: creating database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("gormstore: opening database: %w", err)
	}
	if err := db.AutoMigrate(
		&tradeModel{},
		&withdrawalModel{},
		&userModel{},
		&subscriptionModel{},
	); err != nil {
		return nil, fmt.Errorf("gormstore: migrating schema: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL: a couple of connections cover concurrent HTTP reads
	// without lock contention.
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ListTrades returns the user's trade rows in insertion order.
func (s *Store) ListTrades(ctx context.Context, username string) ([]store.TradeRow, error) {
	var models []tradeModel
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("gormstore: listing trades: %w", err)
	}
	rows := make([]store.TradeRow, len(models))
	for i := range models {
		rows[i] = tradeRowFromModel(&models[i])
	}
	return rows, nil
}

func (s *Store) GetTrade(ctx context.Context, id string) (store.TradeRow, error) {
	var m tradeModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.TradeRow{}, store.ErrNotFound
	}
	if err != nil {
		return store.TradeRow{}, fmt.Errorf("gormstore: loading trade: %w", err)
	}
	return tradeRowFromModel(&m), nil
}

func (s *Store) AppendTrade(ctx context.Context, row store.TradeRow) error {
	m := tradeModelFromRow(&row)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("gormstore: appending trade: %w", err)
	}
	return nil
}

func (s *Store) UpdateTrade(ctx context.Context, row store.TradeRow) error {
	m := tradeModelFromRow(&row)
	res := s.db.WithContext(ctx).Model(&tradeModel{}).
		Where("id = ?", row.ID).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return fmt.Errorf("gormstore: updating trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTrade(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&tradeModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("gormstore: deleting trade: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) ListWithdrawals(ctx context.Context, username string) ([]store.WithdrawalRow, error) {
	var models []withdrawalModel
	err := s.db.WithContext(ctx).
		Where("username = ?", username).
		Order("created_at, id").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("gormstore: listing withdrawals: %w", err)
	}
	rows := make([]store.WithdrawalRow, len(models))
	for i, m := range models {
		rows[i] = store.WithdrawalRow{
			ID: m.ID, Username: m.Username, Date: m.Date,
			Amount: m.Amount, Bank: m.Bank, IsProfit: m.IsProfit, Notes: m.Notes,
		}
	}
	return rows, nil
}

func (s *Store) GetWithdrawal(ctx context.Context, id string) (store.WithdrawalRow, error) {
	var m withdrawalModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.WithdrawalRow{}, store.ErrNotFound
	}
	if err != nil {
		return store.WithdrawalRow{}, fmt.Errorf("gormstore: loading withdrawal: %w", err)
	}
	return store.WithdrawalRow{
		ID: m.ID, Username: m.Username, Date: m.Date,
		Amount: m.Amount, Bank: m.Bank, IsProfit: m.IsProfit, Notes: m.Notes,
	}, nil
}

func (s *Store) AppendWithdrawal(ctx context.Context, row store.WithdrawalRow) error {
	m := withdrawalModel{
		ID: row.ID, Username: row.Username, Date: row.Date,
		Amount: row.Amount, Bank: row.Bank, IsProfit: row.IsProfit, Notes: row.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("gormstore: appending withdrawal: %w", err)
	}
	return nil
}

func (s *Store) UpdateWithdrawal(ctx context.Context, row store.WithdrawalRow) error {
	m := withdrawalModel{
		ID: row.ID, Username: row.Username, Date: row.Date,
		Amount: row.Amount, Bank: row.Bank, IsProfit: row.IsProfit, Notes: row.Notes,
	}
	res := s.db.WithContext(ctx).Model(&withdrawalModel{}).
		Where("id = ?", row.ID).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return fmt.Errorf("gormstore: updating withdrawal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteWithdrawal(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&withdrawalModel{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("gormstore: deleting withdrawal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, username string) (types.User, error) {
	var m userModel
	err := s.db.WithContext(ctx).First(&m, "username = ?", username).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.User{}, store.ErrNotFound
	}
	if err != nil {
		return types.User{}, fmt.Errorf("gormstore: loading user: %w", err)
	}
	return types.User{ID: m.ID, Username: m.Username, PasswordHash: m.PasswordHash}, nil
}

func (s *Store) CreateUser(ctx context.Context, user types.User) error {
	m := userModel{ID: user.ID, Username: user.Username, PasswordHash: user.PasswordHash}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("gormstore: creating user: %w", err)
	}
	return nil
}

// UpsertSubscription writes the subscription keyed by endpoint. A device
// endpoint re-registered under another username is simply taken over.
func (s *Store) UpsertSubscription(ctx context.Context, sub types.Subscription) error {
	m := subscriptionModel{
		Endpoint: sub.Endpoint, Username: sub.Username, UserID: sub.UserID,
		Auth: sub.Auth, P256dh: sub.P256dh,
		IsActive: sub.IsActive, LastUpdated: sub.LastUpdated,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		UpdateAll: true,
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("gormstore: upserting subscription: %w", err)
	}
	return nil
}

func (s *Store) ListActiveSubscriptions(ctx context.Context, username string) ([]types.Subscription, error) {
	var models []subscriptionModel
	err := s.db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("gormstore: listing subscriptions: %w", err)
	}
	subs := make([]types.Subscription, len(models))
	for i, m := range models {
		subs[i] = types.Subscription{
			Endpoint: m.Endpoint, Username: m.Username, UserID: m.UserID,
			Auth: m.Auth, P256dh: m.P256dh,
			IsActive: m.IsActive, LastUpdated: m.LastUpdated,
		}
	}
	return subs, nil
}

func (s *Store) DeactivateSubscription(ctx context.Context, endpoint string) error {
	res := s.db.WithContext(ctx).Model(&subscriptionModel{}).
		Where("endpoint = ?", endpoint).
		Updates(map[string]any{"is_active": false, "last_updated": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("gormstore: deactivating subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func tradeRowFromModel(m *tradeModel) store.TradeRow {
	return store.TradeRow{
		ID:           m.ID,
		OpenDate:     m.OpenDate,
		OpenTime:     m.OpenTime,
		CloseDate:    m.CloseDate,
		CloseTime:    m.CloseTime,
		Symbol:       m.Symbol,
		Direction:    m.Direction,
		PositionSize: m.PositionSize,
		EntryPrice:   m.EntryPrice,
		ExitPrice:    m.ExitPrice,
		StopLoss:     m.StopLoss,
		TakeProfit:   m.TakeProfit,
		PnL:          m.Pnl,
		PnLPct:       m.PnlPct,
		RiskReward:   m.RiskReward,
		HoldingTime:  m.HoldingTime,
		Strategy:     m.Strategy,
		TimeFrame:    m.TimeFrame,
		ChartPattern: m.ChartPattern,
		Emotion:      m.Emotion,
		MainMistake:  m.MainMistake,
		FollowedPlan: m.FollowedPlan,
		Notes:        m.Notes,
		Username:     m.Username,
	}
}

func tradeModelFromRow(r *store.TradeRow) tradeModel {
	return tradeModel{
		ID:           r.ID,
		OpenDate:     r.OpenDate,
		OpenTime:     r.OpenTime,
		CloseDate:    r.CloseDate,
		CloseTime:    r.CloseTime,
		Symbol:       r.Symbol,
		Direction:    r.Direction,
		PositionSize: r.PositionSize,
		EntryPrice:   r.EntryPrice,
		ExitPrice:    r.ExitPrice,
		StopLoss:     r.StopLoss,
		TakeProfit:   r.TakeProfit,
		Pnl:          r.PnL,
		PnlPct:       r.PnLPct,
		RiskReward:   r.RiskReward,
		HoldingTime:  r.HoldingTime,
		Strategy:     r.Strategy,
		TimeFrame:    r.TimeFrame,
		ChartPattern: r.ChartPattern,
		Emotion:      r.Emotion,
		MainMistake:  r.MainMistake,
		FollowedPlan: r.FollowedPlan,
		Notes:        r.Notes,
		Username:     r.Username,
	}
}
