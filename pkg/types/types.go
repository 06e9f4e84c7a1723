// Package types provides shared type definitions for the journal backend.
package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction represents the side of a logged position.
type Direction string

const (
	DirectionBuy  Direction = "Buy"
	DirectionSell Direction = "Sell"
)

// Valid reports whether the direction is one of the two known values.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell
}

// MainMistake values used by the journal UI. Free-form values are accepted;
// these are the ones the insight detectors care about.
const (
	MistakeNone = "No Mistake"
	MistakeNoSL = "No SL"
)

// Trade is one logged position. Prices and sizes use decimal.Decimal with
// zero meaning "not recorded"; derived fields are cached in storage and
// recomputed whenever any of their inputs change.
type Trade struct {
	ID string `json:"id"`

	// Timing, kept as the journal stores them: date "2006-01-02" and
	// time "15:04" strings, any of which may be empty. Close date falls
	// back to the open date when missing.
	OpenDate  string `json:"openDate"`
	OpenTime  string `json:"openTime"`
	CloseDate string `json:"closeDate"`
	CloseTime string `json:"closeTime"`

	Symbol    string    `json:"symbol"`
	Direction Direction `json:"direction"`

	// PositionSize is always in lots (unit-normalized before storage).
	PositionSize decimal.Decimal `json:"positionSize"`

	EntryPrice decimal.Decimal `json:"entryPrice"`
	ExitPrice  decimal.Decimal `json:"exitPrice"`
	StopLoss   decimal.Decimal `json:"stopLoss"`
	TakeProfit decimal.Decimal `json:"takeProfit"`

	// Derived fields, cached in the row store.
	PnL         decimal.Decimal     `json:"pnl"`
	PnLPct      decimal.NullDecimal `json:"pnlPct"`
	RiskReward  decimal.Decimal     `json:"riskReward"`
	HoldingTime string              `json:"holdingTime"`

	Strategy     string `json:"strategy"`
	TimeFrame    string `json:"timeFrame"`
	ChartPattern string `json:"chartPattern"`
	Emotion      int    `json:"emotion"` // 1-10
	MainMistake  string `json:"mainMistake"`
	FollowedPlan string `json:"followedPlan"` // "Yes"/"No", stored as text
	Notes        string `json:"notes"`

	Username string `json:"username"`
}

// OpenAt parses the trade's open date and time. The returned bool is false
// when the open date is missing or unparsable.
func (t *Trade) OpenAt() (time.Time, bool) {
	return parseDateTime(t.OpenDate, t.OpenTime)
}

// CloseAt parses the trade's close date and time, defaulting the close date
// to the open date when missing.
func (t *Trade) CloseAt() (time.Time, bool) {
	date := t.CloseDate
	if date == "" {
		date = t.OpenDate
	}
	return parseDateTime(date, t.CloseTime)
}

func parseDateTime(date, clock string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	layout := "2006-01-02"
	value := date
	if clock != "" {
		layout = "2006-01-02 15:04"
		value = date + " " + clock
	}
	ts, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Withdrawal is a capital or profit withdrawal event.
type Withdrawal struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Date     string          `json:"date"`
	Amount   decimal.Decimal `json:"amount"`
	Bank     string          `json:"bank"`
	IsProfit bool            `json:"isProfit"`
	Notes    string          `json:"notes"`
}

// Subscription is a push-notification endpoint bound to a user. One endpoint
// may be re-owned by a different username after a device changes hands; the
// last writer wins.
type Subscription struct {
	Endpoint    string    `json:"endpoint"`
	Username    string    `json:"username"`
	UserID      string    `json:"userId"`
	Auth        string    `json:"auth"`
	P256dh      string    `json:"p256dh"`
	IsActive    bool      `json:"isActive"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// User is a journal account row.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
