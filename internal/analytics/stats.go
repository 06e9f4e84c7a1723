package analytics

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Summary holds the aggregate statistics the dashboard renders.
type Summary struct {
	TotalTrades int `json:"totalTrades"`
	Wins        int `json:"wins"`
	Losses      int `json:"losses"`
	Breakevens  int `json:"breakevens"`

	TotalPnL decimal.Decimal `json:"totalPnl"`
	WinRate  decimal.Decimal `json:"winRate"` // 0..1
	AvgWin   decimal.Decimal `json:"avgWin"`
	AvgLoss  decimal.Decimal `json:"avgLoss"` // magnitude, always >= 0

	GrossProfit decimal.Decimal `json:"grossProfit"`
	GrossLoss   decimal.Decimal `json:"grossLoss"` // magnitude

	// ProfitFactor is a display value: "∞" when there are profits but no
	// losses, "0.00" when there is nothing to divide, otherwise the ratio
	// with two decimals. A sentinel, not a numeric division result.
	ProfitFactor string `json:"profitFactor"`

	Expectancy decimal.Decimal `json:"expectancy"` // currency per trade
	SQN        decimal.Decimal `json:"sqn"`

	// MaxDrawdownPct is the single worst per-trade percent return, not a
	// cumulative-equity drawdown. Invalid when no trade has a percent.
	MaxDrawdownPct decimal.NullDecimal `json:"maxDrawdownPct"`
}

// Summarize computes aggregate statistics over a trade list. An empty list
// produces a zero-valued summary.
func Summarize(trades []types.Trade) Summary {
	s := Summary{ProfitFactor: "0.00", TotalTrades: len(trades)}
	if len(trades) == 0 {
		return s
	}

	for i := range trades {
		pnl := trades[i].PnL
		s.TotalPnL = s.TotalPnL.Add(pnl)
		switch {
		case pnl.IsPositive():
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(pnl)
		case pnl.IsNegative():
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(pnl.Abs())
		default:
			s.Breakevens++
		}
		if p := trades[i].PnLPct; p.Valid {
			if !s.MaxDrawdownPct.Valid || p.Decimal.LessThan(s.MaxDrawdownPct.Decimal) {
				s.MaxDrawdownPct = p
			}
		}
	}

	total := decimal.NewFromInt(int64(s.TotalTrades))
	s.WinRate = decimal.NewFromInt(int64(s.Wins)).Div(total)
	if s.Wins > 0 {
		s.AvgWin = s.GrossProfit.Div(decimal.NewFromInt(int64(s.Wins)))
	}
	if s.Losses > 0 {
		s.AvgLoss = s.GrossLoss.Div(decimal.NewFromInt(int64(s.Losses)))
	}

	// Expectancy: winRate*avgWin - (1-winRate)*avgLoss
	lossRate := decimal.NewFromInt(1).Sub(s.WinRate)
	s.Expectancy = s.WinRate.Mul(s.AvgWin).Sub(lossRate.Mul(s.AvgLoss))

	if s.GrossLoss.IsZero() {
		if s.GrossProfit.IsPositive() {
			s.ProfitFactor = "∞"
		}
	} else {
		s.ProfitFactor = s.GrossProfit.Div(s.GrossLoss).StringFixed(2)
	}

	s.SQN = sqn(trades)
	return s
}

// sqn computes the System Quality Number: (mean / population stddev) * sqrt(N).
// Statistics needing a square root run through float64, like the rest of the
// ratio math in this package's ancestry; money itself stays decimal.
func sqn(trades []types.Trade) decimal.Decimal {
	n := len(trades)
	if n == 0 {
		return decimal.Zero
	}
	pnls := make([]float64, n)
	var sum float64
	for i := range trades {
		f, _ := trades[i].PnL.Float64()
		pnls[i] = f
		sum += f
	}
	mean := sum / float64(n)
	var sumSquares float64
	for _, v := range pnls {
		diff := v - mean
		sumSquares += diff * diff
	}
	stdDev := math.Sqrt(sumSquares / float64(n))
	if stdDev == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(mean / stdDev * math.Sqrt(float64(n)))
}

// GroupStat is one bucket of a grouped breakdown.
type GroupStat struct {
	Key      string          `json:"key"`
	Trades   int             `json:"trades"`
	Wins     int             `json:"wins"`
	TotalPnL decimal.Decimal `json:"totalPnl"`
	WinRate  decimal.Decimal `json:"winRate"`
	AvgPnL   decimal.Decimal `json:"avgPnl"`
}

func groupBy(trades []types.Trade, key func(*types.Trade) string) []GroupStat {
	buckets := make(map[string]*GroupStat)
	var order []string
	for i := range trades {
		k := key(&trades[i])
		if k == "" {
			continue
		}
		g, ok := buckets[k]
		if !ok {
			g = &GroupStat{Key: k}
			buckets[k] = g
			order = append(order, k)
		}
		g.Trades++
		g.TotalPnL = g.TotalPnL.Add(trades[i].PnL)
		if trades[i].PnL.IsPositive() {
			g.Wins++
		}
	}
	out := make([]GroupStat, 0, len(order))
	for _, k := range order {
		g := buckets[k]
		n := decimal.NewFromInt(int64(g.Trades))
		g.WinRate = decimal.NewFromInt(int64(g.Wins)).Div(n)
		g.AvgPnL = g.TotalPnL.Div(n)
		out = append(out, *g)
	}
	return out
}

// GroupByStrategy breaks trades down per strategy, best average P&L first.
func GroupByStrategy(trades []types.Trade) []GroupStat {
	out := groupBy(trades, func(t *types.Trade) string { return t.Strategy })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgPnL.GreaterThan(out[j].AvgPnL)
	})
	return out
}

// timeFrameOrder is the canonical display order for time-frame buckets.
var timeFrameOrder = map[string]int{
	"1m": 0, "5m": 1, "15m": 2, "30m": 3,
	"1h": 4, "4h": 5, "1d": 6, "1w": 7,
}

// GroupByTimeFrame breaks trades down per time frame in canonical order;
// unrecognized frames sort after the known ones, alphabetically.
func GroupByTimeFrame(trades []types.Trade) []GroupStat {
	out := groupBy(trades, func(t *types.Trade) string { return t.TimeFrame })
	sort.SliceStable(out, func(i, j int) bool {
		oi, iOK := timeFrameOrder[out[i].Key]
		oj, jOK := timeFrameOrder[out[j].Key]
		switch {
		case iOK && jOK:
			return oi < oj
		case iOK:
			return true
		case jOK:
			return false
		default:
			return out[i].Key < out[j].Key
		}
	})
	return out
}

// GroupByDirection breaks trades down by Buy/Sell.
func GroupByDirection(trades []types.Trade) []GroupStat {
	return groupBy(trades, func(t *types.Trade) string { return string(t.Direction) })
}

// GroupByPattern breaks trades down per chart pattern, highest total P&L first.
func GroupByPattern(trades []types.Trade) []GroupStat {
	out := groupBy(trades, func(t *types.Trade) string { return t.ChartPattern })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalPnL.GreaterThan(out[j].TotalPnL)
	})
	return out
}

// bestStrategyMinTrades and bestStrategyMinWinRate gate the "best strategy"
// callout so a lucky two-trade strategy never qualifies.
var bestStrategyMinWinRate = decimal.NewFromFloat(0.5)

const bestStrategyMinTrades = 3

// BestStrategy returns the qualifying strategy with the highest average P&L.
// A strategy qualifies with at least 3 trades and a win rate of 50% or more;
// when none qualifies the second result is false.
func BestStrategy(trades []types.Trade) (GroupStat, bool) {
	for _, g := range GroupByStrategy(trades) {
		if g.Trades >= bestStrategyMinTrades && g.WinRate.GreaterThanOrEqual(bestStrategyMinWinRate) {
			return g, true
		}
	}
	return GroupStat{}, false
}
