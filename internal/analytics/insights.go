package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// Detector thresholds. These mirror the journal's behavioral heuristics;
// each is an independent read-only scan over the same sorted trade list.
var (
	revengeSizeFactor    = decimal.NewFromFloat(1.2)
	weakDayPnLThreshold  = decimal.NewFromInt(-100)
	recoveryDipPct       = decimal.NewFromInt(-10)
	recoveryBouncePct    = decimal.NewFromInt(-2)
	overtradingWinRate   = decimal.NewFromFloat(0.45)
	biasLowWinRate       = decimal.NewFromFloat(0.30)
	biasHighWinRate      = decimal.NewFromFloat(0.50)
	breakevenAbuseShare  = decimal.NewFromFloat(0.30)
	sniperRealizedRR     = decimal.NewFromInt(2)
	trendRiderRatioLimit = 2.0
)

const (
	recentPairWindow      = 5
	hoppingWindow         = 10
	hoppingMinStrategies  = 3
	tiltWindow            = 4
	losingStreakLimit     = 3
	winningStreakLimit    = 4
	biasMinTrades         = 10
	improvingWindow       = 5
	overtradingPerDay     = 5
)

// Insights is the full set of behavioral flags and derived values computed
// over a user's trades. "No data" and "condition not met" are the same
// false/zero state throughout.
type Insights struct {
	RevengeTrading bool `json:"revengeTrading"`

	LosingStreak  int  `json:"losingStreak"`
	WinningStreak int  `json:"winningStreak"`
	StopTrading   bool `json:"stopTrading"`
	HotHand       bool `json:"hotHand"`

	BiasedDirection types.Direction `json:"biasedDirection,omitempty"`

	StrategyHopping  bool `json:"strategyHopping"`
	RecentStrategies int  `json:"recentStrategies"`

	Tilt bool `json:"tilt"`

	WeakDays []string `json:"weakDays,omitempty"`

	NoStopLossHazard bool `json:"noStopLossHazard"`
	BreakevenAbuse   bool `json:"breakevenAbuse"`
	Overconfidence   bool `json:"overconfidence"`

	RealizedRR  decimal.Decimal `json:"realizedRr"`
	SniperEntry bool            `json:"sniperEntry"`

	TrendRiderRatio decimal.Decimal `json:"trendRiderRatio"`
	TrendRider      bool            `json:"trendRider"`

	Recovery    bool `json:"recovery"`
	Improving   bool `json:"improving"`
	Overtrading bool `json:"overtrading"`

	BestHour    int    `json:"bestHour"`              // -1 when no profitable hour
	BestWeekday string `json:"bestWeekday,omitempty"` // "" when no profitable day
}

// SortNewestFirst returns a copy of the trades ordered newest-first by open
// date and time. Trades without a parsable open date sort to the end.
func SortNewestFirst(trades []types.Trade) []types.Trade {
	sorted := make([]types.Trade, len(trades))
	copy(sorted, trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, iOK := sorted[i].OpenAt()
		tj, jOK := sorted[j].OpenAt()
		switch {
		case iOK && jOK:
			return ti.After(tj)
		case iOK:
			return true
		default:
			return false
		}
	})
	return sorted
}

// Analyze runs every detector over the trade list. It tolerates empty and
// single-element lists; every flag simply stays off.
func Analyze(trades []types.Trade) Insights {
	ins := Insights{BestHour: -1}
	if len(trades) == 0 {
		return ins
	}

	sorted := SortNewestFirst(trades)
	summary := Summarize(sorted)

	ins.RevengeTrading = detectRevenge(sorted)
	ins.LosingStreak, ins.WinningStreak = currentStreaks(sorted)
	ins.StopTrading = ins.LosingStreak >= losingStreakLimit
	ins.HotHand = ins.WinningStreak >= winningStreakLimit
	ins.BiasedDirection = detectDirectionalBias(sorted)
	ins.RecentStrategies = distinctRecentStrategies(sorted)
	ins.StrategyHopping = ins.RecentStrategies >= hoppingMinStrategies
	ins.Tilt = detectTilt(sorted)
	ins.WeakDays = weakWeekdays(sorted)
	ins.NoStopLossHazard = detectNoStopLossHazard(sorted, summary)
	ins.BreakevenAbuse = detectBreakevenAbuse(summary)
	ins.Overconfidence = detectOverconfidence(sorted, summary)

	if summary.AvgLoss.IsPositive() {
		ins.RealizedRR = summary.AvgWin.Div(summary.AvgLoss)
		ins.SniperEntry = ins.RealizedRR.GreaterThanOrEqual(sniperRealizedRR)
	}

	ins.TrendRiderRatio, ins.TrendRider = trendRiderRatio(sorted)
	ins.Recovery = detectRecovery(sorted, summary)
	ins.Improving = detectImproving(sorted, summary)
	ins.Overtrading = detectOvertrading(sorted, summary)
	ins.BestHour = bestHour(sorted)
	ins.BestWeekday = bestWeekday(sorted)

	return ins
}

// detectRevenge flags position-size escalation right after a loss: within
// the 5 most recent consecutive pairs, an older losing trade followed by a
// newer trade sized more than 1.2x larger.
func detectRevenge(sorted []types.Trade) bool {
	for i := 0; i < recentPairWindow && i+1 < len(sorted); i++ {
		newer, older := &sorted[i], &sorted[i+1]
		if older.PnL.IsNegative() &&
			newer.PositionSize.GreaterThan(older.PositionSize.Mul(revengeSizeFactor)) {
			return true
		}
	}
	return false
}

// currentStreaks counts consecutive same-sign trades starting from the most
// recent. A breakeven trade breaks a streak in either direction.
func currentStreaks(sorted []types.Trade) (losing, winning int) {
	for i := range sorted {
		pnl := sorted[i].PnL
		switch {
		case pnl.IsNegative() && winning == 0:
			losing++
		case pnl.IsPositive() && losing == 0:
			winning++
		default:
			return losing, winning
		}
	}
	return losing, winning
}

// detectDirectionalBias looks for one direction bleeding while the opposite
// works. Only evaluated with more than 10 trades.
func detectDirectionalBias(sorted []types.Trade) types.Direction {
	if len(sorted) <= biasMinTrades {
		return ""
	}
	winRate := func(dir types.Direction) (decimal.Decimal, bool) {
		var total, wins int
		for i := range sorted {
			if sorted[i].Direction != dir {
				continue
			}
			total++
			if sorted[i].PnL.IsPositive() {
				wins++
			}
		}
		if total == 0 {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(wins)).Div(decimal.NewFromInt(int64(total))), true
	}
	buyRate, hasBuys := winRate(types.DirectionBuy)
	sellRate, hasSells := winRate(types.DirectionSell)
	if !hasBuys || !hasSells {
		return ""
	}
	if buyRate.LessThan(biasLowWinRate) && sellRate.GreaterThan(biasHighWinRate) {
		return types.DirectionBuy
	}
	if sellRate.LessThan(biasLowWinRate) && buyRate.GreaterThan(biasHighWinRate) {
		return types.DirectionSell
	}
	return ""
}

func distinctRecentStrategies(sorted []types.Trade) int {
	seen := make(map[string]bool)
	for i := 0; i < len(sorted) && i < hoppingWindow; i++ {
		if s := sorted[i].Strategy; s != "" {
			seen[s] = true
		}
	}
	return len(seen)
}

// detectTilt flags four most-recent trades that are all losses.
func detectTilt(sorted []types.Trade) bool {
	if len(sorted) < tiltWindow {
		return false
	}
	for i := 0; i < tiltWindow; i++ {
		if !sorted[i].PnL.IsNegative() {
			return false
		}
	}
	return true
}

// weakWeekdays sums P&L per weekday name (open date only) and reports the
// days below the fixed currency threshold.
func weakWeekdays(sorted []types.Trade) []string {
	sums := pnlByWeekday(sorted)
	var weak []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if sum, ok := sums[d]; ok && sum.LessThan(weakDayPnLThreshold) {
			weak = append(weak, d.String())
		}
	}
	return weak
}

func pnlByWeekday(sorted []types.Trade) map[time.Weekday]decimal.Decimal {
	sums := make(map[time.Weekday]decimal.Decimal)
	for i := range sorted {
		if sorted[i].OpenDate == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", sorted[i].OpenDate)
		if err != nil {
			continue
		}
		wd := day.Weekday()
		sums[wd] = sums[wd].Add(sorted[i].PnL)
	}
	return sums
}

// detectNoStopLossHazard flags trades logged with the "No SL" mistake, or
// outsized losses (worse than twice the average loss) taken without a stop.
func detectNoStopLossHazard(sorted []types.Trade, summary Summary) bool {
	threshold := summary.AvgLoss.Mul(two).Neg()
	for i := range sorted {
		t := &sorted[i]
		if t.MainMistake == types.MistakeNoSL {
			return true
		}
		if summary.AvgLoss.IsPositive() && t.PnL.LessThan(threshold) && t.StopLoss.IsZero() {
			return true
		}
	}
	return false
}

func detectBreakevenAbuse(summary Summary) bool {
	if summary.TotalTrades == 0 {
		return false
	}
	share := decimal.NewFromInt(int64(summary.Breakevens)).
		Div(decimal.NewFromInt(int64(summary.TotalTrades)))
	return share.GreaterThan(breakevenAbuseShare)
}

// detectOverconfidence flags an outsized win (over twice the average win)
// immediately followed by a loss, within the 5 most recent pairs.
func detectOverconfidence(sorted []types.Trade, summary Summary) bool {
	if !summary.AvgWin.IsPositive() {
		return false
	}
	bigWin := summary.AvgWin.Mul(two)
	for i := 0; i < recentPairWindow && i+1 < len(sorted); i++ {
		newer, older := &sorted[i], &sorted[i+1]
		if older.PnL.GreaterThan(bigWin) && newer.PnL.IsNegative() {
			return true
		}
	}
	return false
}

// trendRiderRatio compares average holding minutes of winners against losers,
// computed only over trades whose holding time is known. Both sides must have
// data for the ratio to exist.
func trendRiderRatio(sorted []types.Trade) (decimal.Decimal, bool) {
	var winMinutes, lossMinutes, winCount, lossCount int
	for i := range sorted {
		minutes, ok := holdingMinutes(&sorted[i])
		if !ok || minutes <= 0 {
			continue
		}
		switch {
		case sorted[i].PnL.IsPositive():
			winMinutes += minutes
			winCount++
		case sorted[i].PnL.IsNegative():
			lossMinutes += minutes
			lossCount++
		}
	}
	if winCount == 0 || lossCount == 0 || lossMinutes == 0 {
		return decimal.Zero, false
	}
	avgWin := float64(winMinutes) / float64(winCount)
	avgLoss := float64(lossMinutes) / float64(lossCount)
	if avgLoss == 0 {
		return decimal.Zero, false
	}
	ratio := avgWin / avgLoss
	return decimal.NewFromFloat(ratio).Round(2), ratio > trendRiderRatioLimit
}

// detectRecovery flags an account that has been down more than 10% on a
// single trade but whose latest trade is back above -2%.
func detectRecovery(sorted []types.Trade, summary Summary) bool {
	if !summary.MaxDrawdownPct.Valid || !summary.MaxDrawdownPct.Decimal.LessThan(recoveryDipPct) {
		return false
	}
	latest := sorted[0].PnLPct
	return latest.Valid && latest.Decimal.GreaterThan(recoveryBouncePct)
}

// detectImproving flags a recent average P&L above the all-time average,
// once there is enough history to mean anything.
func detectImproving(sorted []types.Trade, summary Summary) bool {
	if len(sorted) <= biasMinTrades {
		return false
	}
	var recent decimal.Decimal
	n := improvingWindow
	if len(sorted) < n {
		n = len(sorted)
	}
	for i := 0; i < n; i++ {
		recent = recent.Add(sorted[i].PnL)
	}
	recentAvg := recent.Div(decimal.NewFromInt(int64(n)))
	overallAvg := summary.TotalPnL.Div(decimal.NewFromInt(int64(len(sorted))))
	return recentAvg.GreaterThan(overallAvg)
}

// detectOvertrading flags more than 5 trades per distinct trading day paired
// with a win rate under 45%.
func detectOvertrading(sorted []types.Trade, summary Summary) bool {
	days := make(map[string]bool)
	for i := range sorted {
		if sorted[i].OpenDate != "" {
			days[sorted[i].OpenDate] = true
		}
	}
	if len(days) == 0 {
		return false
	}
	perDay := decimal.NewFromInt(int64(summary.TotalTrades)).
		Div(decimal.NewFromInt(int64(len(days))))
	return perDay.GreaterThan(decimal.NewFromInt(overtradingPerDay)) &&
		summary.WinRate.LessThan(overtradingWinRate)
}

// bestHour returns the hour of day with the highest summed P&L, or -1 when
// no hour sums positive.
func bestHour(sorted []types.Trade) int {
	sums := make(map[int]decimal.Decimal)
	for i := range sorted {
		if sorted[i].OpenTime == "" {
			continue
		}
		clock, err := time.Parse("15:04", sorted[i].OpenTime)
		if err != nil {
			continue
		}
		h := clock.Hour()
		sums[h] = sums[h].Add(sorted[i].PnL)
	}
	best, bestSum := -1, decimal.Zero
	for h := 0; h < 24; h++ {
		if sum, ok := sums[h]; ok && sum.GreaterThan(bestSum) {
			best, bestSum = h, sum
		}
	}
	return best
}

// bestWeekday returns the weekday with the highest summed P&L, or "" when
// no day sums positive.
func bestWeekday(sorted []types.Trade) string {
	sums := pnlByWeekday(sorted)
	best, bestSum := "", decimal.Zero
	for d := time.Sunday; d <= time.Saturday; d++ {
		if sum, ok := sums[d]; ok && sum.GreaterThan(bestSum) {
			best, bestSum = d.String(), sum
		}
	}
	return best
}
