package analytics

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/journal-desktop/journal-backend/pkg/types"
)

// datedTrade builds a trade whose recency is controlled by day: higher day
// means more recent.
func datedTrade(day int, pnl, size string) types.Trade {
	return types.Trade{
		OpenDate:     fmt.Sprintf("2024-03-%02d", day),
		OpenTime:     "10:00",
		PnL:          d(pnl),
		PositionSize: d(size),
	}
}

func TestAnalyzeEmptyAndSingle(t *testing.T) {
	ins := Analyze(nil)
	if ins.RevengeTrading || ins.Tilt || ins.StopTrading || ins.Overtrading {
		t.Errorf("expected no flags on empty list: %+v", ins)
	}
	if ins.BestHour != -1 {
		t.Errorf("expected no best hour, got %d", ins.BestHour)
	}

	ins = Analyze([]types.Trade{datedTrade(1, "-50", "1")})
	if ins.LosingStreak != 1 {
		t.Errorf("expected losing streak 1, got %d", ins.LosingStreak)
	}
	if ins.StopTrading {
		t.Error("one loss should not trigger stop trading")
	}
}

func TestSortNewestFirst(t *testing.T) {
	trades := []types.Trade{
		datedTrade(1, "0", "1"),
		{PnL: d("0")}, // no date, sorts last
		datedTrade(9, "0", "1"),
		datedTrade(5, "0", "1"),
	}
	sorted := SortNewestFirst(trades)
	if sorted[0].OpenDate != "2024-03-09" || sorted[1].OpenDate != "2024-03-05" {
		t.Errorf("bad order: %s, %s", sorted[0].OpenDate, sorted[1].OpenDate)
	}
	if sorted[3].OpenDate != "" {
		t.Error("dateless trade should sort to the end")
	}
	// Same-day ordering falls back to time.
	a := datedTrade(1, "0", "1")
	a.OpenTime = "09:00"
	b := datedTrade(1, "0", "1")
	b.OpenTime = "15:00"
	sorted = SortNewestFirst([]types.Trade{a, b})
	if sorted[0].OpenTime != "15:00" {
		t.Errorf("expected later time first, got %s", sorted[0].OpenTime)
	}
}

func TestRevengeTrading(t *testing.T) {
	// Older trade loses with size 1, newer trade sized 1.5 (> 1.2x): revenge.
	trades := []types.Trade{
		datedTrade(1, "-30", "1"),  // older
		datedTrade(2, "-50", "1.5"), // newer
	}
	if !Analyze(trades).RevengeTrading {
		t.Error("expected revenge flag with 1.5x size after a loss")
	}

	// Size within tolerance: no flag.
	trades = []types.Trade{
		datedTrade(1, "-30", "1"),
		datedTrade(2, "-50", "1.1"),
	}
	if Analyze(trades).RevengeTrading {
		t.Error("1.1x size should not trigger revenge")
	}

	// Older trade won: no flag regardless of size.
	trades = []types.Trade{
		datedTrade(1, "30", "1"),
		datedTrade(2, "-50", "3"),
	}
	if Analyze(trades).RevengeTrading {
		t.Error("sizing up after a win is not revenge")
	}
}

func TestLosingStreak(t *testing.T) {
	// Three most-recent losses, then an older win that must not extend it.
	trades := []types.Trade{
		datedTrade(4, "-10", "1"),
		datedTrade(3, "-20", "1"),
		datedTrade(2, "-5", "1"),
		datedTrade(1, "100", "1"),
	}
	ins := Analyze(trades)
	if ins.LosingStreak != 3 {
		t.Errorf("expected losing streak 3, got %d", ins.LosingStreak)
	}
	if !ins.StopTrading {
		t.Error("expected stop-trading flag at streak 3")
	}
	if ins.WinningStreak != 0 {
		t.Errorf("expected no winning streak, got %d", ins.WinningStreak)
	}
}

func TestBreakevenBreaksStreak(t *testing.T) {
	trades := []types.Trade{
		datedTrade(4, "-10", "1"),
		datedTrade(3, "0", "1"), // breakeven resets
		datedTrade(2, "-20", "1"),
		datedTrade(1, "-5", "1"),
	}
	ins := Analyze(trades)
	if ins.LosingStreak != 1 {
		t.Errorf("expected streak 1 after breakeven, got %d", ins.LosingStreak)
	}
}

func TestHotHand(t *testing.T) {
	trades := []types.Trade{
		datedTrade(5, "10", "1"),
		datedTrade(4, "20", "1"),
		datedTrade(3, "5", "1"),
		datedTrade(2, "15", "1"),
		datedTrade(1, "-50", "1"),
	}
	ins := Analyze(trades)
	if ins.WinningStreak != 4 || !ins.HotHand {
		t.Errorf("expected hot hand at 4 wins, got %+v", ins)
	}
}

func TestTilt(t *testing.T) {
	trades := []types.Trade{
		datedTrade(5, "-1", "1"),
		datedTrade(4, "-1", "1"),
		datedTrade(3, "-1", "1"),
		datedTrade(2, "-1", "1"),
		datedTrade(1, "500", "1"),
	}
	if !Analyze(trades).Tilt {
		t.Error("four most-recent losses should flag tilt")
	}

	trades[2].PnL = d("1")
	if Analyze(trades).Tilt {
		t.Error("a win inside the window should clear tilt")
	}
}

func TestDirectionalBias(t *testing.T) {
	var trades []types.Trade
	// 6 buys, 1 win (16% win rate); 6 sells, 4 wins (66%). 12 trades total.
	for i := 0; i < 6; i++ {
		tr := datedTrade(i+1, "-10", "1")
		if i == 0 {
			tr.PnL = d("10")
		}
		tr.Direction = types.DirectionBuy
		trades = append(trades, tr)
	}
	for i := 0; i < 6; i++ {
		tr := datedTrade(i+10, "10", "1")
		if i < 2 {
			tr.PnL = d("-10")
		}
		tr.Direction = types.DirectionSell
		trades = append(trades, tr)
	}
	ins := Analyze(trades)
	if ins.BiasedDirection != types.DirectionBuy {
		t.Errorf("expected Buy bias, got %q", ins.BiasedDirection)
	}

	// Not evaluated at 10 trades or fewer.
	if Analyze(trades[:10]).BiasedDirection != "" {
		t.Error("bias must not be evaluated with 10 or fewer trades")
	}
}

func TestStrategyHopping(t *testing.T) {
	trades := []types.Trade{
		datedTrade(3, "1", "1"),
		datedTrade(2, "1", "1"),
		datedTrade(1, "1", "1"),
	}
	trades[0].Strategy = "a"
	trades[1].Strategy = "b"
	trades[2].Strategy = "c"
	ins := Analyze(trades)
	if !ins.StrategyHopping || ins.RecentStrategies != 3 {
		t.Errorf("expected hopping with 3 strategies, got %+v", ins)
	}

	trades[2].Strategy = "a"
	if Analyze(trades).StrategyHopping {
		t.Error("two distinct strategies should not flag hopping")
	}
}

func TestNoStopLossHazard(t *testing.T) {
	trades := []types.Trade{datedTrade(1, "10", "1")}
	trades[0].MainMistake = types.MistakeNoSL
	if !Analyze(trades).NoStopLossHazard {
		t.Error("explicit No SL mistake should flag the hazard")
	}

	// Outsized loss without a stop: avg loss ~23, the -50 has no SL.
	trades = []types.Trade{
		datedTrade(3, "-50", "1"),
		datedTrade(2, "-10", "1"),
		datedTrade(1, "-10", "1"),
	}
	trades[1].StopLoss = d("95")
	trades[2].StopLoss = d("95")
	ins := Analyze(trades)
	if !ins.NoStopLossHazard {
		t.Error("expected hazard for outsized stopless loss")
	}

	trades[0].StopLoss = d("95")
	if Analyze(trades).NoStopLossHazard {
		t.Error("no hazard when every trade carries a stop")
	}
}

func TestBreakevenAbuse(t *testing.T) {
	trades := []types.Trade{
		datedTrade(1, "0", "1"),
		datedTrade(2, "0", "1"),
		datedTrade(3, "10", "1"),
		datedTrade(4, "-10", "1"),
	}
	if !Analyze(trades).BreakevenAbuse {
		t.Error("50%% breakevens should flag abuse")
	}
	four := []types.Trade{
		datedTrade(1, "0", "1"),
		datedTrade(2, "10", "1"),
		datedTrade(3, "-10", "1"),
		datedTrade(4, "20", "1"),
	}
	if Analyze(four).BreakevenAbuse {
		t.Error("one breakeven in four should not flag abuse")
	}
}

func TestOverconfidence(t *testing.T) {
	// Small wins keep the average low enough for 300 to count as outsized.
	trades := []types.Trade{
		datedTrade(5, "-20", "1"), // newest: loss right after the big win
		datedTrade(4, "300", "1"), // outsized win, avg win is 82.5
		datedTrade(3, "10", "1"),
		datedTrade(2, "10", "1"),
		datedTrade(1, "10", "1"),
	}
	if !Analyze(trades).Overconfidence {
		t.Error("expected overconfidence after outsized win then loss")
	}

	// Win then win: no flag.
	trades[0].PnL = d("20")
	if Analyze(trades).Overconfidence {
		t.Error("no overconfidence without a follow-up loss")
	}
}

func TestRealizedRRAndSniper(t *testing.T) {
	trades := []types.Trade{
		datedTrade(1, "100", "1"),
		datedTrade(2, "-40", "1"),
	}
	ins := Analyze(trades)
	if !ins.RealizedRR.Equal(d("2.5")) {
		t.Errorf("expected realized RR 2.5, got %s", ins.RealizedRR)
	}
	if !ins.SniperEntry {
		t.Error("RR >= 2 should flag sniper entry")
	}

	// No losses: RR stays zero rather than dividing by zero.
	ins = Analyze(trades[:1])
	if !ins.RealizedRR.IsZero() || ins.SniperEntry {
		t.Errorf("expected zero RR without losses, got %+v", ins)
	}
}

func TestTrendRider(t *testing.T) {
	win := datedTrade(2, "50", "1")
	win.CloseDate, win.CloseTime = "2024-03-02", "15:00" // 5h held
	loss := datedTrade(1, "-20", "1")
	loss.CloseDate, loss.CloseTime = "2024-03-01", "11:00" // 1h held

	ins := Analyze([]types.Trade{win, loss})
	if !ins.TrendRider {
		t.Errorf("expected trend-rider at ratio 5, got %s", ins.TrendRiderRatio)
	}
	if !ins.TrendRiderRatio.Equal(d("5")) {
		t.Errorf("expected ratio 5, got %s", ins.TrendRiderRatio)
	}

	// Without holding data on one side there is no ratio.
	loss.CloseTime = ""
	ins = Analyze([]types.Trade{win, loss})
	if ins.TrendRider || !ins.TrendRiderRatio.IsZero() {
		t.Errorf("expected no ratio without loss holding data, got %+v", ins)
	}
}

func TestRecovery(t *testing.T) {
	pct := func(v string) decimal.NullDecimal {
		return decimal.NullDecimal{Decimal: d(v), Valid: true}
	}
	old := datedTrade(1, "-300", "1")
	old.PnLPct = pct("-15")
	recent := datedTrade(2, "-5", "1")
	recent.PnLPct = pct("-0.5")

	if !Analyze([]types.Trade{recent, old}).Recovery {
		t.Error("expected recovery: -15%% dip, latest above -2%%")
	}

	recent.PnLPct = pct("-8")
	if Analyze([]types.Trade{recent, old}).Recovery {
		t.Error("latest at -8%% is not recovered")
	}
}

func TestImproving(t *testing.T) {
	var trades []types.Trade
	for i := 0; i < 8; i++ {
		trades = append(trades, datedTrade(i+1, "-10", "1"))
	}
	for i := 0; i < 5; i++ {
		trades = append(trades, datedTrade(i+20, "50", "1"))
	}
	if !Analyze(trades).Improving {
		t.Error("recent wins above overall average should flag improving")
	}
	// 10 or fewer trades: never flagged.
	if Analyze(trades[3:]).Improving {
		t.Error("improving must not fire with 10 trades")
	}
}

func TestOvertrading(t *testing.T) {
	// 12 losing trades across 2 distinct days: 6/day, 0% win rate.
	var trades []types.Trade
	for i := 0; i < 12; i++ {
		tr := datedTrade(1+i%2, "-5", "1")
		trades = append(trades, tr)
	}
	if !Analyze(trades).Overtrading {
		t.Error("expected overtrading at 6 trades/day with 0%% win rate")
	}

	// Same density but winning: not overtrading.
	for i := range trades {
		trades[i].PnL = d("5")
	}
	if Analyze(trades).Overtrading {
		t.Error("a winning high-frequency day is not overtrading")
	}
}

func TestBestHourAndWeekday(t *testing.T) {
	a := datedTrade(4, "100", "1") // Monday 2024-03-04
	a.OpenTime = "09:30"
	b := datedTrade(5, "-40", "1") // Tuesday
	b.OpenTime = "14:00"
	c := datedTrade(11, "30", "1") // Monday
	c.OpenTime = "09:45"

	ins := Analyze([]types.Trade{a, b, c})
	if ins.BestHour != 9 {
		t.Errorf("expected best hour 9, got %d", ins.BestHour)
	}
	if ins.BestWeekday != "Monday" {
		t.Errorf("expected Monday, got %q", ins.BestWeekday)
	}

	// All losing: nothing to report.
	ins = Analyze([]types.Trade{b})
	if ins.BestHour != -1 || ins.BestWeekday != "" {
		t.Errorf("expected no best hour/day, got %+v", ins)
	}
}

func TestWeakDays(t *testing.T) {
	a := datedTrade(4, "-150", "1") // Monday
	b := datedTrade(5, "-50", "1")  // Tuesday: above threshold
	ins := Analyze([]types.Trade{a, b})
	if len(ins.WeakDays) != 1 || ins.WeakDays[0] != "Monday" {
		t.Errorf("expected [Monday], got %v", ins.WeakDays)
	}
}
