// Package verification checks backtest determinism: a stored run replayed
// from the same strategy and event sequence must reproduce every bet,
// every balance and every metric.
package verification

import (
	"fmt"
	"math"

	"sportsbet-lab/internal/domain"
)

// FloatTolerance is the tolerance for float64 comparisons. Replays execute
// the exact same float operations in the same order, so divergence beyond
// this indicates nondeterminism.
const FloatTolerance = 1e-9

// FieldDivergence represents a mismatch between stored and replayed values.
type FieldDivergence struct {
	Field    string      // field name, indexed for per-bet fields
	Expected interface{} // stored value
	Actual   interface{} // replayed value
}

// Result contains the outcome of verifying a single run.
type Result struct {
	RunID       string
	Match       bool
	Divergences []FieldDivergence
}

// Report contains results for batch verification.
type Report struct {
	TotalRuns     int
	MatchedRuns   int
	DivergentRuns int
	Results       []Result
}

// diffs collects field divergences.
type diffs struct {
	list []FieldDivergence
}

func (d *diffs) check(field string, expected, actual interface{}) {
	if expected != actual {
		d.list = append(d.list, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

func (d *diffs) checkFloat(field string, expected, actual float64) {
	if math.Abs(expected-actual) > FloatTolerance {
		d.list = append(d.list, FieldDivergence{Field: field, Expected: expected, Actual: actual})
	}
}

// CompareRuns compares a stored run against its replay and returns
// divergences. Uses FloatTolerance for float64 comparisons.
func CompareRuns(stored, replayed *domain.BacktestRun) []FieldDivergence {
	var d diffs

	d.check("RunID", stored.RunID, replayed.RunID)
	d.check("StrategyID", stored.StrategyID, replayed.StrategyID)
	d.check("SizingOverride", stored.SizingOverride, replayed.SizingOverride)
	d.check("EventCount", stored.EventCount, replayed.EventCount)
	d.check("Cancelled", stored.Cancelled, replayed.Cancelled)
	d.checkFloat("InitialBankroll", stored.InitialBankroll, replayed.InitialBankroll)
	d.checkFloat("FinalBalance", stored.FinalBalance, replayed.FinalBalance)

	compareBets(&d, stored.BetHistory, replayed.BetHistory)
	compareMetrics(&d, stored.Metrics, replayed.Metrics)

	d.check("Rejections.total", totalRejections(stored.Rejections), totalRejections(replayed.Rejections))
	for code, n := range stored.Rejections {
		d.check("Rejections."+string(code), n, replayed.Rejections[code])
	}

	return d.list
}

// CompareCurves compares stored equity curve points against a replay.
func CompareCurves(stored, replayed []domain.EquityPoint) []FieldDivergence {
	var d diffs

	if len(stored) != len(replayed) {
		d.check("EquityCurve.len", len(stored), len(replayed))
		return d.list
	}
	for i := range stored {
		d.check(fmt.Sprintf("EquityCurve[%d].Timestamp", i), stored[i].Timestamp, replayed[i].Timestamp)
		d.checkFloat(fmt.Sprintf("EquityCurve[%d].Balance", i), stored[i].Balance, replayed[i].Balance)
	}
	return d.list
}

func compareBets(d *diffs, stored, replayed []*domain.Wager) {
	if len(stored) != len(replayed) {
		d.check("BetHistory.len", len(stored), len(replayed))
		return
	}

	for i := range stored {
		s, r := stored[i], replayed[i]
		d.check(fmt.Sprintf("BetHistory[%d].WagerID", i), s.WagerID, r.WagerID)
		d.check(fmt.Sprintf("BetHistory[%d].EventID", i), s.EventID, r.EventID)
		d.check(fmt.Sprintf("BetHistory[%d].State", i), s.State, r.State)
		d.check(fmt.Sprintf("BetHistory[%d].PlacedAt", i), s.PlacedAt, r.PlacedAt)
		d.check(fmt.Sprintf("BetHistory[%d].SettledAt", i), s.SettledAt, r.SettledAt)
		d.checkFloat(fmt.Sprintf("BetHistory[%d].Stake", i), s.Stake, r.Stake)
		d.checkFloat(fmt.Sprintf("BetHistory[%d].DecimalOdds", i), s.DecimalOdds, r.DecimalOdds)
		d.checkFloat(fmt.Sprintf("BetHistory[%d].ProfitLoss", i), s.ProfitLoss, r.ProfitLoss)
	}
}

func compareMetrics(d *diffs, stored, replayed domain.PerformanceMetrics) {
	d.check("Metrics.TotalBets", stored.TotalBets, replayed.TotalBets)
	d.check("Metrics.WinningBets", stored.WinningBets, replayed.WinningBets)
	d.check("Metrics.LosingBets", stored.LosingBets, replayed.LosingBets)
	d.check("Metrics.PushedBets", stored.PushedBets, replayed.PushedBets)
	d.check("Metrics.MaxConsecutiveLosses", stored.MaxConsecutiveLosses, replayed.MaxConsecutiveLosses)
	d.checkFloat("Metrics.TotalProfit", stored.TotalProfit, replayed.TotalProfit)
	d.checkFloat("Metrics.TotalWagered", stored.TotalWagered, replayed.TotalWagered)
	d.checkFloat("Metrics.WinRate", stored.WinRate, replayed.WinRate)
	d.checkFloat("Metrics.ROIPercentage", stored.ROIPercentage, replayed.ROIPercentage)
	d.checkFloat("Metrics.MaxDrawdown", stored.MaxDrawdown, replayed.MaxDrawdown)
	d.checkFloat("Metrics.SharpeRatio", stored.SharpeRatio, replayed.SharpeRatio)
	d.checkFloat("Metrics.SortinoRatio", stored.SortinoRatio, replayed.SortinoRatio)
	d.checkFloat("Metrics.ProfitFactor", stored.ProfitFactor, replayed.ProfitFactor)
}

func totalRejections(m map[domain.ReasonCode]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}
