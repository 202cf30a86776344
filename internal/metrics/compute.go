// Package metrics derives performance statistics from settled transaction
// sequences and equity curves. Everything here is pure and deterministic;
// metrics are always recomputed from source records, never hand-edited.
package metrics

import (
	"math"

	"sportsbet-lab/internal/domain"
)

// Compute calculates all metrics from a settled transaction sequence and
// the corresponding equity curve. Transactions must be in settlement
// order; balances must be the curve walked left to right. Either input may
// be empty, producing zeroed fields rather than NaN or infinity.
func Compute(transactions []*domain.Wager, balances []float64) domain.PerformanceMetrics {
	m := domain.PerformanceMetrics{}

	var grossProfit, grossLoss float64
	returns := make([]float64, 0, len(transactions))

	for _, t := range transactions {
		m.TotalBets++
		m.TotalWagered += t.Stake
		m.TotalProfit += t.ProfitLoss

		switch {
		case t.ProfitLoss > 0:
			m.WinningBets++
			grossProfit += t.ProfitLoss
		case t.ProfitLoss < 0:
			m.LosingBets++
			grossLoss += -t.ProfitLoss
		default:
			m.PushedBets++
		}

		if t.Stake > 0 {
			returns = append(returns, t.ProfitLoss/t.Stake)
		}
	}

	if m.TotalBets > 0 {
		m.WinRate = float64(m.WinningBets) / float64(m.TotalBets)
	}
	if m.TotalWagered > 0 {
		m.ROIPercentage = m.TotalProfit / m.TotalWagered * 100
	}
	if m.WinningBets > 0 {
		m.AverageWin = grossProfit / float64(m.WinningBets)
	}
	if m.LosingBets > 0 {
		m.AverageLoss = -grossLoss / float64(m.LosingBets)
	}

	m.MaxDrawdown = MaxDrawdownPct(balances)
	m.SharpeRatio = sharpe(returns)
	m.SortinoRatio = sortino(returns)
	m.ProfitFactor = profitFactor(grossProfit, grossLoss)
	m.MaxConsecutiveLosses = maxConsecutiveLosses(transactions)

	return m
}

// FromEquityCurve is a convenience over Compute for stored runs.
func FromEquityCurve(transactions []*domain.Wager, curve []domain.EquityPoint) domain.PerformanceMetrics {
	balances := make([]float64, len(curve))
	for i, p := range curve {
		balances[i] = p.Balance
	}
	return Compute(transactions, balances)
}

// MaxDrawdownPct returns the largest peak-to-trough decline walking the
// balance series left to right, as a percentage of the peak at the time.
func MaxDrawdownPct(balances []float64) float64 {
	if len(balances) == 0 {
		return 0
	}

	peak := balances[0]
	maxDrawdown := 0.0

	for _, b := range balances {
		if b > peak {
			peak = b
		}
		if peak <= 0 {
			continue
		}
		drawdown := (peak - b) / peak * 100
		if drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

// sharpe is mean return over population standard deviation of returns.
// Zero variance yields 0, never NaN.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := computeMean(returns)
	stddev := popStddev(returns, mean)
	if stddev == 0 {
		return 0
	}
	return mean / stddev
}

// sortino is mean return over the population standard deviation of the
// negative-return subset. No negative returns, or a subset too small to
// have variance, yields 0.
func sortino(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var negatives []float64
	for _, r := range returns {
		if r < 0 {
			negatives = append(negatives, r)
		}
	}
	if len(negatives) == 0 {
		return 0
	}
	downside := popStddev(negatives, computeMean(negatives))
	if downside == 0 {
		return 0
	}
	return computeMean(returns) / downside
}

// profitFactor is gross profit over gross loss. Zero loss with positive
// profit reports the finite ProfitFactorCap sentinel, never infinity.
func profitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss == 0 {
		if grossProfit > 0 {
			return domain.ProfitFactorCap
		}
		return 0
	}
	return grossProfit / grossLoss
}

// maxConsecutiveLosses finds the longest streak of losing settlements.
// Pushes break the streak.
func maxConsecutiveLosses(transactions []*domain.Wager) int {
	maxStreak := 0
	currentStreak := 0

	for _, t := range transactions {
		if t.ProfitLoss < 0 {
			currentStreak++
			if currentStreak > maxStreak {
				maxStreak = currentStreak
			}
		} else {
			currentStreak = 0
		}
	}
	return maxStreak
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// popStddev calculates population standard deviation (n denominator).
func popStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n))
}
