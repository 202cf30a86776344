package domain

// ProfitFactorCap is the finite sentinel reported when gross loss is zero
// but gross profit is positive. Never infinity.
const ProfitFactorCap = 999.0

// PerformanceMetrics are summary statistics derived from a settled
// transaction sequence and equity curve. Never hand-edited; always
// recomputed from source records.
type PerformanceMetrics struct {
	TotalBets   int
	WinningBets int
	LosingBets  int
	PushedBets  int

	TotalProfit  float64
	TotalWagered float64

	WinRate       float64 // winning / total, 0 when no bets
	ROIPercentage float64 // total_profit / total_wagered * 100
	MaxDrawdown   float64 // worst peak-to-trough decline, % of peak
	SharpeRatio   float64 // mean return / population stddev, 0 when stddev 0
	SortinoRatio  float64 // mean return / downside stddev, 0 when no losses
	ProfitFactor  float64 // gross profit / gross loss, capped

	AverageWin           float64
	AverageLoss          float64 // negative or 0
	MaxConsecutiveLosses int
}
