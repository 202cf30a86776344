package domain

// BacktestEvent is one historical or synthetic opportunity with its
// ground-truth result attached. The result is consumed only at settlement;
// the evaluator receives the embedded Opportunity and nothing else, so
// look-ahead leakage is structurally impossible.
type BacktestEvent struct {
	Opportunity

	Result Outcome
	// SettleAt defers settlement to this timestamp (Unix ms) within the
	// ordered iteration. Zero means settle immediately after placement.
	SettleAt int64
}

// EquityPoint is one (timestamp, balance) sample of the equity curve.
// Seq is the point's position within the run, starting at zero. Two
// settlements may land on the same millisecond, so (RunID, Seq) is the
// uniqueness key, not (RunID, Timestamp).
type EquityPoint struct {
	RunID     string
	Seq       int
	Timestamp int64 // Unix ms
	Balance   float64
}

// DataNote records a malformed event skipped during a backtest. One bad
// record never aborts the run.
type DataNote struct {
	EventID string
	Reason  string
}

// BacktestRun is one completed (or cancelled) simulation. Immutable after
// execution; it never touches a live bot.
type BacktestRun struct {
	RunID           string
	StrategyID      string
	Strategy        StrategyConfig // snapshot at run time
	SizingOverride  string         // overrides Strategy.SizingPolicy when non-empty
	InitialBankroll float64
	FinalBalance    float64

	EventCount int
	Cancelled  bool

	EquityCurve []EquityPoint
	BetHistory  []*Wager // settled wagers in settlement order
	Rejections  map[ReasonCode]int
	DataNotes   []DataNote
	Metrics     PerformanceMetrics
}
