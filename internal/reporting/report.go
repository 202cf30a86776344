package reporting

import "time"

// Report summarizes backtest runs for one strategy.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	StrategyID  string
	RunCount    int

	// Run Summaries (sorted by ROI descending, ties by run_id)
	RunSummaries []RunSummaryRow

	// Rejections per run, by reason code
	Rejections []RejectionRow

	// Data Quality (malformed events skipped during runs)
	DataQuality DataQualitySection
}

// RunSummaryRow represents one row in the run summary table.
type RunSummaryRow struct {
	RunID           string
	SizingPolicy    string
	InitialBankroll float64
	FinalBalance    float64
	EventCount      int
	Cancelled       bool

	TotalBets            int
	WinRate              float64
	ROIPercentage        float64
	MaxDrawdown          float64
	SharpeRatio          float64
	SortinoRatio         float64
	ProfitFactor         float64
	MaxConsecutiveLosses int
}

// RejectionRow represents one (run, reason) rejection count.
type RejectionRow struct {
	RunID string
	Code  string
	Count int
}

// DataQualitySection lists malformed events skipped across runs.
type DataQualitySection struct {
	Notes []DataNoteRow
	Clean bool
}

// DataNoteRow is one skipped event with its reason.
type DataNoteRow struct {
	RunID   string
	EventID string
	Reason  string
}
