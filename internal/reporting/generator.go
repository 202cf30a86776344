package reporting

import (
	"context"
	"sort"
	"time"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// Generator produces reports from stored backtest runs.
type Generator struct {
	runStore   storage.BacktestRunStore
	curveStore storage.EquityCurveStore
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. curveStore may be nil when
// equity curve exports aren't needed.
func NewGenerator(runStore storage.BacktestRunStore, curveStore storage.EquityCurveStore) *Generator {
	return &Generator{
		runStore:   runStore,
		curveStore: curveStore,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate produces a report over all stored runs of a strategy.
func (g *Generator) Generate(ctx context.Context, strategyID string) (*Report, error) {
	runs, err := g.runStore.GetByStrategyID(ctx, strategyID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:  g.now(),
		StrategyID:   strategyID,
		RunCount:     len(runs),
		RunSummaries: make([]RunSummaryRow, 0, len(runs)),
	}

	for _, run := range runs {
		report.RunSummaries = append(report.RunSummaries, SummarizeRun(run))
		report.Rejections = append(report.Rejections, rejectionRows(run)...)
		for _, note := range run.DataNotes {
			report.DataQuality.Notes = append(report.DataQuality.Notes, DataNoteRow{
				RunID:   run.RunID,
				EventID: note.EventID,
				Reason:  note.Reason,
			})
		}
	}

	report.DataQuality.Clean = len(report.DataQuality.Notes) == 0

	// Best run first; ties keep run_id order for stable output.
	sort.SliceStable(report.RunSummaries, func(i, j int) bool {
		a, b := report.RunSummaries[i], report.RunSummaries[j]
		if a.ROIPercentage != b.ROIPercentage {
			return a.ROIPercentage > b.ROIPercentage
		}
		return a.RunID < b.RunID
	})

	return report, nil
}

// BetHistoryCSV exports the settled wagers of one run as CSV.
func (g *Generator) BetHistoryCSV(ctx context.Context, runID string) (string, error) {
	run, err := g.runStore.GetByID(ctx, runID)
	if err != nil {
		return "", err
	}
	return RenderBetHistoryCSV(run.BetHistory), nil
}

// EquityCurveCSV exports the equity curve of one run as CSV.
func (g *Generator) EquityCurveCSV(ctx context.Context, runID string) (string, error) {
	points, err := g.curveStore.GetByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	return RenderEquityCurveCSV(points), nil
}

// SummarizeRun flattens one run into a summary row.
func SummarizeRun(run *domain.BacktestRun) RunSummaryRow {
	policy := run.Strategy.SizingPolicy
	if run.SizingOverride != "" {
		policy = run.SizingOverride
	}
	return RunSummaryRow{
		RunID:                run.RunID,
		SizingPolicy:         policy,
		InitialBankroll:      run.InitialBankroll,
		FinalBalance:         run.FinalBalance,
		EventCount:           run.EventCount,
		Cancelled:            run.Cancelled,
		TotalBets:            run.Metrics.TotalBets,
		WinRate:              run.Metrics.WinRate,
		ROIPercentage:        run.Metrics.ROIPercentage,
		MaxDrawdown:          run.Metrics.MaxDrawdown,
		SharpeRatio:          run.Metrics.SharpeRatio,
		SortinoRatio:         run.Metrics.SortinoRatio,
		ProfitFactor:         run.Metrics.ProfitFactor,
		MaxConsecutiveLosses: run.Metrics.MaxConsecutiveLosses,
	}
}

func rejectionRows(run *domain.BacktestRun) []RejectionRow {
	if len(run.Rejections) == 0 {
		return nil
	}

	codes := make([]string, 0, len(run.Rejections))
	for code := range run.Rejections {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)

	rows := make([]RejectionRow, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, RejectionRow{
			RunID: run.RunID,
			Code:  code,
			Count: run.Rejections[domain.ReasonCode(code)],
		})
	}
	return rows
}
