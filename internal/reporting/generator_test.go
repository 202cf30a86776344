package reporting

import (
	"context"
	"strings"
	"testing"
	"time"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage/memory"
)

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func seedRun(t *testing.T, store *memory.BacktestRunStore, runID string, roi float64, rejections map[domain.ReasonCode]int, notes []domain.DataNote) {
	t.Helper()
	run := &domain.BacktestRun{
		RunID:      runID,
		StrategyID: "strat-1",
		Strategy: domain.StrategyConfig{
			StrategyID:   "strat-1",
			Name:         "test",
			SizingPolicy: "KELLY",
		},
		InitialBankroll: 1000,
		FinalBalance:    1000 * (1 + roi/100),
		EventCount:      50,
		BetHistory: []*domain.Wager{
			{WagerID: runID + "-w1", EventID: "e1", Sport: "NBA", MarketType: "MONEYLINE",
				PredictedOutcome: "HOME", Stake: 25, DecimalOdds: 1.9, State: "WON",
				PlacedAt: 1000, SettledAt: 2000, ProfitLoss: 22.5},
		},
		Rejections: rejections,
		DataNotes:  notes,
		Metrics: domain.PerformanceMetrics{
			TotalBets:     1,
			WinningBets:   1,
			WinRate:       1.0,
			ROIPercentage: roi,
			MaxDrawdown:   2.5,
		},
	}
	if err := store.Insert(context.Background(), run); err != nil {
		t.Fatalf("seed run %s: %v", runID, err)
	}
}

func TestGenerate(t *testing.T) {
	runStore := memory.NewBacktestRunStore()
	curveStore := memory.NewEquityCurveStore()

	seedRun(t, runStore, "run-a", 5.0, map[domain.ReasonCode]int{"LOW_CONFIDENCE": 3, "EDGE_TOO_SMALL": 1}, nil)
	seedRun(t, runStore, "run-b", 12.0, nil, []domain.DataNote{{EventID: "bad-1", Reason: "odds out of range"}})

	gen := NewGenerator(runStore, curveStore).WithClock(fixedClock)

	report, err := gen.Generate(context.Background(), "strat-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2", report.RunCount)
	}
	if !report.GeneratedAt.Equal(fixedClock()) {
		t.Errorf("GeneratedAt = %v, want fixed clock", report.GeneratedAt)
	}

	// Best ROI first.
	if report.RunSummaries[0].RunID != "run-b" || report.RunSummaries[1].RunID != "run-a" {
		t.Errorf("Unexpected summary order: %s, %s",
			report.RunSummaries[0].RunID, report.RunSummaries[1].RunID)
	}

	// Rejection codes sorted within a run.
	if len(report.Rejections) != 2 {
		t.Fatalf("Expected 2 rejection rows, got %d", len(report.Rejections))
	}
	if report.Rejections[0].Code != "EDGE_TOO_SMALL" || report.Rejections[1].Code != "LOW_CONFIDENCE" {
		t.Errorf("Unexpected rejection order: %+v", report.Rejections)
	}

	if report.DataQuality.Clean {
		t.Error("Expected data quality notes from run-b")
	}
	if len(report.DataQuality.Notes) != 1 || report.DataQuality.Notes[0].EventID != "bad-1" {
		t.Errorf("Unexpected notes: %+v", report.DataQuality.Notes)
	}
}

func TestGenerateEmpty(t *testing.T) {
	gen := NewGenerator(memory.NewBacktestRunStore(), memory.NewEquityCurveStore()).WithClock(fixedClock)

	report, err := gen.Generate(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if report.RunCount != 0 {
		t.Errorf("RunCount = %d, want 0", report.RunCount)
	}
	if !report.DataQuality.Clean {
		t.Error("Empty report should be clean")
	}

	md := RenderMarkdown(report)
	if !strings.Contains(md, "No runs available.") {
		t.Error("Markdown should state no runs available")
	}
}

func TestRenderMarkdown(t *testing.T) {
	runStore := memory.NewBacktestRunStore()
	seedRun(t, runStore, "run-a", 5.0, map[domain.ReasonCode]int{"PAUSED": 2}, nil)

	gen := NewGenerator(runStore, nil).WithClock(fixedClock)
	report, err := gen.Generate(context.Background(), "strat-1")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	md := RenderMarkdown(report)

	for _, want := range []string{
		"# Backtest Report: strat-1",
		"Generated: 2025-06-01T12:00:00Z",
		"| run-a | KELLY |",
		"| run-a | PAUSED | 2 |",
		"All events processed.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q", want)
		}
	}
}

func TestRenderCSV(t *testing.T) {
	bets := []*domain.Wager{
		{WagerID: "w1", EventID: "e1", PlacedAt: 1000, SettledAt: 2000,
			Sport: "NBA", MarketType: "MONEYLINE", PredictedOutcome: "HOME",
			Stake: 25, DecimalOdds: 1.9, Edge: 0.14, Confidence: 75,
			State: "WON", ProfitLoss: 22.5},
	}

	csv := RenderBetHistoryCSV(bets)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected header + 1 row, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "wager_id,event_id,") {
		t.Errorf("Unexpected header: %s", lines[0])
	}
	if !strings.Contains(lines[1], "w1,e1,1000,2000,NBA,MONEYLINE,HOME,25.00,1.9000") {
		t.Errorf("Unexpected row: %s", lines[1])
	}

	points := []*domain.EquityPoint{
		{RunID: "run-a", Seq: 0, Timestamp: 1000, Balance: 1000},
		{RunID: "run-a", Seq: 1, Timestamp: 2000, Balance: 1022.5},
	}
	curve := RenderEquityCurveCSV(points)
	if !strings.Contains(curve, "run-a,2000,1022.50") {
		t.Errorf("Unexpected curve CSV:\n%s", curve)
	}
}

func TestBetHistoryCSVFromStore(t *testing.T) {
	runStore := memory.NewBacktestRunStore()
	curveStore := memory.NewEquityCurveStore()
	seedRun(t, runStore, "run-a", 5.0, nil, nil)

	if err := curveStore.InsertBulk(context.Background(), []*domain.EquityPoint{
		{RunID: "run-a", Seq: 0, Timestamp: 1000, Balance: 1000},
		{RunID: "run-a", Seq: 1, Timestamp: 2000, Balance: 1022.5},
	}); err != nil {
		t.Fatalf("seed curve: %v", err)
	}

	gen := NewGenerator(runStore, curveStore)

	csv, err := gen.BetHistoryCSV(context.Background(), "run-a")
	if err != nil {
		t.Fatalf("BetHistoryCSV failed: %v", err)
	}
	if !strings.Contains(csv, "run-a-w1") {
		t.Errorf("Bet history CSV missing wager:\n%s", csv)
	}

	curve, err := gen.EquityCurveCSV(context.Background(), "run-a")
	if err != nil {
		t.Fatalf("EquityCurveCSV failed: %v", err)
	}
	if got := strings.Count(curve, "\n"); got != 3 {
		t.Errorf("Expected header + 2 points, got %d lines", got)
	}

	if _, err := gen.BetHistoryCSV(context.Background(), "missing"); err == nil {
		t.Error("Expected error for unknown run")
	}
}
