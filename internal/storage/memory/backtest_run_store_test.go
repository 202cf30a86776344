package memory

import (
	"context"
	"errors"
	"testing"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

func sampleRun(runID, strategyID string) *domain.BacktestRun {
	return &domain.BacktestRun{
		RunID:           runID,
		StrategyID:      strategyID,
		Strategy:        domain.StrategyConfig{StrategyID: strategyID, SizingPolicy: domain.SizingKelly, KellyFraction: 0.25, MaxBetPercentage: 5},
		InitialBankroll: 1000,
		FinalBalance:    1100,
		EventCount:      50,
		EquityCurve:     []domain.EquityPoint{{RunID: runID, Timestamp: 1000, Balance: 1000}},
		Rejections:      map[domain.ReasonCode]int{domain.ReasonLowConfidence: 3},
		Metrics:         domain.PerformanceMetrics{TotalBets: 47, ROIPercentage: 8.5},
	}
}

func TestBacktestRunStore_InsertAndGet(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleRun("run1", "strat1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByID(ctx, "run1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.FinalBalance != 1100 {
		t.Errorf("FinalBalance mismatch: got %f, want %f", got.FinalBalance, 1100.0)
	}
	if got.Rejections[domain.ReasonLowConfidence] != 3 {
		t.Errorf("Rejections mismatch: got %d, want 3", got.Rejections[domain.ReasonLowConfidence])
	}
	// Equity curve lives in its own store
	if len(got.EquityCurve) != 0 {
		t.Errorf("Expected run without equity curve, got %d points", len(got.EquityCurve))
	}
}

func TestBacktestRunStore_DuplicateKey(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	if err := store.Insert(ctx, sampleRun("run1", "strat1")); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, sampleRun("run1", "strat1"))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestBacktestRunStore_NotFound(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	_, err := store.GetByID(ctx, "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestBacktestRunStore_GetByStrategyID(t *testing.T) {
	store := NewBacktestRunStore()
	ctx := context.Background()

	for _, run := range []*domain.BacktestRun{
		sampleRun("run2", "stratA"),
		sampleRun("run1", "stratA"),
		sampleRun("run3", "stratB"),
	} {
		if err := store.Insert(ctx, run); err != nil {
			t.Fatalf("Insert %s failed: %v", run.RunID, err)
		}
	}

	got, err := store.GetByStrategyID(ctx, "stratA")
	if err != nil {
		t.Fatalf("GetByStrategyID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "run1" || got[1].RunID != "run2" {
		t.Errorf("Order wrong: got [%s, %s], want [run1, run2]", got[0].RunID, got[1].RunID)
	}
}
