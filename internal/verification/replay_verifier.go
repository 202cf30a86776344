package verification

import (
	"context"
	"fmt"

	"sportsbet-lab/internal/backtest"
	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// EventSource supplies the exact event sequence a run was executed over.
// Verification is only meaningful against the original input.
type EventSource interface {
	EventsForRun(ctx context.Context, run *domain.BacktestRun) ([]domain.BacktestEvent, error)
}

// EventSourceFunc adapts a function to EventSource.
type EventSourceFunc func(ctx context.Context, run *domain.BacktestRun) ([]domain.BacktestEvent, error)

// EventsForRun implements EventSource.
func (f EventSourceFunc) EventsForRun(ctx context.Context, run *domain.BacktestRun) ([]domain.BacktestEvent, error) {
	return f(ctx, run)
}

// ReplayVerifier re-executes stored runs and compares results.
type ReplayVerifier struct {
	runStore   storage.BacktestRunStore
	curveStore storage.EquityCurveStore
	events     EventSource
}

// NewReplayVerifier creates a ReplayVerifier. The curve store is optional;
// without it equity curves are not compared.
func NewReplayVerifier(runStore storage.BacktestRunStore, curveStore storage.EquityCurveStore, events EventSource) *ReplayVerifier {
	return &ReplayVerifier{
		runStore:   runStore,
		curveStore: curveStore,
		events:     events,
	}
}

// VerifyRun verifies a single run by ID. It loads the stored run,
// re-executes the simulation with the stored strategy snapshot and
// options, and compares all fields.
func (v *ReplayVerifier) VerifyRun(ctx context.Context, runID string) (*Result, error) {
	stored, err := v.runStore.GetByID(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	events, err := v.events.EventsForRun(ctx, stored)
	if err != nil {
		return nil, fmt.Errorf("load events for run %s: %w", runID, err)
	}

	replayed, err := backtest.Run(ctx, stored.Strategy, events, backtest.Options{
		InitialBankroll: stored.InitialBankroll,
		SizingOverride:  stored.SizingOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("replay run %s: %w", runID, err)
	}

	divergences := CompareRuns(stored, replayed)

	if v.curveStore != nil {
		storedCurve, err := v.curveStore.GetByRunID(ctx, runID)
		if err != nil {
			return nil, fmt.Errorf("load equity curve for run %s: %w", runID, err)
		}
		curve := make([]domain.EquityPoint, len(storedCurve))
		for i, p := range storedCurve {
			curve[i] = *p
		}
		divergences = append(divergences, CompareCurves(curve, replayed.EquityCurve)...)
	}

	return &Result{
		RunID:       runID,
		Match:       len(divergences) == 0,
		Divergences: divergences,
	}, nil
}

// VerifyStrategy verifies all stored runs of a strategy.
func (v *ReplayVerifier) VerifyStrategy(ctx context.Context, strategyID string) (*Report, error) {
	runs, err := v.runStore.GetByStrategyID(ctx, strategyID)
	if err != nil {
		return nil, fmt.Errorf("load runs for strategy %s: %w", strategyID, err)
	}

	report := &Report{TotalRuns: len(runs)}
	for _, run := range runs {
		result, err := v.VerifyRun(ctx, run.RunID)
		if err != nil {
			return nil, err
		}
		if result.Match {
			report.MatchedRuns++
		} else {
			report.DivergentRuns++
		}
		report.Results = append(report.Results, *result)
	}
	return report, nil
}
