package backtest

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"testing"

	"sportsbet-lab/internal/domain"
)

func testStrategy() domain.StrategyConfig {
	return domain.StrategyConfig{
		StrategyID:       "bt-kelly",
		SizingPolicy:     domain.SizingKelly,
		KellyFraction:    0.25,
		MaxBetPercentage: 5,
		MinConfidence:    60,
		MinExpectedValue: 0.02,
		MinOdds:          1.5,
		MaxOdds:          4.0,
	}
}

// syntheticEvents builds a deterministic alternating win/loss stream.
func syntheticEvents(n int) []domain.BacktestEvent {
	events := make([]domain.BacktestEvent, 0, n)
	base := int64(1736121600000)
	for i := 0; i < n; i++ {
		result := domain.OutcomeWon
		if i%3 == 0 {
			result = domain.OutcomeLost
		}
		events = append(events, domain.BacktestEvent{
			Opportunity: domain.Opportunity{
				EventID:          fmt.Sprintf("game-%d", i),
				Timestamp:        base + int64(i)*60000,
				Sport:            "NBA",
				MarketType:       domain.MarketMoneyline,
				PredictedOutcome: "home",
				TrueProbability:  0.62,
				Confidence:       70,
				DecimalOdds:      1.85,
			},
			Result: result,
		})
	}
	return events
}

func TestRunProducesBetsAndMetrics(t *testing.T) {
	run, err := Run(context.Background(), testStrategy(), syntheticEvents(30), Options{InitialBankroll: 1000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if run.EventCount != 30 {
		t.Errorf("event count = %d, want 30", run.EventCount)
	}
	if len(run.BetHistory) == 0 {
		t.Fatal("expected settled bets")
	}
	if run.Metrics.TotalBets != len(run.BetHistory) {
		t.Errorf("metrics total %d != history %d", run.Metrics.TotalBets, len(run.BetHistory))
	}
	// Seed point plus one point per settlement.
	if len(run.EquityCurve) != len(run.BetHistory)+1 {
		t.Errorf("equity points = %d, want %d", len(run.EquityCurve), len(run.BetHistory)+1)
	}
	if run.EquityCurve[0].Balance != 1000 {
		t.Errorf("curve seed = %v, want initial bankroll", run.EquityCurve[0].Balance)
	}
	for i, p := range run.EquityCurve {
		if p.Seq != i {
			t.Errorf("EquityCurve[%d].Seq = %d, want %d", i, p.Seq, i)
		}
	}
	last := run.EquityCurve[len(run.EquityCurve)-1]
	if math.Abs(last.Balance-run.FinalBalance) > 1e-9 {
		t.Errorf("final curve point %v != final balance %v", last.Balance, run.FinalBalance)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	events := syntheticEvents(50)
	opts := Options{InitialBankroll: 1000}

	run1, err := Run(context.Background(), testStrategy(), events, opts)
	if err != nil {
		t.Fatalf("run1: %v", err)
	}
	run2, err := Run(context.Background(), testStrategy(), events, opts)
	if err != nil {
		t.Fatalf("run2: %v", err)
	}

	if run1.RunID != run2.RunID {
		t.Errorf("run ids differ: %s vs %s", run1.RunID, run2.RunID)
	}
	if !reflect.DeepEqual(run1.EquityCurve, run2.EquityCurve) {
		t.Error("equity curves differ between identical runs")
	}
	if !reflect.DeepEqual(run1.BetHistory, run2.BetHistory) {
		t.Error("bet histories differ between identical runs")
	}
	if run1.Metrics != run2.Metrics {
		t.Errorf("metrics differ: %+v vs %+v", run1.Metrics, run2.Metrics)
	}
}

func TestMalformedEventSkippedNotFatal(t *testing.T) {
	events := syntheticEvents(10)
	events[3].DecimalOdds = 0.5                   // invalid odds
	events[7].Result = domain.Outcome("MAYBE")    // invalid result
	events[8].Timestamp = events[2].Timestamp - 1 // out of order

	run, err := Run(context.Background(), testStrategy(), events, Options{InitialBankroll: 1000})
	if err != nil {
		t.Fatalf("one bad record must not abort the run: %v", err)
	}

	if len(run.DataNotes) != 3 {
		t.Errorf("data notes = %d, want 3", len(run.DataNotes))
	}
	if run.EventCount != 10 {
		t.Errorf("event count = %d, want 10 (skipped events still counted)", run.EventCount)
	}
	if len(run.BetHistory) != 7 {
		t.Errorf("bets = %d, want 7 (three skipped)", len(run.BetHistory))
	}
}

func TestDeferredSettlement(t *testing.T) {
	events := syntheticEvents(3)
	// First wager settles only after the last event's timestamp.
	events[0].SettleAt = events[2].Timestamp + 60000

	run, err := Run(context.Background(), testStrategy(), events, Options{InitialBankroll: 1000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(run.BetHistory) != 3 {
		t.Fatalf("bets = %d, want 3", len(run.BetHistory))
	}
	// The deferred wager settles last despite being placed first.
	lastSettled := run.BetHistory[len(run.BetHistory)-1]
	if lastSettled.EventID != "game-0" {
		t.Errorf("last settled = %s, want game-0 (deferred)", lastSettled.EventID)
	}
	if lastSettled.SettledAt != events[0].SettleAt {
		t.Errorf("settled at %d, want %d", lastSettled.SettledAt, events[0].SettleAt)
	}
}

func TestCancellationReturnsPartialRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := Run(ctx, testStrategy(), syntheticEvents(100), Options{InitialBankroll: 1000})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !run.Cancelled {
		t.Error("expected Cancelled flag on pre-cancelled context")
	}
	if run.EventCount != 0 {
		t.Errorf("event count = %d, want 0", run.EventCount)
	}
}

func TestStopLossPausesSimulatedBot(t *testing.T) {
	// Every bet loses; with a 10% stop-loss the simulated bot pauses and
	// later opportunities are rejected with PAUSED.
	events := syntheticEvents(40)
	for i := range events {
		events[i].Result = domain.OutcomeLost
	}

	run, err := Run(context.Background(), testStrategy(), events, Options{
		InitialBankroll: 1000,
		Risk:            domain.RiskManagement{StopLossPercentage: 10},
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if run.Rejections[domain.ReasonBotPaused] == 0 {
		t.Error("expected PAUSED rejections after stop-loss trip")
	}
	if run.FinalBalance > 900.01 {
		t.Errorf("final balance %v should be at or below the stop-loss floor", run.FinalBalance)
	}
}

func TestSizingOverrideDoesNotMutateStrategy(t *testing.T) {
	cfg := testStrategy()
	cfg.FixedAmount = 10

	run, err := Run(context.Background(), cfg, syntheticEvents(5), Options{
		InitialBankroll: 1000,
		SizingOverride:  domain.SizingFixedAmount,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if cfg.SizingPolicy != domain.SizingKelly {
		t.Error("caller's config mutated by override")
	}
	if run.Strategy.SizingPolicy != domain.SizingFixedAmount {
		t.Errorf("run snapshot policy = %s, want override", run.Strategy.SizingPolicy)
	}
	for _, w := range run.BetHistory {
		if w.Stake != 10 {
			t.Errorf("stake = %v, want flat 10 under FIXED_AMOUNT override", w.Stake)
		}
	}
}
