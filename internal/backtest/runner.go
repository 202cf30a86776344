// Package backtest replays an ordered opportunity stream through the live
// evaluation path against an isolated in-memory ledger. Runs are
// deterministic: identical configuration and events always produce a
// bit-identical equity curve and bet history. No wall clocks, no
// unseeded randomness, no shared state across runs.
package backtest

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/evaluator"
	"sportsbet-lab/internal/idhash"
	"sportsbet-lab/internal/ledger"
	"sportsbet-lab/internal/metrics"
)

// Options configures one backtest run.
type Options struct {
	InitialBankroll float64
	// SizingOverride replaces the strategy's sizing policy for this run
	// only, so one strategy can be compared across policies.
	SizingOverride string
	// Risk applies bot-level limits inside the simulated ledger.
	Risk domain.RiskManagement
	// Logger receives per-event data-quality notes. Nil discards them.
	Logger *logrus.Entry
}

// pendingSettlement is a placed wager waiting for its deferred timestamp.
type pendingSettlement struct {
	settleAt int64
	wagerID  string
	result   domain.Outcome
}

// Run replays events in order through the shared evaluator path. Malformed
// events are skipped and recorded as data notes; the run never aborts on
// one bad record. Cancellation between events returns the partial run with
// Cancelled set.
func Run(ctx context.Context, cfg domain.StrategyConfig, events []domain.BacktestEvent, opts Options) (*domain.BacktestRun, error) {
	if opts.InitialBankroll <= 0 {
		return nil, fmt.Errorf("%w: initial bankroll must be > 0, got %v", domain.ErrValidation, opts.InitialBankroll)
	}
	if err := opts.Risk.Validate(); err != nil {
		return nil, err
	}

	// The run operates on a private snapshot; an override never leaks back
	// into the caller's strategy.
	runCfg := cfg
	if opts.SizingOverride != "" {
		runCfg.SizingPolicy = opts.SizingOverride
	}
	if err := runCfg.Validate(); err != nil {
		return nil, err
	}

	var firstTs, lastTs int64
	if len(events) > 0 {
		firstTs = events[0].Timestamp
		lastTs = events[len(events)-1].Timestamp
	}
	runID := idhash.ComputeRunID(runCfg.StrategyID, opts.SizingOverride, opts.InitialBankroll, len(events), firstTs, lastTs)

	run := &domain.BacktestRun{
		RunID:           runID,
		StrategyID:      runCfg.StrategyID,
		Strategy:        runCfg,
		SizingOverride:  opts.SizingOverride,
		InitialBankroll: opts.InitialBankroll,
		Rejections:      make(map[domain.ReasonCode]int),
	}

	bot := domain.NewBot("backtest-"+runID[:12], runCfg.StrategyID, opts.InitialBankroll, opts.Risk)
	led := ledger.New(bot)

	ev, err := evaluator.New(&runCfg, func(opp *domain.Opportunity) string {
		return idhash.ComputeWagerID(runID, opp.EventID, opp.Timestamp)
	})
	if err != nil {
		return nil, err
	}

	// Seed the curve so drawdown is measured from the initial bankroll.
	run.EquityCurve = append(run.EquityCurve, domain.EquityPoint{
		RunID: runID, Seq: 0, Timestamp: firstTs, Balance: opts.InitialBankroll,
	})

	var pending []pendingSettlement
	var prevTs int64

	for i := range events {
		if err := ctx.Err(); err != nil {
			run.Cancelled = true
			break
		}
		e := &events[i]
		run.EventCount++

		if reason := checkEvent(e, prevTs); reason != "" {
			run.DataNotes = append(run.DataNotes, domain.DataNote{EventID: e.EventID, Reason: reason})
			if opts.Logger != nil {
				opts.Logger.WithFields(logrus.Fields{"event_id": e.EventID, "reason": reason}).
					Warn("skipping malformed backtest event")
			}
			continue
		}
		prevTs = e.Timestamp

		// Deferred settlements due before this event resolve first, in
		// (settle_at, wager_id) order for determinism.
		pending, err = flushPending(led, run, pending, e.Timestamp)
		if err != nil {
			return nil, err
		}

		// The evaluator sees only the embedded opportunity; the ground
		// truth result stays out of reach until settlement.
		decision, err := ev.Evaluate(led, &e.Opportunity)
		if err != nil {
			return nil, fmt.Errorf("evaluate event %s: %w", e.EventID, err)
		}

		if !decision.Approved {
			run.Rejections[decision.Reason]++
			continue
		}

		if e.SettleAt > e.Timestamp {
			pending = append(pending, pendingSettlement{settleAt: e.SettleAt, wagerID: decision.WagerID, result: e.Result})
			continue
		}

		if err := settle(led, run, decision.WagerID, e.Result, e.Timestamp); err != nil {
			return nil, err
		}
	}

	if !run.Cancelled {
		// Flush everything still pending past the last event.
		if _, err = flushPending(led, run, pending, int64(1)<<62); err != nil {
			return nil, err
		}
	}

	snap := led.Snapshot()
	run.FinalBalance = snap.CurrentBalance
	run.BetHistory = snap.TransactionLog
	run.Metrics = metrics.FromEquityCurve(run.BetHistory, run.EquityCurve)

	return run, nil
}

// checkEvent validates one event, returning a non-empty reason to skip it.
func checkEvent(e *domain.BacktestEvent, prevTs int64) string {
	if err := e.Opportunity.Validate(); err != nil {
		return err.Error()
	}
	if !e.Result.Valid() {
		return fmt.Sprintf("unknown result %q", e.Result)
	}
	if e.Timestamp < prevTs {
		return fmt.Sprintf("timestamp %d before previous event %d", e.Timestamp, prevTs)
	}
	if e.SettleAt != 0 && e.SettleAt < e.Timestamp {
		return fmt.Sprintf("settle_at %d before event timestamp %d", e.SettleAt, e.Timestamp)
	}
	return ""
}

// flushPending settles all deferred wagers due at or before now.
func flushPending(led *ledger.Ledger, run *domain.BacktestRun, pending []pendingSettlement, now int64) ([]pendingSettlement, error) {
	sort.Slice(pending, func(i, j int) bool {
		if pending[i].settleAt != pending[j].settleAt {
			return pending[i].settleAt < pending[j].settleAt
		}
		return pending[i].wagerID < pending[j].wagerID
	})

	idx := 0
	for ; idx < len(pending); idx++ {
		p := pending[idx]
		if p.settleAt > now {
			break
		}
		if err := settle(led, run, p.wagerID, p.result, p.settleAt); err != nil {
			return nil, err
		}
	}
	return pending[idx:], nil
}

// settle resolves one wager and records the equity point. A corruption
// error aborts the run; it is never swallowed.
func settle(led *ledger.Ledger, run *domain.BacktestRun, wagerID string, result domain.Outcome, at int64) error {
	if _, err := led.SettleWager(wagerID, result, at); err != nil {
		return fmt.Errorf("settle wager %s: %w", wagerID, err)
	}
	run.EquityCurve = append(run.EquityCurve, domain.EquityPoint{
		RunID: run.RunID, Seq: len(run.EquityCurve), Timestamp: at, Balance: led.Balance(),
	})
	return nil
}
