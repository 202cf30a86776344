// Package service exposes the caller-facing operations: live opportunity
// evaluation, wager settlement, backtest execution and performance queries.
// It owns the mapping from persisted bot rows to live single-writer ledgers.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/backtest"
	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/evaluator"
	"sportsbet-lab/internal/ledger"
	"sportsbet-lab/internal/metrics"
	"sportsbet-lab/internal/observability"
	"sportsbet-lab/internal/storage"
)

// ErrUnknownRef is returned by GetPerformance for an empty or ambiguous reference.
var ErrUnknownRef = errors.New("performance ref must name exactly one of bot_id or run_id")

// Options configures a Service. BotStore, StrategyStore and
// TransactionStore are required; the backtest stores are optional and
// RunBacktest degrades to in-memory-only when they are absent.
type Options struct {
	BotStore         storage.BotStore
	StrategyStore    storage.StrategyStore
	TransactionStore storage.TransactionStore
	BacktestRunStore storage.BacktestRunStore
	EquityCurveStore storage.EquityCurveStore

	Logger *logrus.Logger
}

// Service coordinates ledgers, evaluation and persistence.
type Service struct {
	bots         storage.BotStore
	strategies   storage.StrategyStore
	transactions storage.TransactionStore
	runs         storage.BacktestRunStore
	curves       storage.EquityCurveStore

	log *logrus.Logger

	// ledgers maps bot_id to its live ledger. Each bot's ledger is
	// created once and owns all mutations for that bot.
	mu      sync.Mutex
	ledgers map[string]*ledger.Ledger
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.BotStore == nil || opts.StrategyStore == nil || opts.TransactionStore == nil {
		return nil, fmt.Errorf("bot, strategy and transaction stores are required")
	}
	log := opts.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		bots:         opts.BotStore,
		strategies:   opts.StrategyStore,
		transactions: opts.TransactionStore,
		runs:         opts.BacktestRunStore,
		curves:       opts.EquityCurveStore,
		log:          log,
		ledgers:      make(map[string]*ledger.Ledger),
	}, nil
}

// CreateBot validates and persists a new bot, and registers its ledger.
func (s *Service) CreateBot(ctx context.Context, botID, strategyID string, startingBalance float64, risk domain.RiskManagement) (*domain.Bot, error) {
	if startingBalance <= 0 {
		return nil, fmt.Errorf("%w: starting balance must be > 0", domain.ErrValidation)
	}
	if err := risk.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.strategies.GetByID(ctx, strategyID); err != nil {
		return nil, fmt.Errorf("load strategy %s: %w", strategyID, err)
	}

	bot := domain.NewBot(botID, strategyID, startingBalance, risk)
	if err := s.bots.Insert(ctx, bot); err != nil {
		return nil, fmt.Errorf("insert bot: %w", err)
	}

	s.mu.Lock()
	s.ledgers[botID] = ledger.New(bot)
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"bot_id":      botID,
		"strategy_id": strategyID,
		"balance":     startingBalance,
	}).Info("bot created")

	return bot.Clone(), nil
}

// EvaluateOpportunity runs one opportunity through the bot's strategy.
// Rejections come back as decisions, not errors. On approval the open
// wager and the updated bot snapshot are persisted.
func (s *Service) EvaluateOpportunity(ctx context.Context, botID string, opp *domain.Opportunity) (domain.Decision, error) {
	led, err := s.ledgerFor(ctx, botID)
	if err != nil {
		return domain.Decision{}, err
	}

	cfg, err := s.strategies.GetByID(ctx, led.Snapshot().StrategyID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("load strategy: %w", err)
	}

	ev, err := evaluator.New(cfg, func(*domain.Opportunity) string { return uuid.NewString() })
	if err != nil {
		return domain.Decision{}, err
	}

	dec, err := ev.Evaluate(led, opp)
	if err != nil {
		return domain.Decision{}, err
	}

	if !dec.Approved {
		s.log.WithFields(logrus.Fields{
			"bot_id":   botID,
			"event_id": opp.EventID,
			"reason":   dec.Reason,
		}).Debug("opportunity rejected")
		return dec, nil
	}

	snap := led.Snapshot()
	wager, ok := snap.OpenWagers[dec.WagerID]
	if !ok {
		return domain.Decision{}, fmt.Errorf("placed wager %s missing from snapshot", dec.WagerID)
	}
	if err := s.transactions.Insert(ctx, wager); err != nil {
		return domain.Decision{}, fmt.Errorf("persist wager: %w", err)
	}
	if err := s.bots.Update(ctx, snap); err != nil {
		return domain.Decision{}, fmt.Errorf("persist bot snapshot: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"bot_id":   botID,
		"wager_id": dec.WagerID,
		"event_id": opp.EventID,
		"stake":    dec.Stake,
		"edge":     dec.Edge,
	}).Info("wager placed")

	return dec, nil
}

// SettleWager applies an outcome to an open wager and persists the result.
// Ledger state errors (unknown wager, double settlement, ERROR state,
// corruption) surface unchanged.
func (s *Service) SettleWager(ctx context.Context, botID, wagerID string, outcome domain.Outcome) (*domain.Bot, error) {
	led, err := s.ledgerFor(ctx, botID)
	if err != nil {
		return nil, err
	}

	settledAt := time.Now().UTC().UnixMilli()
	settled, err := led.SettleWager(wagerID, outcome, settledAt)

	// Persist the snapshot even on corruption: the ERROR status must survive
	// a restart.
	var corruption *ledger.CorruptionError
	if err != nil && !errors.As(err, &corruption) {
		return nil, err
	}
	snap := led.Snapshot()
	if updErr := s.bots.Update(ctx, snap); updErr != nil {
		return nil, fmt.Errorf("persist bot snapshot: %w", updErr)
	}
	if err != nil {
		return nil, err
	}

	if markErr := s.transactions.MarkSettled(ctx, wagerID, settled.State, settled.SettledAt, settled.ProfitLoss); markErr != nil {
		return nil, fmt.Errorf("persist settlement: %w", markErr)
	}

	s.log.WithFields(logrus.Fields{
		"bot_id":      botID,
		"wager_id":    wagerID,
		"outcome":     outcome,
		"profit_loss": settled.ProfitLoss,
		"balance":     snap.CurrentBalance,
	}).Info("wager settled")

	return snap, nil
}

// PauseBot pauses an active bot.
func (s *Service) PauseBot(ctx context.Context, botID, reason string) error {
	return s.transition(ctx, botID, func(l *ledger.Ledger) error { return l.Pause(reason) })
}

// ResumeBot returns a paused bot to active.
func (s *Service) ResumeBot(ctx context.Context, botID string) error {
	return s.transition(ctx, botID, func(l *ledger.Ledger) error { return l.Resume() })
}

// StopBot terminally stops a bot.
func (s *Service) StopBot(ctx context.Context, botID, reason string) error {
	return s.transition(ctx, botID, func(l *ledger.Ledger) error { return l.Stop(reason) })
}

func (s *Service) transition(ctx context.Context, botID string, op func(*ledger.Ledger) error) error {
	led, err := s.ledgerFor(ctx, botID)
	if err != nil {
		return err
	}
	if err := op(led); err != nil {
		return err
	}
	if err := s.bots.Update(ctx, led.Snapshot()); err != nil {
		return fmt.Errorf("persist bot snapshot: %w", err)
	}
	return nil
}

// GetBot returns the current state of a bot.
func (s *Service) GetBot(ctx context.Context, botID string) (*domain.Bot, error) {
	led, err := s.ledgerFor(ctx, botID)
	if err != nil {
		return nil, err
	}
	return led.Snapshot(), nil
}

// ListBots returns the stored state of all bots, ordered by bot_id.
func (s *Service) ListBots(ctx context.Context) ([]*domain.Bot, error) {
	return s.bots.List(ctx)
}

// RunBacktest executes a simulation and persists the run and its equity
// curve when the backtest stores are configured.
func (s *Service) RunBacktest(ctx context.Context, cfg domain.StrategyConfig, events []domain.BacktestEvent, opts backtest.Options) (*domain.BacktestRun, error) {
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(s.log)
	}

	start := time.Now()
	run, err := backtest.Run(ctx, cfg, events, opts)
	if err != nil {
		observability.RecordBacktestRun("failed", time.Since(start).Seconds())
		return nil, err
	}
	status := "completed"
	if run.Cancelled {
		status = "partial"
	}
	observability.RecordBacktestRun(status, time.Since(start).Seconds())

	// Run IDs are deterministic, so re-running an identical config over
	// identical events hits the same run row. In that case the curve was
	// already stored with it; any other curve insert failure is real data
	// loss and must surface.
	rerun := false
	if s.runs != nil {
		if err := s.runs.Insert(ctx, run); err != nil {
			if !errors.Is(err, storage.ErrDuplicateKey) {
				return nil, fmt.Errorf("persist backtest run: %w", err)
			}
			rerun = true
		}
	}
	if s.curves != nil && !rerun && len(run.EquityCurve) > 0 {
		points := make([]*domain.EquityPoint, len(run.EquityCurve))
		for i := range run.EquityCurve {
			points[i] = &run.EquityCurve[i]
		}
		if err := s.curves.InsertBulk(ctx, points); err != nil {
			return nil, fmt.Errorf("persist equity curve: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{
		"run_id":        run.RunID,
		"strategy_id":   run.StrategyID,
		"events":        run.EventCount,
		"bets":          len(run.BetHistory),
		"final_balance": run.FinalBalance,
	}).Info("backtest completed")

	return run, nil
}

// PerformanceRef names the source of a performance query: exactly one of
// BotID or RunID must be set.
type PerformanceRef struct {
	BotID string
	RunID string
}

// GetPerformance recomputes metrics from a bot's settled transactions or
// returns the stored metrics of a backtest run.
func (s *Service) GetPerformance(ctx context.Context, ref PerformanceRef) (*domain.PerformanceMetrics, error) {
	switch {
	case ref.BotID != "" && ref.RunID == "":
		bot, err := s.GetBot(ctx, ref.BotID)
		if err != nil {
			return nil, err
		}
		settled, err := s.transactions.GetSettledByBotID(ctx, ref.BotID)
		if err != nil {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		balances := balanceSeries(bot.StartingBalance, settled)
		m := metrics.Compute(settled, balances)
		return &m, nil

	case ref.RunID != "" && ref.BotID == "":
		if s.runs == nil {
			return nil, storage.ErrNotFound
		}
		run, err := s.runs.GetByID(ctx, ref.RunID)
		if err != nil {
			return nil, err
		}
		m := run.Metrics
		return &m, nil

	default:
		return nil, ErrUnknownRef
	}
}

// ledgerFor returns the live ledger for a bot, loading the bot row on
// first use.
func (s *Service) ledgerFor(ctx context.Context, botID string) (*ledger.Ledger, error) {
	s.mu.Lock()
	if led, ok := s.ledgers[botID]; ok {
		s.mu.Unlock()
		return led, nil
	}
	s.mu.Unlock()

	bot, err := s.bots.GetByID(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("load bot %s: %w", botID, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if led, ok := s.ledgers[botID]; ok {
		return led, nil
	}
	led := ledger.New(bot)
	s.ledgers[botID] = led
	return led, nil
}

// balanceSeries reconstructs the settled-balance sequence from the
// starting balance and the ordered transaction log.
func balanceSeries(starting float64, settled []*domain.Wager) []float64 {
	balances := make([]float64, 0, len(settled)+1)
	balances = append(balances, starting)
	bal := starting
	for _, w := range settled {
		bal += w.ProfitLoss
		balances = append(balances, bal)
	}
	return balances
}
