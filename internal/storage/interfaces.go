package storage

import (
	"context"

	"sportsbet-lab/internal/domain"
)

// BotStore provides access to bot state storage.
//
// A bot row carries balances, status, risk limits, counters and open wagers.
// Settled wagers are not part of the row; they live in TransactionStore.
type BotStore interface {
	// Insert adds a new bot. Returns ErrDuplicateKey if bot_id exists.
	Insert(ctx context.Context, b *domain.Bot) error

	// Update replaces the stored state for an existing bot.
	// Returns ErrNotFound if bot_id does not exist.
	Update(ctx context.Context, b *domain.Bot) error

	// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, botID string) (*domain.Bot, error)

	// List retrieves all bots, ordered by bot_id ASC.
	List(ctx context.Context) ([]*domain.Bot, error)
}

// StrategyStore provides access to strategy configuration storage.
// Configs are immutable once stored; an edit is a new strategy_id.
type StrategyStore interface {
	// Insert adds a new config. Returns ErrDuplicateKey if strategy_id exists.
	Insert(ctx context.Context, cfg *domain.StrategyConfig) error

	// GetByID retrieves a config by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, strategyID string) (*domain.StrategyConfig, error)

	// List retrieves all configs, ordered by strategy_id ASC.
	List(ctx context.Context) ([]*domain.StrategyConfig, error)
}

// TransactionStore provides access to wager storage. Wagers are inserted
// OPEN at placement and move to exactly one terminal state exactly once.
type TransactionStore interface {
	// Insert adds a new wager. Returns ErrDuplicateKey if wager_id exists.
	Insert(ctx context.Context, w *domain.Wager) error

	// InsertBulk adds multiple wagers atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, wagers []*domain.Wager) error

	// MarkSettled records the terminal state of an open wager.
	// Returns ErrNotFound if wager_id does not exist or is already settled.
	MarkSettled(ctx context.Context, wagerID, state string, settledAt int64, profitLoss float64) error

	// GetByID retrieves a wager by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, wagerID string) (*domain.Wager, error)

	// GetByBotID retrieves all wagers for a bot, ordered by placed_at ASC.
	GetByBotID(ctx context.Context, botID string) ([]*domain.Wager, error)

	// GetSettledByBotID retrieves settled wagers for a bot, ordered by settled_at ASC.
	GetSettledByBotID(ctx context.Context, botID string) ([]*domain.Wager, error)

	// GetByTimeRange retrieves wagers for a bot placed within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, botID string, start, end int64) ([]*domain.Wager, error)
}

// BacktestRunStore provides access to completed simulation storage.
// Runs are immutable after insert. The equity curve is not part of the
// run record; it lives in EquityCurveStore keyed by run_id.
type BacktestRunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, run *domain.BacktestRun) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error)

	// GetByStrategyID retrieves all runs for a strategy, ordered by run_id ASC.
	GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.BacktestRun, error)
}

// EquityCurveStore provides access to equity curve point storage.
type EquityCurveStore interface {
	// InsertBulk adds multiple points. Fails entire batch on duplicate
	// (run_id, seq). Timestamps may repeat within a run.
	InsertBulk(ctx context.Context, points []*domain.EquityPoint) error

	// GetByRunID retrieves all points for a run, ordered by seq ASC.
	GetByRunID(ctx context.Context, runID string) ([]*domain.EquityPoint, error)

	// GetByTimeRange retrieves points for a run within [start, end] (inclusive).
	GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.EquityPoint, error)
}
