package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// BacktestRunStore implements storage.BacktestRunStore using PostgreSQL.
// Nested run data (strategy snapshot, bet history, rejections, data notes,
// metrics) is stored as JSONB. The equity curve is not part of the row.
type BacktestRunStore struct {
	pool *Pool
}

// NewBacktestRunStore creates a new BacktestRunStore.
func NewBacktestRunStore(pool *Pool) *BacktestRunStore {
	return &BacktestRunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

const runColumns = `
	run_id, strategy_id, strategy, sizing_override,
	initial_bankroll, final_balance, event_count, cancelled,
	bet_history, rejections, data_notes, metrics
`

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *BacktestRunStore) Insert(ctx context.Context, run *domain.BacktestRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	strategy, err := json.Marshal(run.Strategy)
	if err != nil {
		return fmt.Errorf("marshal strategy snapshot: %w", err)
	}
	betHistory, err := json.Marshal(run.BetHistory)
	if err != nil {
		return fmt.Errorf("marshal bet history: %w", err)
	}
	rejections, err := json.Marshal(run.Rejections)
	if err != nil {
		return fmt.Errorf("marshal rejections: %w", err)
	}
	dataNotes, err := json.Marshal(run.DataNotes)
	if err != nil {
		return fmt.Errorf("marshal data notes: %w", err)
	}
	metrics, err := json.Marshal(run.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	query := `
		INSERT INTO backtest_runs (` + runColumns + `) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12
		)
	`

	_, err = s.pool.Exec(ctx, query,
		run.RunID, run.StrategyID, strategy, run.SizingOverride,
		run.InitialBankroll, run.FinalBalance, run.EventCount, run.Cancelled,
		betHistory, rejections, dataNotes, metrics,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert backtest run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(ctx context.Context, runID string) (*domain.BacktestRun, error) {
	query := `SELECT ` + runColumns + ` FROM backtest_runs WHERE run_id = $1`

	row := s.pool.QueryRow(ctx, query, runID)
	run, err := scanRun(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get backtest run by id: %w", err)
	}
	return run, nil
}

// GetByStrategyID retrieves all runs for a strategy, ordered by run_id ASC.
func (s *BacktestRunStore) GetByStrategyID(ctx context.Context, strategyID string) ([]*domain.BacktestRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM backtest_runs
		WHERE strategy_id = $1
		ORDER BY run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, strategyID)
	if err != nil {
		return nil, fmt.Errorf("query backtest runs: %w", err)
	}
	defer rows.Close()

	var result []*domain.BacktestRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backtest run: %w", err)
		}
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate backtest runs: %w", err)
	}
	return result, nil
}

func scanRun(row rowScanner) (*domain.BacktestRun, error) {
	var run domain.BacktestRun
	var strategy, betHistory, rejections, dataNotes, metrics []byte

	err := row.Scan(
		&run.RunID, &run.StrategyID, &strategy, &run.SizingOverride,
		&run.InitialBankroll, &run.FinalBalance, &run.EventCount, &run.Cancelled,
		&betHistory, &rejections, &dataNotes, &metrics,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(strategy, &run.Strategy); err != nil {
		return nil, fmt.Errorf("unmarshal strategy snapshot: %w", err)
	}
	if err := json.Unmarshal(betHistory, &run.BetHistory); err != nil {
		return nil, fmt.Errorf("unmarshal bet history: %w", err)
	}
	if err := json.Unmarshal(rejections, &run.Rejections); err != nil {
		return nil, fmt.Errorf("unmarshal rejections: %w", err)
	}
	if err := json.Unmarshal(dataNotes, &run.DataNotes); err != nil {
		return nil, fmt.Errorf("unmarshal data notes: %w", err)
	}
	if err := json.Unmarshal(metrics, &run.Metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return &run, nil
}
