package postgres

import (
	"context"
	"fmt"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const wagerColumns = `
	wager_id, bot_id, strategy_id, event_id,
	placed_at, settled_at, sport, market_type, predicted_outcome,
	stake, decimal_odds, edge, confidence,
	state, profit_loss
`

const insertWagerQuery = `
	INSERT INTO wagers (` + wagerColumns + `) VALUES (
		$1, $2, $3, $4,
		$5, $6, $7, $8, $9,
		$10, $11, $12, $13,
		$14, $15
	)
`

// Insert adds a new wager. Returns ErrDuplicateKey if wager_id exists.
func (s *TransactionStore) Insert(ctx context.Context, w *domain.Wager) error {
	if w == nil || w.WagerID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertWagerQuery,
		w.WagerID, w.BotID, w.StrategyID, w.EventID,
		w.PlacedAt, w.SettledAt, w.Sport, w.MarketType, w.PredictedOutcome,
		w.Stake, w.DecimalOdds, w.Edge, w.Confidence,
		w.State, w.ProfitLoss,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert wager: %w", err)
	}
	return nil
}

// InsertBulk adds multiple wagers atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(ctx context.Context, wagers []*domain.Wager) error {
	if len(wagers) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, w := range wagers {
		if w == nil || w.WagerID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, insertWagerQuery,
			w.WagerID, w.BotID, w.StrategyID, w.EventID,
			w.PlacedAt, w.SettledAt, w.Sport, w.MarketType, w.PredictedOutcome,
			w.Stake, w.DecimalOdds, w.Edge, w.Confidence,
			w.State, w.ProfitLoss,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert wager in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// MarkSettled records the terminal state of an open wager. The state guard
// in the WHERE clause makes settlement single-shot.
func (s *TransactionStore) MarkSettled(ctx context.Context, wagerID, state string, settledAt int64, profitLoss float64) error {
	if wagerID == "" || state == domain.WagerOpen {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE wagers
		SET state = $2, settled_at = $3, profit_loss = $4
		WHERE wager_id = $1 AND state = $5
	`

	tag, err := s.pool.Exec(ctx, query, wagerID, state, settledAt, profitLoss, domain.WagerOpen)
	if err != nil {
		return fmt.Errorf("mark wager settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a wager by its ID. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(ctx context.Context, wagerID string) (*domain.Wager, error) {
	query := `SELECT ` + wagerColumns + ` FROM wagers WHERE wager_id = $1`

	row := s.pool.QueryRow(ctx, query, wagerID)
	w, err := scanWager(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get wager by id: %w", err)
	}
	return w, nil
}

// GetByBotID retrieves all wagers for a bot, ordered by placed_at ASC.
func (s *TransactionStore) GetByBotID(ctx context.Context, botID string) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE bot_id = $1
		ORDER BY placed_at ASC, wager_id ASC
	`
	return s.queryWagers(ctx, query, botID)
}

// GetSettledByBotID retrieves settled wagers for a bot, ordered by settled_at ASC.
func (s *TransactionStore) GetSettledByBotID(ctx context.Context, botID string) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE bot_id = $1 AND state != $2
		ORDER BY settled_at ASC, wager_id ASC
	`
	return s.queryWagers(ctx, query, botID, domain.WagerOpen)
}

// GetByTimeRange retrieves wagers for a bot placed within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(ctx context.Context, botID string, start, end int64) ([]*domain.Wager, error) {
	query := `
		SELECT ` + wagerColumns + `
		FROM wagers
		WHERE bot_id = $1 AND placed_at >= $2 AND placed_at <= $3
		ORDER BY placed_at ASC, wager_id ASC
	`
	return s.queryWagers(ctx, query, botID, start, end)
}

func (s *TransactionStore) queryWagers(ctx context.Context, query string, args ...any) ([]*domain.Wager, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wagers: %w", err)
	}
	defer rows.Close()

	var result []*domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, fmt.Errorf("scan wager: %w", err)
		}
		result = append(result, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wagers: %w", err)
	}
	return result, nil
}

func scanWager(row rowScanner) (*domain.Wager, error) {
	var w domain.Wager

	err := row.Scan(
		&w.WagerID, &w.BotID, &w.StrategyID, &w.EventID,
		&w.PlacedAt, &w.SettledAt, &w.Sport, &w.MarketType, &w.PredictedOutcome,
		&w.Stake, &w.DecimalOdds, &w.Edge, &w.Confidence,
		&w.State, &w.ProfitLoss,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
