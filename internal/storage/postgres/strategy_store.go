package postgres

import (
	"context"
	"fmt"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// StrategyStore implements storage.StrategyStore using PostgreSQL.
type StrategyStore struct {
	pool *Pool
}

// NewStrategyStore creates a new StrategyStore.
func NewStrategyStore(pool *Pool) *StrategyStore {
	return &StrategyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

const strategyColumns = `
	strategy_id, name, sizing_policy,
	fixed_amount, stake_percentage, kelly_fraction,
	max_bet_percentage, min_confidence, min_expected_value,
	min_odds, max_odds,
	max_bets_per_day, max_bets_per_week,
	sports, market_types
`

// Insert adds a new config. Returns ErrDuplicateKey if strategy_id exists.
func (s *StrategyStore) Insert(ctx context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO strategies (` + strategyColumns + `) VALUES (
			$1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11,
			$12, $13,
			$14, $15
		)
	`

	_, err := s.pool.Exec(ctx, query,
		cfg.StrategyID, cfg.Name, cfg.SizingPolicy,
		cfg.FixedAmount, cfg.StakePercentage, cfg.KellyFraction,
		cfg.MaxBetPercentage, cfg.MinConfidence, cfg.MinExpectedValue,
		cfg.MinOdds, cfg.MaxOdds,
		cfg.MaxBetsPerDay, cfg.MaxBetsPerWeek,
		cfg.Sports, cfg.MarketTypes,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert strategy: %w", err)
	}
	return nil
}

// GetByID retrieves a config by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(ctx context.Context, strategyID string) (*domain.StrategyConfig, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies WHERE strategy_id = $1`

	row := s.pool.QueryRow(ctx, query, strategyID)
	cfg, err := scanStrategy(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get strategy by id: %w", err)
	}
	return cfg, nil
}

// List retrieves all configs, ordered by strategy_id ASC.
func (s *StrategyStore) List(ctx context.Context) ([]*domain.StrategyConfig, error) {
	query := `SELECT ` + strategyColumns + ` FROM strategies ORDER BY strategy_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list strategies: %w", err)
	}
	defer rows.Close()

	var result []*domain.StrategyConfig
	for rows.Next() {
		cfg, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		result = append(result, cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate strategies: %w", err)
	}
	return result, nil
}

func scanStrategy(row rowScanner) (*domain.StrategyConfig, error) {
	var cfg domain.StrategyConfig

	err := row.Scan(
		&cfg.StrategyID, &cfg.Name, &cfg.SizingPolicy,
		&cfg.FixedAmount, &cfg.StakePercentage, &cfg.KellyFraction,
		&cfg.MaxBetPercentage, &cfg.MinConfidence, &cfg.MinExpectedValue,
		&cfg.MinOdds, &cfg.MaxOdds,
		&cfg.MaxBetsPerDay, &cfg.MaxBetsPerWeek,
		&cfg.Sports, &cfg.MarketTypes,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
