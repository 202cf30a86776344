package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// BotStore implements storage.BotStore using PostgreSQL.
// Open wagers are stored as a JSONB document on the bot row; the
// transaction log lives in the wagers table.
type BotStore struct {
	pool *Pool
}

// NewBotStore creates a new BotStore.
func NewBotStore(pool *Pool) *BotStore {
	return &BotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BotStore = (*BotStore)(nil)

const botColumns = `
	bot_id, name, strategy_id, status, status_reason,
	starting_balance, current_balance, peak_balance,
	stop_loss_pct, take_profit_pct, drawdown_limit_pct,
	max_bet_pct, max_bets_per_day, max_bets_per_week,
	day_key, day_count, week_key, week_count,
	open_wagers
`

// Insert adds a new bot. Returns ErrDuplicateKey if bot_id exists.
func (s *BotStore) Insert(ctx context.Context, b *domain.Bot) error {
	if b == nil || b.BotID == "" {
		return storage.ErrInvalidInput
	}

	openWagers, err := json.Marshal(b.OpenWagers)
	if err != nil {
		return fmt.Errorf("marshal open wagers: %w", err)
	}

	query := `
		INSERT INTO bots (` + botColumns + `) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11,
			$12, $13, $14,
			$15, $16, $17, $18,
			$19
		)
	`

	_, err = s.pool.Exec(ctx, query,
		b.BotID, b.Name, b.StrategyID, b.Status, b.StatusReason,
		b.StartingBalance, b.CurrentBalance, b.PeakBalance,
		b.Risk.StopLossPercentage, b.Risk.TakeProfitPercentage, b.Risk.DrawdownLimitPercentage,
		b.Risk.MaxBetPercentage, b.Risk.MaxBetsPerDay, b.Risk.MaxBetsPerWeek,
		b.Counters.DayKey, b.Counters.DayCount, b.Counters.WeekKey, b.Counters.WeekCount,
		openWagers,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert bot: %w", err)
	}
	return nil
}

// Update replaces the stored state for an existing bot.
func (s *BotStore) Update(ctx context.Context, b *domain.Bot) error {
	if b == nil || b.BotID == "" {
		return storage.ErrInvalidInput
	}

	openWagers, err := json.Marshal(b.OpenWagers)
	if err != nil {
		return fmt.Errorf("marshal open wagers: %w", err)
	}

	query := `
		UPDATE bots SET
			name = $2, strategy_id = $3, status = $4, status_reason = $5,
			starting_balance = $6, current_balance = $7, peak_balance = $8,
			stop_loss_pct = $9, take_profit_pct = $10, drawdown_limit_pct = $11,
			max_bet_pct = $12, max_bets_per_day = $13, max_bets_per_week = $14,
			day_key = $15, day_count = $16, week_key = $17, week_count = $18,
			open_wagers = $19
		WHERE bot_id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		b.BotID, b.Name, b.StrategyID, b.Status, b.StatusReason,
		b.StartingBalance, b.CurrentBalance, b.PeakBalance,
		b.Risk.StopLossPercentage, b.Risk.TakeProfitPercentage, b.Risk.DrawdownLimitPercentage,
		b.Risk.MaxBetPercentage, b.Risk.MaxBetsPerDay, b.Risk.MaxBetsPerWeek,
		b.Counters.DayKey, b.Counters.DayCount, b.Counters.WeekKey, b.Counters.WeekCount,
		openWagers,
	)
	if err != nil {
		return fmt.Errorf("update bot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(ctx context.Context, botID string) (*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots WHERE bot_id = $1`

	row := s.pool.QueryRow(ctx, query, botID)
	b, err := scanBot(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bot by id: %w", err)
	}
	return b, nil
}

// List retrieves all bots, ordered by bot_id ASC.
func (s *BotStore) List(ctx context.Context) ([]*domain.Bot, error) {
	query := `SELECT ` + botColumns + ` FROM bots ORDER BY bot_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bots: %w", err)
	}
	defer rows.Close()

	var result []*domain.Bot
	for rows.Next() {
		b, err := scanBot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bot: %w", err)
		}
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bots: %w", err)
	}
	return result, nil
}

// rowScanner abstracts pgx.Row and pgx.Rows for shared scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBot(row rowScanner) (*domain.Bot, error) {
	var b domain.Bot
	var openWagers []byte

	err := row.Scan(
		&b.BotID, &b.Name, &b.StrategyID, &b.Status, &b.StatusReason,
		&b.StartingBalance, &b.CurrentBalance, &b.PeakBalance,
		&b.Risk.StopLossPercentage, &b.Risk.TakeProfitPercentage, &b.Risk.DrawdownLimitPercentage,
		&b.Risk.MaxBetPercentage, &b.Risk.MaxBetsPerDay, &b.Risk.MaxBetsPerWeek,
		&b.Counters.DayKey, &b.Counters.DayCount, &b.Counters.WeekKey, &b.Counters.WeekCount,
		&openWagers,
	)
	if err != nil {
		return nil, err
	}

	b.OpenWagers = make(map[string]*domain.Wager)
	if len(openWagers) > 0 {
		if err := json.Unmarshal(openWagers, &b.OpenWagers); err != nil {
			return nil, fmt.Errorf("unmarshal open wagers: %w", err)
		}
	}
	return &b, nil
}
