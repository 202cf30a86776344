package clickhouse

import (
	"context"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// EquityCurveStore implements storage.EquityCurveStore using ClickHouse.
// Equity curves are high-volume append-only timeseries; a sweep over a
// large event file writes one point per settlement per run.
type EquityCurveStore struct {
	conn *Conn
}

// NewEquityCurveStore creates a new EquityCurveStore.
func NewEquityCurveStore(conn *Conn) *EquityCurveStore {
	return &EquityCurveStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, seq).
// Timestamps may repeat within a run; deferred settlements can share a millisecond.
func (s *EquityCurveStore) InsertBulk(ctx context.Context, points []*domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		runID string
		seq   int
	}
	seen := make(map[key]struct{}, len(points))
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}
		k := key{p.RunID, p.Seq}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.RunID, p.Seq)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO equity_curves (run_id, seq, timestamp_ms, balance)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		if err := batch.Append(p.RunID, uint32(p.Seq), uint64(p.Timestamp), p.Balance); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by seq ASC.
func (s *EquityCurveStore) GetByRunID(ctx context.Context, runID string) ([]*domain.EquityPoint, error) {
	query := `
		SELECT run_id, seq, timestamp_ms, balance
		FROM equity_curves
		WHERE run_id = ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query by run id: %w", err)
	}
	defer rows.Close()

	return scanEquityPoints(rows)
}

// GetByTimeRange retrieves points for a run within [start, end] (inclusive).
func (s *EquityCurveStore) GetByTimeRange(ctx context.Context, runID string, start, end int64) ([]*domain.EquityPoint, error) {
	query := `
		SELECT run_id, seq, timestamp_ms, balance
		FROM equity_curves
		WHERE run_id = ? AND timestamp_ms >= ? AND timestamp_ms <= ?
		ORDER BY seq ASC
	`

	rows, err := s.conn.Query(ctx, query, runID, uint64(start), uint64(end))
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanEquityPoints(rows)
}

func (s *EquityCurveStore) exists(ctx context.Context, runID string, seq int) (bool, error) {
	query := `
		SELECT count() FROM equity_curves
		WHERE run_id = ? AND seq = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, runID, uint32(seq)).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanEquityPoints(rows driver.Rows) ([]*domain.EquityPoint, error) {
	var result []*domain.EquityPoint
	for rows.Next() {
		var p domain.EquityPoint
		var seq uint32
		var ts uint64
		if err := rows.Scan(&p.RunID, &seq, &ts, &p.Balance); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		p.Seq = int(seq)
		p.Timestamp = int64(ts)
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equity points: %w", err)
	}
	return result, nil
}
