package memory

import (
	"context"
	"sort"
	"sync"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// BacktestRunStore is an in-memory implementation of storage.BacktestRunStore.
type BacktestRunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.BacktestRun // keyed by run_id
}

// NewBacktestRunStore creates a new in-memory backtest run store.
func NewBacktestRunStore() *BacktestRunStore {
	return &BacktestRunStore{
		data: make(map[string]*domain.BacktestRun),
	}
}

// Compile-time interface check.
var _ storage.BacktestRunStore = (*BacktestRunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
// The equity curve is dropped; it belongs to EquityCurveStore.
func (s *BacktestRunStore) Insert(_ context.Context, run *domain.BacktestRun) error {
	if run == nil || run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[run.RunID] = copyRun(run)
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *BacktestRunStore) GetByID(_ context.Context, runID string) (*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyRun(run), nil
}

// GetByStrategyID retrieves all runs for a strategy, ordered by run_id ASC.
func (s *BacktestRunStore) GetByStrategyID(_ context.Context, strategyID string) ([]*domain.BacktestRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.BacktestRun
	for _, run := range s.data {
		if run.StrategyID == strategyID {
			result = append(result, copyRun(run))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].RunID < result[j].RunID
	})

	return result, nil
}

// copyRun deep-copies a run without its equity curve.
func copyRun(run *domain.BacktestRun) *domain.BacktestRun {
	c := *run
	c.EquityCurve = nil
	c.BetHistory = make([]*domain.Wager, len(run.BetHistory))
	for i, w := range run.BetHistory {
		wc := *w
		c.BetHistory[i] = &wc
	}
	c.Rejections = make(map[domain.ReasonCode]int, len(run.Rejections))
	for k, v := range run.Rejections {
		c.Rejections[k] = v
	}
	c.DataNotes = append([]domain.DataNote(nil), run.DataNotes...)
	c.Strategy.Sports = append([]string(nil), run.Strategy.Sports...)
	c.Strategy.MarketTypes = append([]string(nil), run.Strategy.MarketTypes...)
	return &c
}
