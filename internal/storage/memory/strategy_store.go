package memory

import (
	"context"
	"sort"
	"sync"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// StrategyStore is an in-memory implementation of storage.StrategyStore.
type StrategyStore struct {
	mu   sync.RWMutex
	data map[string]*domain.StrategyConfig // keyed by strategy_id
}

// NewStrategyStore creates a new in-memory strategy store.
func NewStrategyStore() *StrategyStore {
	return &StrategyStore{
		data: make(map[string]*domain.StrategyConfig),
	}
}

// Compile-time interface check.
var _ storage.StrategyStore = (*StrategyStore)(nil)

// Insert adds a new config. Returns ErrDuplicateKey if strategy_id exists.
func (s *StrategyStore) Insert(_ context.Context, cfg *domain.StrategyConfig) error {
	if cfg == nil || cfg.StrategyID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[cfg.StrategyID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[cfg.StrategyID] = copyConfig(cfg)
	return nil
}

// GetByID retrieves a config by its ID. Returns ErrNotFound if not exists.
func (s *StrategyStore) GetByID(_ context.Context, strategyID string) (*domain.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.data[strategyID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return copyConfig(cfg), nil
}

// List retrieves all configs, ordered by strategy_id ASC.
func (s *StrategyStore) List(_ context.Context) ([]*domain.StrategyConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.StrategyConfig, 0, len(s.data))
	for _, cfg := range s.data {
		result = append(result, copyConfig(cfg))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].StrategyID < result[j].StrategyID
	})

	return result, nil
}

// copyConfig deep-copies a config including its filter slices.
func copyConfig(cfg *domain.StrategyConfig) *domain.StrategyConfig {
	c := *cfg
	c.Sports = append([]string(nil), cfg.Sports...)
	c.MarketTypes = append([]string(nil), cfg.MarketTypes...)
	return &c
}
