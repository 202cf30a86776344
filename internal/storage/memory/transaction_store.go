package memory

import (
	"context"
	"sort"
	"sync"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Wager // keyed by wager_id
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data: make(map[string]*domain.Wager),
	}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new wager. Returns ErrDuplicateKey if wager_id exists.
func (s *TransactionStore) Insert(_ context.Context, w *domain.Wager) error {
	if w == nil || w.WagerID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[w.WagerID]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *w
	s.data[w.WagerID] = &copy
	return nil
}

// InsertBulk adds multiple wagers atomically. Fails entire batch on any duplicate.
func (s *TransactionStore) InsertBulk(_ context.Context, wagers []*domain.Wager) error {
	if len(wagers) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(wagers))

	// First pass: check for duplicates (existing + intra-batch)
	for _, w := range wagers {
		if w == nil || w.WagerID == "" {
			return storage.ErrInvalidInput
		}

		if _, exists := s.data[w.WagerID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[w.WagerID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[w.WagerID] = struct{}{}
	}

	// Second pass: insert all
	for _, w := range wagers {
		copy := *w
		s.data[w.WagerID] = &copy
	}

	return nil
}

// MarkSettled records the terminal state of an open wager.
func (s *TransactionStore) MarkSettled(_ context.Context, wagerID, state string, settledAt int64, profitLoss float64) error {
	if wagerID == "" || state == domain.WagerOpen {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	w, exists := s.data[wagerID]
	if !exists || w.State != domain.WagerOpen {
		return storage.ErrNotFound
	}

	w.State = state
	w.SettledAt = settledAt
	w.ProfitLoss = profitLoss
	return nil
}

// GetByID retrieves a wager by its ID. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(_ context.Context, wagerID string) (*domain.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, exists := s.data[wagerID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *w
	return &copy, nil
}

// GetByBotID retrieves all wagers for a bot, ordered by placed_at ASC.
func (s *TransactionStore) GetByBotID(_ context.Context, botID string) ([]*domain.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Wager
	for _, w := range s.data {
		if w.BotID == botID {
			copy := *w
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PlacedAt != result[j].PlacedAt {
			return result[i].PlacedAt < result[j].PlacedAt
		}
		return result[i].WagerID < result[j].WagerID
	})

	return result, nil
}

// GetSettledByBotID retrieves settled wagers for a bot, ordered by settled_at ASC.
func (s *TransactionStore) GetSettledByBotID(_ context.Context, botID string) ([]*domain.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Wager
	for _, w := range s.data {
		if w.BotID == botID && w.State != domain.WagerOpen {
			copy := *w
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].SettledAt != result[j].SettledAt {
			return result[i].SettledAt < result[j].SettledAt
		}
		return result[i].WagerID < result[j].WagerID
	})

	return result, nil
}

// GetByTimeRange retrieves wagers for a bot placed within [start, end] (inclusive).
func (s *TransactionStore) GetByTimeRange(_ context.Context, botID string, start, end int64) ([]*domain.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Wager
	for _, w := range s.data {
		if w.BotID == botID && w.PlacedAt >= start && w.PlacedAt <= end {
			copy := *w
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].PlacedAt != result[j].PlacedAt {
			return result[i].PlacedAt < result[j].PlacedAt
		}
		return result[i].WagerID < result[j].WagerID
	})

	return result, nil
}
