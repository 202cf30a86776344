package memory

import (
	"context"
	"sort"
	"sync"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// BotStore is an in-memory implementation of storage.BotStore.
type BotStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Bot // keyed by bot_id
}

// NewBotStore creates a new in-memory bot store.
func NewBotStore() *BotStore {
	return &BotStore{
		data: make(map[string]*domain.Bot),
	}
}

// Compile-time interface check.
var _ storage.BotStore = (*BotStore)(nil)

// Insert adds a new bot. Returns ErrDuplicateKey if bot_id exists.
func (s *BotStore) Insert(_ context.Context, b *domain.Bot) error {
	if b == nil || b.BotID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BotID]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[b.BotID] = b.Clone()
	return nil
}

// Update replaces the stored state for an existing bot.
func (s *BotStore) Update(_ context.Context, b *domain.Bot) error {
	if b == nil || b.BotID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[b.BotID]; !exists {
		return storage.ErrNotFound
	}

	s.data[b.BotID] = b.Clone()
	return nil
}

// GetByID retrieves a bot by its ID. Returns ErrNotFound if not exists.
func (s *BotStore) GetByID(_ context.Context, botID string) (*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, exists := s.data[botID]
	if !exists {
		return nil, storage.ErrNotFound
	}

	return b.Clone(), nil
}

// List retrieves all bots, ordered by bot_id ASC.
func (s *BotStore) List(_ context.Context) ([]*domain.Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Bot, 0, len(s.data))
	for _, b := range s.data {
		result = append(result, b.Clone())
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].BotID < result[j].BotID
	})

	return result, nil
}
