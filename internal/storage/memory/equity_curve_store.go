package memory

import (
	"context"
	"sort"
	"sync"

	"sportsbet-lab/internal/domain"
	"sportsbet-lab/internal/storage"
)

// EquityCurveStore is an in-memory implementation of storage.EquityCurveStore.
type EquityCurveStore struct {
	mu   sync.RWMutex
	data map[string][]domain.EquityPoint // keyed by run_id
}

// NewEquityCurveStore creates a new in-memory equity curve store.
func NewEquityCurveStore() *EquityCurveStore {
	return &EquityCurveStore{
		data: make(map[string][]domain.EquityPoint),
	}
}

// Compile-time interface check.
var _ storage.EquityCurveStore = (*EquityCurveStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (run_id, seq).
// Timestamps may repeat within a run; deferred settlements can share a millisecond.
func (s *EquityCurveStore) InsertBulk(_ context.Context, points []*domain.EquityPoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct {
		runID string
		seq   int
	}
	seen := make(map[key]struct{}, len(points))

	// First pass: check for duplicates (existing + intra-batch)
	for _, p := range points {
		if p == nil || p.RunID == "" {
			return storage.ErrInvalidInput
		}

		k := key{p.RunID, p.Seq}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}

		for _, existing := range s.data[p.RunID] {
			if existing.Seq == p.Seq {
				return storage.ErrDuplicateKey
			}
		}
	}

	// Second pass: insert all
	for _, p := range points {
		s.data[p.RunID] = append(s.data[p.RunID], *p)
	}

	return nil
}

// GetByRunID retrieves all points for a run, ordered by seq ASC.
func (s *EquityCurveStore) GetByRunID(_ context.Context, runID string) ([]*domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquityPoint
	for _, p := range s.data[runID] {
		copy := p
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}

// GetByTimeRange retrieves points for a run within [start, end] (inclusive).
func (s *EquityCurveStore) GetByTimeRange(_ context.Context, runID string, start, end int64) ([]*domain.EquityPoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.EquityPoint
	for _, p := range s.data[runID] {
		if p.Timestamp >= start && p.Timestamp <= end {
			copy := p
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Seq < result[j].Seq
	})

	return result, nil
}
