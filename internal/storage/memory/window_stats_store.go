package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/storage"
)

// WindowStatsStore is an in-memory implementation of storage.WindowStatsStore.
type WindowStatsStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.WindowSummary // keyed by bucket
}

// NewWindowStatsStore creates a new in-memory window-stats archive.
func NewWindowStatsStore() *WindowStatsStore {
	return &WindowStatsStore{
		data: make(map[int64]*domain.WindowSummary),
	}
}

// Insert adds one window summary. Returns ErrDuplicateKey if the bucket exists.
func (s *WindowStatsStore) Insert(_ context.Context, sum *domain.WindowSummary) error {
	if sum == nil || sum.WindowSeconds <= 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[sum.Bucket]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *sum
	copy.Preview = nil // only aggregates are archived
	s.data[sum.Bucket] = &copy
	return nil
}

// Recent retrieves up to limit summaries, newest window first.
func (s *WindowStatsStore) Recent(_ context.Context, limit int) ([]*domain.WindowSummary, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.WindowSummary, 0, len(s.data))
	for _, sum := range s.data {
		copy := *sum
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Bucket > result[j].Bucket
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.WindowStatsStore = (*WindowStatsStore)(nil)
