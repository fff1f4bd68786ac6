// Package memory provides in-memory store implementations used when no
// database DSN is configured and by pipeline tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/storage"
)

// TradeStore is an in-memory implementation of storage.TradeStore.
type TradeStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TradeRecord // keyed by signature
}

// NewTradeStore creates a new in-memory trade journal.
func NewTradeStore() *TradeStore {
	return &TradeStore{
		data: make(map[string]*domain.TradeRecord),
	}
}

// Insert adds a notified trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(_ context.Context, t *domain.TradeRecord) error {
	if t == nil || t.Signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[t.Signature]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *t
	s.data[t.Signature] = &copy
	return nil
}

// GetBySignature retrieves one journaled trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetBySignature(_ context.Context, signature string) (*domain.TradeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[signature]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *t
	return &copy, nil
}

// Recent retrieves up to limit journaled trades, newest first.
func (s *TradeStore) Recent(_ context.Context, limit int) ([]*domain.TradeRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TradeRecord, 0, len(s.data))
	for _, t := range s.data {
		copy := *t
		result = append(result, &copy)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].OccurredAt != result[j].OccurredAt {
			return result[i].OccurredAt > result[j].OccurredAt
		}
		return result[i].Signature > result[j].Signature
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

var _ storage.TradeStore = (*TradeStore)(nil)
