// Package storage defines the optional persistence surface of the relay:
// a journal of notified trades and an archive of flushed window summaries.
// Dedup and rate-limiter state stay in memory and are not persisted.
package storage

import (
	"context"

	"solana-trade-relay/internal/domain"
)

// TradeStore journals trades that were dispatched as notifications.
type TradeStore interface {
	// Insert adds a notified trade. Returns ErrDuplicateKey if the
	// signature was already journaled.
	Insert(ctx context.Context, t *domain.TradeRecord) error

	// GetBySignature retrieves one journaled trade. Returns ErrNotFound
	// if not exists.
	GetBySignature(ctx context.Context, signature string) (*domain.TradeRecord, error)

	// Recent retrieves up to limit journaled trades, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error)
}

// WindowStatsStore archives flushed batch-window summaries. Preview trades
// are not archived; only the aggregate columns survive the flush.
type WindowStatsStore interface {
	// Insert adds one window summary. Returns ErrDuplicateKey if the
	// bucket was already archived.
	Insert(ctx context.Context, s *domain.WindowSummary) error

	// Recent retrieves up to limit summaries, newest window first.
	Recent(ctx context.Context, limit int) ([]*domain.WindowSummary, error)
}
