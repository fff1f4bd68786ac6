package clickhouse

import (
	"context"
	"fmt"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/idhash"
	"solana-trade-relay/internal/storage"
)

// WindowStatsStore implements storage.WindowStatsStore using ClickHouse.
// Preview trades are not archived; only aggregate columns are written.
type WindowStatsStore struct {
	conn *Conn
}

// NewWindowStatsStore creates a new WindowStatsStore.
func NewWindowStatsStore(conn *Conn) *WindowStatsStore {
	return &WindowStatsStore{conn: conn}
}

// Compile-time interface check.
var _ storage.WindowStatsStore = (*WindowStatsStore)(nil)

// Insert adds one window summary. Returns ErrDuplicateKey if the bucket exists.
func (s *WindowStatsStore) Insert(ctx context.Context, sum *domain.WindowSummary) error {
	if sum == nil || sum.WindowSeconds <= 0 {
		return storage.ErrInvalidInput
	}

	// MergeTree does not enforce uniqueness at insert time, so append-only
	// semantics need an explicit existence check first.
	exists, err := s.exists(ctx, sum.Bucket)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	query := `
		INSERT INTO window_stats (
			window_id, bucket, window_start, window_seconds,
			trade_count, buy_count, sell_count,
			base_volume, token_volume, large_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		idhash.ComputeWindowID(sum.Bucket, sum.WindowSeconds),
		sum.Bucket, sum.WindowStart, uint32(sum.WindowSeconds),
		uint32(sum.Count), uint32(sum.BuyCount), uint32(sum.SellCount),
		sum.BaseVolume, sum.TokenVolume, uint32(sum.LargeCount),
	)
	if err != nil {
		return fmt.Errorf("insert window stats: %w", err)
	}
	return nil
}

// Recent retrieves up to limit summaries, newest window first.
func (s *WindowStatsStore) Recent(ctx context.Context, limit int) ([]*domain.WindowSummary, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT
			bucket, window_start, window_seconds,
			trade_count, buy_count, sell_count,
			base_volume, token_volume, large_count
		FROM window_stats FINAL
		ORDER BY bucket DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent window stats: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.WindowSummary
	for rows.Next() {
		var (
			sum                        domain.WindowSummary
			windowSeconds              uint32
			count, buys, sells, larges uint32
		)
		err := rows.Scan(
			&sum.Bucket, &sum.WindowStart, &windowSeconds,
			&count, &buys, &sells,
			&sum.BaseVolume, &sum.TokenVolume, &larges,
		)
		if err != nil {
			return nil, fmt.Errorf("scan window stats row: %w", err)
		}
		sum.WindowSeconds = int(windowSeconds)
		sum.Count = int(count)
		sum.BuyCount = int(buys)
		sum.SellCount = int(sells)
		sum.LargeCount = int(larges)
		summaries = append(summaries, &sum)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate window stats rows: %w", err)
	}

	return summaries, nil
}

// exists checks if a summary for the given bucket was already archived.
func (s *WindowStatsStore) exists(ctx context.Context, bucket int64) (bool, error) {
	query := `SELECT count(*) FROM window_stats FINAL WHERE bucket = ?`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, bucket).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}
