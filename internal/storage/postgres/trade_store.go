package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/idhash"
	"solana-trade-relay/internal/storage"
)

// TradeStore implements storage.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *Pool
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(pool *Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TradeStore = (*TradeStore)(nil)

// tradeColumns is the column list shared by all queries.
const tradeColumns = `
	signature, side, base_amount, token_amount, price_per_token,
	venue, base_asset, large_trade, occurred_at, counterparty
`

// Insert adds a notified trade. Returns ErrDuplicateKey if the signature exists.
func (s *TradeStore) Insert(ctx context.Context, t *domain.TradeRecord) error {
	if t == nil || t.Signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO notified_trades (
			notification_id,` + tradeColumns + `
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	notificationID := idhash.ComputeNotificationID(t.Signature, t.Side, t.OccurredAt)
	_, err := s.pool.Exec(ctx, query,
		notificationID,
		t.Signature, t.Side, t.BaseAmount, t.TokenAmount, t.PricePerToken,
		t.Venue, t.BaseAsset, t.LargeTrade, t.OccurredAt, t.Counterparty,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert notified trade: %w", err)
	}
	return nil
}

// GetBySignature retrieves one journaled trade. Returns ErrNotFound if not exists.
func (s *TradeStore) GetBySignature(ctx context.Context, signature string) (*domain.TradeRecord, error) {
	query := `
		SELECT` + tradeColumns + `
		FROM notified_trades
		WHERE signature = $1
	`

	row := s.pool.QueryRow(ctx, query, signature)
	t, err := scanTrade(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get notified trade by signature: %w", err)
	}
	return t, nil
}

// Recent retrieves up to limit journaled trades, newest first.
func (s *TradeStore) Recent(ctx context.Context, limit int) ([]*domain.TradeRecord, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT` + tradeColumns + `
		FROM notified_trades
		ORDER BY occurred_at DESC, signature DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent notified trades: %w", err)
	}
	defer rows.Close()

	return scanTrades(rows)
}

// scanTrade scans a single row into a TradeRecord.
func scanTrade(row pgx.Row) (*domain.TradeRecord, error) {
	var t domain.TradeRecord

	err := row.Scan(
		&t.Signature, &t.Side, &t.BaseAmount, &t.TokenAmount, &t.PricePerToken,
		&t.Venue, &t.BaseAsset, &t.LargeTrade, &t.OccurredAt, &t.Counterparty,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// scanTrades scans multiple rows into a slice of TradeRecord.
func scanTrades(rows pgx.Rows) ([]*domain.TradeRecord, error) {
	var trades []*domain.TradeRecord

	for rows.Next() {
		var t domain.TradeRecord
		err := rows.Scan(
			&t.Signature, &t.Side, &t.BaseAmount, &t.TokenAmount, &t.PricePerToken,
			&t.Venue, &t.BaseAsset, &t.LargeTrade, &t.OccurredAt, &t.Counterparty,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notified trade row: %w", err)
		}
		trades = append(trades, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notified trade rows: %w", err)
	}

	return trades, nil
}
