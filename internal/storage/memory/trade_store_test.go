package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/storage"
)

func TestTradeStore_InsertAndGet(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{
		Signature:   "sig1",
		Side:        domain.SideBuy,
		BaseAmount:  2.5,
		TokenAmount: 500,
		BaseAsset:   "SOL",
		Venue:       "Raydium",
		OccurredAt:  1700000000,
	}

	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetBySignature(ctx, "sig1")
	if err != nil {
		t.Fatalf("GetBySignature failed: %v", err)
	}
	if got.BaseAmount != 2.5 {
		t.Errorf("BaseAmount mismatch: got %f, want %f", got.BaseAmount, 2.5)
	}

	// Mutating the returned copy must not affect the store.
	got.Venue = "mutated"
	again, _ := store.GetBySignature(ctx, "sig1")
	if again.Venue != "Raydium" {
		t.Error("store must return copies, not shared pointers")
	}
}

func TestTradeStore_DuplicateKey(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	trade := &domain.TradeRecord{Signature: "sig1", Side: domain.SideBuy}
	if err := store.Insert(ctx, trade); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}

	err := store.Insert(ctx, trade)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestTradeStore_NotFound(t *testing.T) {
	store := NewTradeStore()

	_, err := store.GetBySignature(context.Background(), "nonexistent")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestTradeStore_Recent(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		err := store.Insert(ctx, &domain.TradeRecord{
			Signature:  fmt.Sprintf("sig%d", i),
			Side:       domain.SideBuy,
			OccurredAt: int64(1000 + i),
		})
		if err != nil {
			t.Fatalf("Insert %d failed: %v", i, err)
		}
	}

	result, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("Expected 3 trades, got %d", len(result))
	}
	if result[0].OccurredAt != 1004 || result[2].OccurredAt != 1002 {
		t.Errorf("Expected newest first, got %d..%d", result[0].OccurredAt, result[2].OccurredAt)
	}
}

func TestTradeStore_InvalidInput(t *testing.T) {
	store := NewTradeStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for nil, got %v", err)
	}
	if err := store.Insert(ctx, &domain.TradeRecord{Signature: ""}); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for empty signature, got %v", err)
	}
	if _, err := store.Recent(ctx, 0); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for zero limit, got %v", err)
	}
}
