package ingestion

import (
	"context"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/helius"
)

// TransactionSource yields recent enhanced transactions for the tracked
// token. helius.AddressSource implements it for poll mode.
type TransactionSource interface {
	FetchRecent(ctx context.Context, limit int) ([]helius.EnhancedTransaction, error)
}

// Notifier delivers formatted notifications. notify.Telegram implements it.
type Notifier interface {
	TradeAlert(ctx context.Context, rec *domain.TradeRecord, holders int) error
	WindowSummary(ctx context.Context, s *domain.WindowSummary) error
	Startup(ctx context.Context, text string) error
	ErrorAlert(ctx context.Context, text string) error
}

// HolderSource reports the current holder count of a mint. The Solana RPC
// client implements it via token-account pagination.
type HolderSource interface {
	HolderCount(ctx context.Context, mint string) (int, error)
}

// WebhookRegistrar manages webhook registrations on the transaction
// provider. helius.Client implements it.
type WebhookRegistrar interface {
	ListWebhooks(ctx context.Context) ([]helius.Webhook, error)
	CreateWebhook(ctx context.Context, req helius.WebhookRequest) (*helius.Webhook, error)
}
