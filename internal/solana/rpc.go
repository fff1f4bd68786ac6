package solana

import "context"

// RPCClient defines the Solana JSON-RPC surface this system consumes.
type RPCClient interface {
	// HolderCount counts distinct owners holding a non-zero balance of the
	// mint. Best effort: very large holder sets are floored at the
	// pagination cap.
	HolderCount(ctx context.Context, mint string) (int, error)

	// GetSlot retrieves the current slot. Used as a connectivity check.
	GetSlot(ctx context.Context) (int64, error)
}

// TokenAccount is one token account row from getTokenAccounts.
type TokenAccount struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Owner   string `json:"owner"`
	Amount  uint64 `json:"amount"`
	Frozen  bool   `json:"frozen"`
}

// TokenAccountsPage is one page of getTokenAccounts results.
type TokenAccountsPage struct {
	Total         int            `json:"total"`
	Limit         int            `json:"limit"`
	Page          int            `json:"page"`
	TokenAccounts []TokenAccount `json:"token_accounts"`
}
