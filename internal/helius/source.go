package helius

import "context"

// AddressSource binds a Client to a single address so poll-mode callers can
// fetch its recent transactions without carrying the address around.
type AddressSource struct {
	Client  *Client
	Address string
}

// FetchRecent returns the newest swap transactions for the bound address.
func (s *AddressSource) FetchRecent(ctx context.Context, limit int) ([]EnhancedTransaction, error) {
	return s.Client.AddressTransactions(ctx, s.Address, limit, "")
}
