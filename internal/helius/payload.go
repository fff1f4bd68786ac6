package helius

import (
	"encoding/json"
	"fmt"
	"io"
)

// maxWebhookBody bounds webhook request bodies (1 MiB covers the largest
// batches Helius delivers).
const maxWebhookBody = 1 << 20

// DecodeWebhookPayload reads a webhook request body and decodes it into
// enhanced transactions. Helius always delivers an array; anything else is
// rejected with ErrBadPayload so the handler can answer with a 4xx.
func DecodeWebhookPayload(r io.Reader) ([]EnhancedTransaction, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxWebhookBody))
	if err != nil {
		return nil, fmt.Errorf("read webhook body: %w", err)
	}

	trimmed := trimJSON(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrBadPayload
	}

	var txs []EnhancedTransaction
	if err := json.Unmarshal(trimmed, &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return txs, nil
}
