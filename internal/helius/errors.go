package helius

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited marks responses rejected by the upstream per-minute quota.
// Callers match it with errors.Is and may extract the retry-after duration
// with errors.As against *RateLimitError.
var ErrRateLimited = errors.New("rate limited by upstream")

// ErrBadPayload marks a webhook body that is not a JSON array.
var ErrBadPayload = errors.New("webhook payload must be a JSON array")

var errBadSwapSection = errors.New("events.swap is neither object nor array")

// RateLimitError carries the optional Retry-After hint of a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration // zero when the server sent no hint
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (429), retry after %s", e.RetryAfter)
	}
	return "rate limited (429)"
}

// Is reports ErrRateLimited so errors.Is works without unwrapping.
func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimited
}
