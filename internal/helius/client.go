// Package helius wraps the Helius enhanced-transactions REST API: address
// transaction history, signature parsing, and webhook management. Raw
// transaction payloads delivered by Helius webhooks decode into the same
// EnhancedTransaction shape the history endpoint returns.
package helius

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"solana-trade-relay/internal/retry"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.helius.xyz"
	DefaultTimeout = 30 * time.Second

	// TxTypeSwap narrows history pages to swap transactions.
	TxTypeSwap = "SWAP"
)

// Client is an HTTP client for the Helius v0 REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	policy  retry.Policy
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API base URL (tests).
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithRetryPolicy sets the transient-failure retry policy.
func WithRetryPolicy(p retry.Policy) ClientOption {
	return func(c *Client) {
		c.policy = p
	}
}

// NewClient creates a Helius API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: DefaultTimeout},
		policy:  retry.DefaultPolicy(),
	}
	c.policy.Retryable = isTransient
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// isTransient reports whether an error is worth retrying. Rate limiting is
// not: the caller must see it and back off for the rest of the window.
func isTransient(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return false
	}
	var te *terminalError
	return !errors.As(err, &te)
}

// terminalError wraps non-retryable HTTP failures (4xx responses).
type terminalError struct {
	status int
	body   string
}

func (e *terminalError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

// AddressTransactions fetches the most recent enhanced swap transactions
// for an address, newest first. before, when non-empty, pages backwards
// from that signature.
func (c *Client) AddressTransactions(ctx context.Context, address string, limit int, before string) ([]EnhancedTransaction, error) {
	q := url.Values{}
	q.Set("api-key", c.apiKey)
	q.Set("type", TxTypeSwap)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if before != "" {
		q.Set("before", before)
	}

	endpoint := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.baseURL, address, q.Encode())

	var txs []EnhancedTransaction
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &txs); err != nil {
		return nil, fmt.Errorf("fetch address transactions: %w", err)
	}
	return txs, nil
}

// ParseTransactions resolves raw signatures into enhanced transactions.
// Used by the stream ingestion path, which only observes signatures.
func (c *Client) ParseTransactions(ctx context.Context, signatures []string) ([]EnhancedTransaction, error) {
	if len(signatures) == 0 {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v0/transactions?api-key=%s", c.baseURL, url.QueryEscape(c.apiKey))
	reqBody := struct {
		Transactions []string `json:"transactions"`
	}{Transactions: signatures}

	var txs []EnhancedTransaction
	if err := c.do(ctx, http.MethodPost, endpoint, reqBody, &txs); err != nil {
		return nil, fmt.Errorf("parse transactions: %w", err)
	}
	return txs, nil
}

// WebhookRequest describes a webhook to register.
type WebhookRequest struct {
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
	AuthHeader       string   `json:"authHeader,omitempty"`
}

// Webhook is a registered webhook descriptor.
type Webhook struct {
	WebhookID        string   `json:"webhookID"`
	Wallet           string   `json:"wallet"`
	WebhookURL       string   `json:"webhookURL"`
	TransactionTypes []string `json:"transactionTypes"`
	AccountAddresses []string `json:"accountAddresses"`
	WebhookType      string   `json:"webhookType"`
}

// CreateWebhook registers a new enhanced webhook.
func (c *Client) CreateWebhook(ctx context.Context, req WebhookRequest) (*Webhook, error) {
	endpoint := fmt.Sprintf("%s/v0/webhooks?api-key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var wh Webhook
	if err := c.do(ctx, http.MethodPost, endpoint, req, &wh); err != nil {
		return nil, fmt.Errorf("create webhook: %w", err)
	}
	return &wh, nil
}

// ListWebhooks returns all webhooks registered for the API key.
func (c *Client) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	endpoint := fmt.Sprintf("%s/v0/webhooks?api-key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var whs []Webhook
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &whs); err != nil {
		return nil, fmt.Errorf("list webhooks: %w", err)
	}
	return whs, nil
}

// do performs one API call under the retry policy. Network failures and
// 5xx responses are retried; 429 surfaces as *RateLimitError immediately.
func (c *Client) do(ctx context.Context, method, endpoint string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	return retry.Do(ctx, c.policy, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			// fall through to decode
		case resp.StatusCode == http.StatusTooManyRequests:
			return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error %d: %s", resp.StatusCode, string(respBody))
		default:
			return &terminalError{status: resp.StatusCode, body: string(respBody)}
		}

		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return &terminalError{status: resp.StatusCode, body: fmt.Sprintf("unmarshal response: %v", err)}
			}
		}
		return nil
	})
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
