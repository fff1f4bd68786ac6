// Package notify delivers trade alerts and batch summaries through the
// Telegram Bot API. The client is hand-rolled over net/http; failures on the
// send path are retried under the standard transient policy, and Telegram's
// retry_after hint on 429 responses is honored before a retry.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/retry"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.telegram.org"
	DefaultTimeout = 15 * time.Second

	// maxRetryAfterWait caps how long a 429 retry_after hint is honored.
	maxRetryAfterWait = 30 * time.Second
)

// errSendRejected marks non-retryable Telegram rejections (bad chat id,
// malformed markup).
var errSendRejected = errors.New("telegram rejected message")

// TelegramOptions configures a Telegram notifier.
type TelegramOptions struct {
	// BotToken authenticates against the Bot API.
	BotToken string
	// ChatID receives trade alerts and summaries.
	ChatID string
	// ErrorChatID receives error alerts. Defaults to ChatID.
	ErrorChatID string
	// TokenSymbol is the tracked token's display symbol.
	TokenSymbol string
	// BaseURL overrides the API host (tests).
	BaseURL string
	// HTTPClient overrides the HTTP client (tests).
	HTTPClient *http.Client
	// Policy is the transient-failure retry policy.
	Policy retry.Policy
}

// Telegram sends formatted notifications to a primary chat and error alerts
// to a secondary chat.
type Telegram struct {
	baseURL     string
	botToken    string
	chatID      string
	errorChatID string
	tokenSymbol string
	client      *http.Client
	policy      retry.Policy
}

// NewTelegram creates a Telegram notifier.
func NewTelegram(opts TelegramOptions) *Telegram {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	errorChatID := opts.ErrorChatID
	if errorChatID == "" {
		errorChatID = opts.ChatID
	}
	symbol := opts.TokenSymbol
	if symbol == "" {
		symbol = "TOKEN"
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	policy := opts.Policy
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}
	if policy.Retryable == nil {
		policy.Retryable = func(err error) bool {
			return !errors.Is(err, errSendRejected)
		}
	}

	return &Telegram{
		baseURL:     baseURL,
		botToken:    opts.BotToken,
		chatID:      opts.ChatID,
		errorChatID: errorChatID,
		tokenSymbol: symbol,
		client:      client,
		policy:      policy,
	}
}

// TradeAlert sends one formatted trade notification.
func (t *Telegram) TradeAlert(ctx context.Context, rec *domain.TradeRecord, holders int) error {
	return t.send(ctx, t.chatID, FormatTradeAlert(rec, t.tokenSymbol, holders))
}

// WindowSummary sends one batch-window aggregate notification.
func (t *Telegram) WindowSummary(ctx context.Context, s *domain.WindowSummary) error {
	return t.send(ctx, t.chatID, FormatWindowSummary(s, t.tokenSymbol))
}

// Startup announces the relay coming up.
func (t *Telegram) Startup(ctx context.Context, text string) error {
	return t.send(ctx, t.chatID, text)
}

// ErrorAlert reports an operational failure to the secondary chat.
func (t *Telegram) ErrorAlert(ctx context.Context, text string) error {
	return t.send(ctx, t.errorChatID, "⚠️ "+text)
}

// sendMessageRequest is the Bot API sendMessage payload.
type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// sendMessageResponse is the Bot API envelope.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

// send posts one sendMessage call under the retry policy.
func (t *Telegram) send(ctx context.Context, chatID, text string) error {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)

	body, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "Markdown",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("marshal send message: %w", err)
	}

	return retry.Do(ctx, t.policy, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.client.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		var apiResp sendMessageResponse
		if err := json.Unmarshal(respBody, &apiResp); err != nil {
			return fmt.Errorf("unmarshal response (status %d): %w", resp.StatusCode, err)
		}
		if apiResp.OK {
			return nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			// Telegram asks for a pause; wait it out inside the attempt so
			// the next retry is actually allowed through.
			wait := time.Second
			if apiResp.Parameters != nil && apiResp.Parameters.RetryAfter > 0 {
				wait = time.Duration(apiResp.Parameters.RetryAfter) * time.Second
			}
			if wait > maxRetryAfterWait {
				wait = maxRetryAfterWait
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			return fmt.Errorf("telegram rate limited, waited %s", wait)
		}

		if resp.StatusCode >= 500 {
			return fmt.Errorf("telegram server error %d: %s", resp.StatusCode, apiResp.Description)
		}
		return fmt.Errorf("%w: %s", errSendRejected, apiResp.Description)
	})
}
