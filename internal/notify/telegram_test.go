package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/retry"
)

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func testTelegram(url string) *Telegram {
	return NewTelegram(TelegramOptions{
		BotToken:    "test-token",
		ChatID:      "100",
		ErrorChatID: "200",
		TokenSymbol: "TKN",
		BaseURL:     url,
		Policy:      fastPolicy(),
	})
}

func okResponse(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"ok": true})
}

func TestTelegram_TradeAlert(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		okResponse(w)
	}))
	defer server.Close()

	rec := &domain.TradeRecord{
		Signature:   "sig1",
		Side:        domain.SideBuy,
		BaseAmount:  2,
		TokenAmount: 500,
		BaseAsset:   "SOL",
		Venue:       "Raydium",
	}

	if err := testTelegram(server.URL).TradeAlert(context.Background(), rec, 1234); err != nil {
		t.Fatalf("TradeAlert: %v", err)
	}

	if got.ChatID != "100" {
		t.Errorf("expected chat 100, got %s", got.ChatID)
	}
	if got.ParseMode != "Markdown" {
		t.Errorf("expected Markdown parse mode, got %s", got.ParseMode)
	}
	if !strings.Contains(got.Text, "BUY") || !strings.Contains(got.Text, "Raydium") {
		t.Errorf("alert text missing fields: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Holders: 1234") {
		t.Errorf("alert text missing holder count: %q", got.Text)
	}
}

func TestTelegram_ErrorAlertUsesSecondaryChat(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		okResponse(w)
	}))
	defer server.Close()

	if err := testTelegram(server.URL).ErrorAlert(context.Background(), "poll failed"); err != nil {
		t.Fatalf("ErrorAlert: %v", err)
	}
	if got.ChatID != "200" {
		t.Errorf("expected error chat 200, got %s", got.ChatID)
	}
	if !strings.Contains(got.Text, "poll failed") {
		t.Errorf("error text missing message: %q", got.Text)
	}
}

func TestTelegram_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "bad gateway"})
			return
		}
		okResponse(w)
	}))
	defer server.Close()

	if err := testTelegram(server.URL).Startup(context.Background(), "online"); err != nil {
		t.Fatalf("Startup should succeed after retries: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestTelegram_RateLimitHonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"ok": false, "description": "Too Many Requests",
				"parameters": map[string]int{"retry_after": 1},
			})
			return
		}
		okResponse(w)
	}))
	defer server.Close()

	start := time.Now()
	if err := testTelegram(server.URL).Startup(context.Background(), "online"); err != nil {
		t.Fatalf("Startup should succeed after rate limit: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("expected at least 1s wait for retry_after, waited %v", elapsed)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestTelegram_RejectionNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{"ok": false, "description": "chat not found"})
	}))
	defer server.Close()

	err := testTelegram(server.URL).Startup(context.Background(), "online")
	if err == nil {
		t.Fatal("expected error for rejected message")
	}
	if calls.Load() != 1 {
		t.Errorf("rejections must not be retried, got %d attempts", calls.Load())
	}
}
