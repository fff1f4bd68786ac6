package solana

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// LogStream maintains a single logsSubscribe subscription for transactions
// mentioning one address, reconnecting and resubscribing on failure.
type LogStream struct {
	endpoint string
	mention  string
	config   WSConfig
	logger   *log.Logger

	conn      *websocket.Conn
	connMu    sync.Mutex
	closed    atomic.Bool
	requestID atomic.Uint64
	subID     atomic.Int64

	out  chan LogEvent
	done chan struct{}
	wg   sync.WaitGroup
}

// OpenLogStream connects, subscribes to logs mentioning the address, and
// starts the read and keepalive loops.
func OpenLogStream(ctx context.Context, endpoint, mention string, config *WSConfig, logger *log.Logger) (*LogStream, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = *config
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &LogStream{
		endpoint: endpoint,
		mention:  mention,
		config:   cfg,
		logger:   logger,
		out:      make(chan LogEvent, 1024),
		done:     make(chan struct{}),
	}

	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	if err := s.subscribe(ctx); err != nil {
		s.closeConn()
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Events returns the notification channel. It is closed by Close.
func (s *LogStream) Events() <-chan LogEvent {
	return s.out
}

// Close shuts the stream down. Safe to call more than once.
func (s *LogStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		s.conn.Close()
	}
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.out)
	return nil
}

// connect establishes the WebSocket connection.
func (s *LogStream) connect(ctx context.Context) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	return nil
}

func (s *LogStream) closeConn() {
	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.connMu.Unlock()
}

// subscribe sends logsSubscribe and waits for its confirmation, dispatching
// any notifications that arrive while waiting.
func (s *LogStream) subscribe(ctx context.Context) error {
	reqID := s.requestID.Add(1)
	req := wsRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  "logsSubscribe",
		Params: []interface{}{
			map[string]interface{}{"mentions": []string{s.mention}},
			map[string]string{"commitment": "confirmed"},
		},
	}

	s.connMu.Lock()
	conn := s.conn
	if conn == nil {
		s.connMu.Unlock()
		return fmt.Errorf("not connected")
	}
	conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	err := conn.WriteJSON(req)
	s.connMu.Unlock()
	if err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}

	deadline := time.Now().Add(s.config.SubscribeTimeout)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("subscription timeout after %s", s.config.SubscribeTimeout)
		}

		conn.SetReadDeadline(deadline)
		_, message, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read subscribe response: %w", err)
		}

		var resp wsSubscribeResponse
		if err := json.Unmarshal(message, &resp); err == nil && resp.ID == reqID {
			if resp.Error != nil {
				return fmt.Errorf("subscribe rejected: %s", resp.Error.Message)
			}
			s.subID.Store(resp.Result)
			return nil
		}

		// Not our confirmation; deliver if it is already a notification.
		s.handleMessage(message)
	}
}

// readLoop reads frames and dispatches notifications, reconnecting with
// exponential backoff on connection failure.
func (s *LogStream) readLoop() {
	defer s.wg.Done()

	for !s.closed.Load() {
		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		if conn == nil {
			if !s.reconnect() {
				return
			}
			continue
		}

		conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, message, err := conn.ReadMessage()
		if err != nil {
			if s.closed.Load() {
				return
			}
			s.logger.Printf("log stream read error, reconnecting: %v", err)
			s.closeConn()
			continue
		}

		s.handleMessage(message)
	}
}

// reconnect dials and resubscribes until success or shutdown. Returns false
// when the stream is closing.
func (s *LogStream) reconnect() bool {
	delay := s.config.ReconnectDelay

	for !s.closed.Load() {
		select {
		case <-s.done:
			return false
		case <-time.After(delay):
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := s.connect(ctx)
		if err == nil {
			err = s.subscribe(ctx)
		}
		cancel()

		if err == nil {
			s.logger.Printf("log stream reconnected")
			return true
		}

		s.logger.Printf("log stream reconnect failed: %v", err)
		s.closeConn()

		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
	return false
}

// handleMessage dispatches a logsNotification frame to the event channel.
func (s *LogStream) handleMessage(message []byte) {
	var notif wsNotification
	if err := json.Unmarshal(message, &notif); err != nil || notif.Method != "logsNotification" {
		return
	}
	if notif.Params == nil || notif.Params.Subscription != s.subID.Load() {
		return
	}

	value := notif.Params.Result.Value
	event := LogEvent{
		Signature: value.Signature,
		Logs:      value.Logs,
		Err:       value.Err,
	}
	if notif.Params.Result.Context != nil {
		event.Slot = notif.Params.Result.Context.Slot
	}

	// Block rather than drop; the buffer absorbs bursts.
	select {
	case s.out <- event:
	case <-s.done:
	}
}

// pingLoop sends periodic ping frames to keep the connection alive.
func (s *LogStream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.connMu.Lock()
			if s.conn != nil {
				s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
				if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					// Reader will notice the dead connection and reconnect.
				}
			}
			s.connMu.Unlock()
		}
	}
}

// WebSocket message types

type wsRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

type wsSubscribeResponse struct {
	JSONRPC string   `json:"jsonrpc"`
	ID      uint64   `json:"id"`
	Result  int64    `json:"result"` // subscription ID
	Error   *wsError `json:"error"`
}

type wsError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type wsNotification struct {
	JSONRPC string                `json:"jsonrpc"`
	Method  string                `json:"method"`
	Params  *wsNotificationParams `json:"params"`
}

type wsNotificationParams struct {
	Subscription int64                `json:"subscription"`
	Result       wsNotificationResult `json:"result"`
}

type wsNotificationResult struct {
	Context *wsContext  `json:"context"`
	Value   wsLogsValue `json:"value"`
}

type wsContext struct {
	Slot int64 `json:"slot"`
}

type wsLogsValue struct {
	Signature string      `json:"signature"`
	Logs      []string    `json:"logs"`
	Err       interface{} `json:"err"`
}
