// Package batch groups trades into fixed time windows and flushes each
// window once as an aggregate summary. Windows are keyed by bucket index
// floor(now/windowSeconds); a bucket flushes exactly windowSeconds after its
// first trade and is deleted at flush, so late trades open a new bucket.
package batch

import (
	"log"
	"sync"
	"time"

	"solana-trade-relay/internal/domain"
)

// DefaultPreviewLimit caps the per-summary trade preview.
const DefaultPreviewLimit = 5

// Options configures a Window.
type Options struct {
	// WindowSeconds is the bucket length. Zero disables batching entirely.
	WindowSeconds int
	// PreviewLimit caps the trades listed individually in a summary.
	PreviewLimit int
	// Flush receives each non-empty bucket's summary. Runs on a timer
	// goroutine.
	Flush func(*domain.WindowSummary)
	// Now overrides the clock (tests). Defaults to time.Now.
	Now    func() time.Time
	Logger *log.Logger
}

// bucket is one in-flight window.
type bucket struct {
	trades []*domain.TradeRecord
	timer  *time.Timer
}

// Window aggregates trades into time buckets. Multiple buckets may be in
// flight; each flushes independently.
type Window struct {
	windowSeconds int
	previewLimit  int
	flush         func(*domain.WindowSummary)
	now           func() time.Time
	logger        *log.Logger

	mu      sync.Mutex
	buckets map[int64]*bucket
	stopped bool
}

// New creates a Window.
func New(opts Options) *Window {
	previewLimit := opts.PreviewLimit
	if previewLimit <= 0 {
		previewLimit = DefaultPreviewLimit
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Window{
		windowSeconds: opts.WindowSeconds,
		previewLimit:  previewLimit,
		flush:         opts.Flush,
		now:           now,
		logger:        logger,
		buckets:       make(map[int64]*bucket),
	}
}

// SetFlush binds the flush callback. Must be set before the first Add.
func (w *Window) SetFlush(fn func(*domain.WindowSummary)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flush = fn
}

// Enabled reports whether batching is active. When false, callers bypass the
// window and notify per trade.
func (w *Window) Enabled() bool {
	return w.windowSeconds > 0
}

// Add appends a trade to the current bucket, creating the bucket and
// scheduling its flush on first use.
func (w *Window) Add(rec *domain.TradeRecord) {
	if !w.Enabled() || rec == nil {
		return
	}

	idx := w.now().Unix() / int64(w.windowSeconds)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}

	b, ok := w.buckets[idx]
	if !ok {
		b = &bucket{}
		b.timer = time.AfterFunc(time.Duration(w.windowSeconds)*time.Second, func() {
			w.flushBucket(idx)
		})
		w.buckets[idx] = b
	}
	b.trades = append(b.trades, rec)
}

// Outstanding returns the number of buckets awaiting flush.
func (w *Window) Outstanding() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.buckets)
}

// Stop cancels all pending flush timers. Buckets still outstanding are
// dropped without a summary.
func (w *Window) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	for idx, b := range w.buckets {
		b.timer.Stop()
		delete(w.buckets, idx)
	}
}

// flushBucket removes the bucket and emits its summary. Flushing a bucket
// that was already removed is a no-op, so a late timer is harmless.
func (w *Window) flushBucket(idx int64) {
	w.mu.Lock()
	b, ok := w.buckets[idx]
	delete(w.buckets, idx)
	w.mu.Unlock()

	if !ok || len(b.trades) == 0 {
		return
	}

	summary := w.summarize(idx, b.trades)
	if w.flush != nil {
		w.flush(summary)
	}
}

// summarize builds the aggregate for one bucket's trades.
func (w *Window) summarize(idx int64, trades []*domain.TradeRecord) *domain.WindowSummary {
	s := &domain.WindowSummary{
		Bucket:        idx,
		WindowStart:   idx * int64(w.windowSeconds),
		WindowSeconds: w.windowSeconds,
		Count:         len(trades),
	}

	for _, t := range trades {
		s.BaseVolume += t.BaseAmount
		s.TokenVolume += t.TokenAmount
		if t.Side == domain.SideBuy {
			s.BuyCount++
		} else {
			s.SellCount++
		}
		if t.LargeTrade {
			s.LargeCount++
		}
	}

	preview := len(trades)
	if preview > w.previewLimit {
		preview = w.previewLimit
	}
	s.Preview = trades[:preview]
	s.Omitted = len(trades) - preview

	return s
}
