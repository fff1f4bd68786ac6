// Package ingestion orchestrates the relay: raw transactions come in through
// webhooks, polling, or the log stream, pass dedup and extraction exactly
// once, and leave as rate-limited Telegram notifications, optionally batched
// into window summaries.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"solana-trade-relay/internal/batch"
	"solana-trade-relay/internal/dedup"
	"solana-trade-relay/internal/domain"
	"solana-trade-relay/internal/extract"
	"solana-trade-relay/internal/helius"
	"solana-trade-relay/internal/observability"
	"solana-trade-relay/internal/ratelimit"
	"solana-trade-relay/internal/storage"
)

// Default configuration values.
const (
	DefaultPollInterval   = 15 * time.Second
	DefaultPollPage       = 25
	DefaultRateLimitPause = 2 * time.Minute
	DefaultPacingDelay    = 50 * time.Millisecond
)

// PipelineOptions contains configuration for creating a Pipeline.
type PipelineOptions struct {
	TrackedMint string
	Extractor   *extract.Extractor
	Dedup       *dedup.Cache
	Queue       *ratelimit.Queue
	// Window is optional; when set the pipeline binds its flush handler
	// and routes qualifying trades through it instead of per-trade alerts.
	Window   *batch.Window
	Notifier Notifier
	// HolderSource is optional enrichment; nil skips holder counts.
	HolderSource HolderSource
	// Source feeds poll mode. Nil when running push or stream only.
	Source TransactionSource
	// Registrar backs EnsureWebhook. Optional.
	Registrar WebhookRegistrar
	// TradeStore journals notified trades, best-effort. Optional.
	TradeStore storage.TradeStore
	// StatsStore archives flushed window summaries, best-effort. Optional.
	StatsStore storage.WindowStatsStore
	Metrics    *observability.Metrics
	Logger     *log.Logger
	// PacingDelay spaces items of one webhook batch.
	PacingDelay time.Duration
	// PollInterval is the poll-mode tick period.
	PollInterval time.Duration
	// PollPage is the number of transactions fetched per poll cycle.
	PollPage int
	// RateLimitPause is how long the poller pauses after an upstream 429.
	// A longer server retry-after hint wins.
	RateLimitPause time.Duration
}

// Pipeline is the ingestion orchestrator.
type Pipeline struct {
	trackedMint    string
	extractor      *extract.Extractor
	dedup          *dedup.Cache
	queue          *ratelimit.Queue
	window         *batch.Window
	notifier       Notifier
	holders        HolderSource
	source         TransactionSource
	registrar      WebhookRegistrar
	tradeStore     storage.TradeStore
	statsStore     storage.WindowStatsStore
	metrics        *observability.Metrics
	logger         *log.Logger
	pacingDelay    time.Duration
	pollInterval   time.Duration
	pollPage       int
	rateLimitPause time.Duration

	// mu guards the dedup head section and the lifetime stats so a
	// concurrent duplicate cannot slip between Has and Insert.
	mu    sync.Mutex
	stats domain.AggregateStats

	pollMu    sync.Mutex
	pollState PollState
	resumeAt  time.Time
	pollStop  chan struct{}
	pollWG    sync.WaitGroup
}

// NewPipeline creates a Pipeline and binds the batch window's flush handler.
func NewPipeline(opts PipelineOptions) *Pipeline {
	pacingDelay := opts.PacingDelay
	if pacingDelay <= 0 {
		pacingDelay = DefaultPacingDelay
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	pollPage := opts.PollPage
	if pollPage <= 0 {
		pollPage = DefaultPollPage
	}
	rateLimitPause := opts.RateLimitPause
	if rateLimitPause <= 0 {
		rateLimitPause = DefaultRateLimitPause
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	p := &Pipeline{
		trackedMint:    opts.TrackedMint,
		extractor:      opts.Extractor,
		dedup:          opts.Dedup,
		queue:          opts.Queue,
		window:         opts.Window,
		notifier:       opts.Notifier,
		holders:        opts.HolderSource,
		source:         opts.Source,
		registrar:      opts.Registrar,
		tradeStore:     opts.TradeStore,
		statsStore:     opts.StatsStore,
		metrics:        opts.Metrics,
		logger:         logger,
		pacingDelay:    pacingDelay,
		pollInterval:   pollInterval,
		pollPage:       pollPage,
		rateLimitPause: rateLimitPause,
		pollState:      PollStopped,
	}
	p.stats.StartedAt = time.Now().Unix()

	if p.window != nil {
		p.window.SetFlush(p.handleFlush)
	}

	return p
}

// ProcessTransaction runs one raw transaction through dedup, extraction and
// dispatch. Returns true only when a trade was accepted for notification.
func (p *Pipeline) ProcessTransaction(ctx context.Context, tx *helius.EnhancedTransaction) bool {
	if tx == nil || tx.Signature == "" {
		return false
	}
	if p.metrics != nil {
		p.metrics.TransactionsProcessed.Inc()
	}

	p.mu.Lock()
	if p.dedup.Has(tx.Signature) {
		p.mu.Unlock()
		p.skip("duplicate")
		return false
	}

	rec := p.extractor.Extract(tx)
	if rec == nil {
		p.mu.Unlock()
		p.skip("no_trade")
		return false
	}

	// Insert before any network call so a concurrent delivery of the same
	// signature is already a duplicate.
	p.dedup.Insert(tx.Signature, time.Now())
	p.stats.TradesProcessed++
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.TradesExtracted.WithLabelValues(rec.Side).Inc()
		p.metrics.DedupSize.Set(float64(p.dedup.Len()))
	}

	if p.window != nil && p.window.Enabled() {
		p.window.Add(rec)
		if p.metrics != nil {
			p.metrics.BucketsOutstanding.Set(float64(p.window.Outstanding()))
		}
		return true
	}

	p.notifyTrade(ctx, rec)
	return true
}

// ProcessWebhookBatch runs the transactions of one webhook delivery in
// order, pacing between items. Per-item failures never abort the batch.
// Returns the number of accepted trades.
func (p *Pipeline) ProcessWebhookBatch(ctx context.Context, txs []helius.EnhancedTransaction) int {
	if p.metrics != nil {
		p.metrics.WebhookBatches.Inc()
	}

	processed := 0
	for i := range txs {
		if p.ProcessTransaction(ctx, &txs[i]) {
			processed++
		}
		if i < len(txs)-1 {
			select {
			case <-ctx.Done():
				return processed
			case <-time.After(p.pacingDelay):
			}
		}
	}
	return processed
}

// notifyTrade enriches one trade with the holder count and dispatches its
// alert, both through the outbound queue.
func (p *Pipeline) notifyTrade(ctx context.Context, rec *domain.TradeRecord) {
	holders := p.enrichHolderCount(ctx)

	err := p.queue.Do(ctx, "trade alert", func(ctx context.Context) error {
		return p.notifier.TradeAlert(ctx, rec, holders)
	})
	if err != nil {
		p.logger.Printf("Error sending trade alert for %s: %v", rec.Signature, err)
		if p.metrics != nil {
			p.metrics.NotificationErrors.Inc()
		}
		p.alertError(ctx, fmt.Sprintf("trade alert failed for %s: %v", rec.Signature, err))
		return
	}

	p.mu.Lock()
	p.stats.BaseVolume += rec.BaseAmount
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.NotificationsSent.WithLabelValues("trade").Inc()
		p.metrics.BaseVolumeNotified.Add(rec.BaseAmount)
	}

	p.journalTrade(ctx, rec)
}

// enrichHolderCount fetches the current holder count through the queue.
// Failures fall back to the last known count; the alert is sent regardless.
func (p *Pipeline) enrichHolderCount(ctx context.Context) int {
	if p.holders == nil {
		return p.lastHolderCount()
	}

	var holders int
	err := p.queue.Do(ctx, "holder count", func(ctx context.Context) error {
		var err error
		holders, err = p.holders.HolderCount(ctx, p.trackedMint)
		return err
	})
	if err != nil {
		last := p.lastHolderCount()
		p.logger.Printf("Error fetching holder count, using last known %d: %v", last, err)
		return last
	}

	p.mu.Lock()
	p.stats.LastHolderCount = holders
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.HolderCount.Set(float64(holders))
	}
	return holders
}

func (p *Pipeline) lastHolderCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats.LastHolderCount
}

// handleFlush dispatches one window summary. Runs on the window's timer
// goroutine, so it carries its own context.
func (p *Pipeline) handleFlush(s *domain.WindowSummary) {
	ctx := context.Background()

	err := p.queue.Do(ctx, "window summary", func(ctx context.Context) error {
		return p.notifier.WindowSummary(ctx, s)
	})
	if err != nil {
		p.logger.Printf("Error sending window summary for bucket %d: %v", s.Bucket, err)
		if p.metrics != nil {
			p.metrics.NotificationErrors.Inc()
		}
		p.alertError(ctx, fmt.Sprintf("window summary failed for bucket %d: %v", s.Bucket, err))
		return
	}

	p.mu.Lock()
	p.stats.BaseVolume += s.BaseVolume
	p.mu.Unlock()
	if p.metrics != nil {
		p.metrics.WindowsFlushed.Inc()
		p.metrics.NotificationsSent.WithLabelValues("summary").Inc()
		p.metrics.BaseVolumeNotified.Add(s.BaseVolume)
		p.metrics.BucketsOutstanding.Set(float64(p.window.Outstanding()))
	}

	if p.statsStore != nil {
		if err := p.statsStore.Insert(ctx, s); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			p.logger.Printf("Error archiving window summary for bucket %d: %v", s.Bucket, err)
		}
	}
}

// journalTrade records one notified trade, best-effort.
func (p *Pipeline) journalTrade(ctx context.Context, rec *domain.TradeRecord) {
	if p.tradeStore == nil {
		return
	}
	if err := p.tradeStore.Insert(ctx, rec); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		p.logger.Printf("Error journaling trade %s: %v", rec.Signature, err)
	}
}

// alertError reports an operational failure to the secondary chat. A failed
// alert is only logged.
func (p *Pipeline) alertError(ctx context.Context, text string) {
	err := p.queue.Do(ctx, "error alert", func(ctx context.Context) error {
		return p.notifier.ErrorAlert(ctx, text)
	})
	if err != nil {
		p.logger.Printf("Error sending error alert: %v", err)
	}
}

func (p *Pipeline) skip(reason string) {
	if p.metrics != nil {
		p.metrics.TransactionsSkipped.WithLabelValues(reason).Inc()
	}
}

// EnsureWebhook registers a webhook for the tracked mint unless one already
// points at url.
func (p *Pipeline) EnsureWebhook(ctx context.Context, url string) error {
	if p.registrar == nil {
		return errors.New("no webhook registrar configured")
	}

	existing, err := p.registrar.ListWebhooks(ctx)
	if err != nil {
		return fmt.Errorf("list webhooks: %w", err)
	}
	for _, wh := range existing {
		if wh.WebhookURL == url {
			p.logger.Printf("Webhook already registered: %s", wh.WebhookID)
			return nil
		}
	}

	wh, err := p.registrar.CreateWebhook(ctx, helius.WebhookRequest{
		WebhookURL:       url,
		TransactionTypes: []string{helius.TxTypeSwap},
		AccountAddresses: []string{p.trackedMint},
		WebhookType:      "enhanced",
	})
	if err != nil {
		return fmt.Errorf("create webhook: %w", err)
	}

	p.logger.Printf("Webhook registered: %s -> %s", wh.WebhookID, url)
	return nil
}

// Status is a point-in-time snapshot of the pipeline, served on /status.
type Status struct {
	PollState          string  `json:"poll_state"`
	DedupSize          int     `json:"dedup_size"`
	BucketsOutstanding int     `json:"buckets_outstanding"`
	QueueDepth         int     `json:"queue_depth"`
	WindowCallCount    int     `json:"window_call_count"`
	TradesProcessed    int64   `json:"trades_processed"`
	BaseVolume         float64 `json:"base_volume"`
	LastHolderCount    int     `json:"last_holder_count"`
	StartedAt          int64   `json:"started_at"`
}

// Status returns a snapshot of counters and component sizes. Read-only.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	stats := p.stats
	p.mu.Unlock()

	s := Status{
		PollState:       string(p.PollingState()),
		DedupSize:       p.dedup.Len(),
		QueueDepth:      p.queue.Depth(),
		WindowCallCount: p.queue.WindowCount(),
		TradesProcessed: stats.TradesProcessed,
		BaseVolume:      stats.BaseVolume,
		LastHolderCount: stats.LastHolderCount,
		StartedAt:       stats.StartedAt,
	}
	if p.window != nil {
		s.BucketsOutstanding = p.window.Outstanding()
	}
	return s
}
