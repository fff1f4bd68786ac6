package ingestion

import (
	"context"
	"errors"
	"time"

	"solana-trade-relay/internal/helius"
)

// PollState is the poller's lifecycle state.
type PollState string

// Poller states.
const (
	PollStopped PollState = "stopped"
	PollRunning PollState = "running"
	PollPaused  PollState = "paused"
)

// StartPolling launches the poll loop. Calling it while the poller is
// already running or paused is a no-op.
func (p *Pipeline) StartPolling(ctx context.Context) {
	p.pollMu.Lock()
	if p.pollState != PollStopped {
		p.pollMu.Unlock()
		return
	}
	p.pollState = PollRunning
	p.pollStop = make(chan struct{})
	stop := p.pollStop
	p.pollMu.Unlock()

	p.logger.Printf("Poller started, interval %v, page %d", p.pollInterval, p.pollPage)

	p.pollWG.Add(1)
	go p.pollLoop(ctx, stop)
}

// StopPolling stops the poll loop and waits for it to exit. A fetch already
// in flight completes and its transactions are still processed; no further
// cycle is scheduled.
func (p *Pipeline) StopPolling() {
	p.pollMu.Lock()
	if p.pollState == PollStopped || p.pollStop == nil {
		p.pollMu.Unlock()
		return
	}
	stop := p.pollStop
	p.pollStop = nil
	p.pollMu.Unlock()

	close(stop)
	p.pollWG.Wait()
	p.logger.Println("Poller stopped")
}

// PollingState returns the poller's current state.
func (p *Pipeline) PollingState() PollState {
	p.pollMu.Lock()
	defer p.pollMu.Unlock()
	return p.pollState
}

// pollLoop runs one cycle immediately, then one per tick, until stopped.
func (p *Pipeline) pollLoop(ctx context.Context, stop <-chan struct{}) {
	defer p.pollWG.Done()
	defer func() {
		p.pollMu.Lock()
		p.pollState = PollStopped
		p.pollMu.Unlock()
	}()

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce fetches one page of recent transactions through the queue and
// processes it. A paused poller skips cycles until its resume deadline.
func (p *Pipeline) pollOnce(ctx context.Context) {
	p.pollMu.Lock()
	if p.pollState == PollPaused {
		if time.Now().Before(p.resumeAt) {
			p.pollMu.Unlock()
			return
		}
		p.pollState = PollRunning
		p.pollMu.Unlock()
		p.logger.Println("Poller resumed after rate-limit pause")
	} else {
		p.pollMu.Unlock()
	}

	var txs []helius.EnhancedTransaction
	err := p.queue.Do(ctx, "poll recent transactions", func(ctx context.Context) error {
		var err error
		txs, err = p.source.FetchRecent(ctx, p.pollPage)
		return err
	})
	if err != nil {
		if errors.Is(err, helius.ErrRateLimited) {
			p.pauseForRateLimit(err)
			return
		}
		p.logger.Printf("Error polling transactions: %v", err)
		if p.metrics != nil {
			p.metrics.PollCycles.WithLabelValues("error").Inc()
		}
		return
	}

	if p.metrics != nil {
		p.metrics.PollCycles.WithLabelValues("ok").Inc()
		p.metrics.LastSuccessfulPoll.SetToCurrentTime()
	}

	for i := range txs {
		p.ProcessTransaction(ctx, &txs[i])
	}
}

// pauseForRateLimit moves the poller to Paused until the configured pause
// elapses, or longer when the server's retry-after hint exceeds it.
func (p *Pipeline) pauseForRateLimit(err error) {
	pause := p.rateLimitPause
	var rl *helius.RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > pause {
		pause = rl.RetryAfter
	}

	p.pollMu.Lock()
	p.pollState = PollPaused
	p.resumeAt = time.Now().Add(pause)
	p.pollMu.Unlock()

	p.logger.Printf("Upstream rate limit hit, poller paused for %v", pause)
	if p.metrics != nil {
		p.metrics.RateLimitPauses.Inc()
		p.metrics.PollCycles.WithLabelValues("rate_limited").Inc()
	}
}
