// Package ratelimit provides a FIFO request queue gating calls to upstream
// APIs that enforce a per-minute quota. It is client-side admission control:
// bursts (a webhook delivering many transactions at once) are queued and
// drained one task at a time instead of triggering upstream 429s.
package ratelimit

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Default configuration values.
const (
	DefaultMaxPerWindow   = 30
	DefaultWindow         = 60 * time.Second
	DefaultInterTaskDelay = 200 * time.Millisecond
)

// ErrQueueClosed rejects tasks enqueued after Stop, and pending tasks
// drained at shutdown.
var ErrQueueClosed = errors.New("request queue closed")

// Options configures a Queue.
type Options struct {
	// MaxPerWindow caps task executions per window.
	MaxPerWindow int
	// Window is the counter reset interval.
	Window time.Duration
	// InterTaskDelay spaces consecutive task executions.
	InterTaskDelay time.Duration
	Logger         *log.Logger
}

// task is one deferred call awaiting its turn.
type task struct {
	name string
	ctx  context.Context
	fn   func(context.Context) error
	done chan error // buffered, written exactly once
}

// Queue executes tasks in strict FIFO order, at most one in flight, within
// a per-window execution budget. When the budget is exhausted draining stops
// until the window resets.
type Queue struct {
	maxPerWindow int
	window       time.Duration
	interDelay   time.Duration
	logger       *log.Logger

	mu       sync.Mutex
	pending  []*task
	count    int // executions in the current window
	draining bool
	closed   bool

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a Queue. Start must be called before tasks execute.
func New(opts Options) *Queue {
	maxPerWindow := opts.MaxPerWindow
	if maxPerWindow <= 0 {
		maxPerWindow = DefaultMaxPerWindow
	}
	window := opts.Window
	if window <= 0 {
		window = DefaultWindow
	}
	interDelay := opts.InterTaskDelay
	if interDelay <= 0 {
		interDelay = DefaultInterTaskDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Queue{
		maxPerWindow: maxPerWindow,
		window:       window,
		interDelay:   interDelay,
		logger:       logger,
		stop:         make(chan struct{}),
	}
}

// Start launches the window-reset ticker. It returns immediately.
func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()

		ticker := time.NewTicker(q.window)
		defer ticker.Stop()

		for {
			select {
			case <-q.stop:
				return
			case <-ticker.C:
				q.mu.Lock()
				q.count = 0
				q.mu.Unlock()
				q.maybeDrain()
			}
		}
	}()
}

// Stop shuts the queue down. Pending tasks are rejected with ErrQueueClosed;
// an in-flight task is allowed to finish.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		rejected := q.pending
		q.pending = nil
		q.mu.Unlock()

		for _, t := range rejected {
			t.done <- ErrQueueClosed
		}

		close(q.stop)
		q.wg.Wait()
	})
}

// Enqueue appends a task and returns a channel that receives its result
// exactly once. The task runs with its own context; cancellation before
// execution rejects it with the context's error without spending budget.
func (q *Queue) Enqueue(ctx context.Context, name string, fn func(context.Context) error) <-chan error {
	t := &task{name: name, ctx: ctx, fn: fn, done: make(chan error, 1)}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		t.done <- ErrQueueClosed
		return t.done
	}
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	q.maybeDrain()
	return t.done
}

// Do enqueues and blocks until the task resolves or its context is done.
func (q *Queue) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	select {
	case err := <-q.Enqueue(ctx, name, fn):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Depth returns the number of tasks waiting to execute.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// WindowCount returns executions counted against the current window.
func (q *Queue) WindowCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// maybeDrain starts a drain pass unless one is already running. At most one
// drain goroutine exists at a time, which is what guarantees at-most-one
// in-flight task.
func (q *Queue) maybeDrain() {
	q.mu.Lock()
	if q.draining || q.closed || len(q.pending) == 0 || q.count >= q.maxPerWindow {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	q.wg.Add(1)
	go q.drain()
}

// drain pops and executes head tasks until the queue empties, the budget is
// exhausted, or the queue stops.
func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if q.closed || len(q.pending) == 0 || q.count >= q.maxPerWindow {
			q.draining = false
			q.mu.Unlock()
			return
		}
		t := q.pending[0]
		q.pending = q.pending[1:]

		// A task whose caller gave up is rejected without spending budget.
		if err := t.ctx.Err(); err != nil {
			q.mu.Unlock()
			t.done <- err
			continue
		}

		q.count++
		q.mu.Unlock()

		t.done <- t.fn(t.ctx)

		select {
		case <-q.stop:
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
			return
		case <-time.After(q.interDelay):
		}
	}
}
