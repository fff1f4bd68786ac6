package ratelimit

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func testQueue(maxPerWindow int, window time.Duration) *Queue {
	q := New(Options{
		MaxPerWindow:   maxPerWindow,
		Window:         window,
		InterTaskDelay: time.Millisecond,
		Logger:         log.New(io.Discard, "", 0),
	})
	q.Start()
	return q
}

func TestQueue_ExecutesInFIFOOrder(t *testing.T) {
	q := testQueue(100, time.Minute)
	defer q.Stop()

	var mu sync.Mutex
	var order []int

	ctx := context.Background()
	var chans []<-chan error
	for i := 0; i < 5; i++ {
		i := i
		chans = append(chans, q.Enqueue(ctx, "task", func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}))
	}

	for i, ch := range chans {
		select {
		case err := <-ch:
			if err != nil {
				t.Fatalf("task %d failed: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("task %d did not resolve", i)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i, got := range order {
		if got != i {
			t.Fatalf("tasks ran out of order: %v", order)
		}
	}
}

func TestQueue_CeilingHoldsUntilWindowReset(t *testing.T) {
	const ceiling = 3
	q := testQueue(ceiling, 150*time.Millisecond)
	defer q.Stop()

	var executed atomic.Int32
	ctx := context.Background()

	var chans []<-chan error
	for i := 0; i < ceiling+2; i++ {
		chans = append(chans, q.Enqueue(ctx, "task", func(ctx context.Context) error {
			executed.Add(1)
			return nil
		}))
	}

	// Give the drain time to hit the ceiling, well inside the window.
	time.Sleep(60 * time.Millisecond)
	if got := executed.Load(); got != ceiling {
		t.Fatalf("expected exactly %d executions before reset, got %d", ceiling, got)
	}
	if got := q.Depth(); got != 2 {
		t.Errorf("expected 2 tasks still queued, got %d", got)
	}

	// All tasks resolve after the window resets.
	for i, ch := range chans {
		select {
		case err := <-ch:
			if err != nil {
				t.Fatalf("task %d failed: %v", i, err)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("task %d did not resolve after window reset", i)
		}
	}
	if got := executed.Load(); got != ceiling+2 {
		t.Errorf("expected %d total executions, got %d", ceiling+2, got)
	}
}

func TestQueue_AtMostOneInFlight(t *testing.T) {
	q := testQueue(100, time.Minute)
	defer q.Stop()

	var inFlight, maxInFlight atomic.Int32
	ctx := context.Background()

	var chans []<-chan error
	for i := 0; i < 8; i++ {
		chans = append(chans, q.Enqueue(ctx, "task", func(ctx context.Context) error {
			cur := inFlight.Add(1)
			for {
				prev := maxInFlight.Load()
				if cur <= prev || maxInFlight.CompareAndSwap(prev, cur) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			inFlight.Add(-1)
			return nil
		}))
	}

	for _, ch := range chans {
		<-ch
	}
	if got := maxInFlight.Load(); got != 1 {
		t.Errorf("expected at most 1 in-flight task, observed %d", got)
	}
}

func TestQueue_TaskErrorPropagates(t *testing.T) {
	q := testQueue(10, time.Minute)
	defer q.Stop()

	boom := errors.New("boom")
	err := q.Do(context.Background(), "failing", func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
}

func TestQueue_CancelledBeforeExecution(t *testing.T) {
	q := testQueue(10, time.Minute)
	defer q.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var executed atomic.Bool
	ch := q.Enqueue(ctx, "cancelled", func(ctx context.Context) error {
		executed.Store(true)
		return nil
	})

	select {
	case err := <-ch:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled task did not resolve")
	}
	if executed.Load() {
		t.Error("cancelled task must not execute")
	}
	if q.WindowCount() != 0 {
		t.Errorf("cancelled task must not spend budget, count %d", q.WindowCount())
	}
}

func TestQueue_StopRejectsPending(t *testing.T) {
	q := testQueue(1, time.Hour)

	ctx := context.Background()
	// First task spends the whole window budget; the rest stay queued.
	first := q.Enqueue(ctx, "first", func(ctx context.Context) error { return nil })
	second := q.Enqueue(ctx, "second", func(ctx context.Context) error { return nil })

	if err := <-first; err != nil {
		t.Fatalf("first task failed: %v", err)
	}

	q.Stop()

	select {
	case err := <-second:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("expected ErrQueueClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("pending task was not rejected at shutdown")
	}

	// Enqueue after Stop rejects immediately.
	late := q.Enqueue(ctx, "late", func(ctx context.Context) error { return nil })
	if err := <-late; !errors.Is(err, ErrQueueClosed) {
		t.Errorf("expected ErrQueueClosed for late enqueue, got %v", err)
	}
}

func TestQueue_WindowCountTracksBudget(t *testing.T) {
	q := testQueue(10, time.Hour)
	defer q.Stop()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := q.Do(ctx, "task", func(ctx context.Context) error { return nil }); err != nil {
			t.Fatalf("task %d failed: %v", i, err)
		}
	}
	if got := q.WindowCount(); got != 3 {
		t.Errorf("expected window count 3, got %d", got)
	}
}
