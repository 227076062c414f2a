package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abakusuz/paybot/internal/metrics"
	"go.uber.org/zap"
)

var (
	// ErrUnitFailed wraps a failure from a submitted unit of work.
	ErrUnitFailed = errors.New("bridge unit failed")
	// ErrStopped is returned when work is submitted to a stopped bridge.
	ErrStopped = errors.New("bridge is stopped")
)

type task struct {
	fn   func(ctx context.Context) error
	done chan error // nil for fire-and-forget
}

// Bridge owns the single background worker that runs all bot work. HTTP
// handlers hand units over and either wait for the result or return
// immediately; handler code itself never runs on an HTTP goroutine.
type Bridge struct {
	log *zap.SugaredLogger

	mu      sync.Mutex
	tasks   chan task
	quit    chan struct{}
	stopped chan struct{}
	running bool
}

func New(log *zap.SugaredLogger) *Bridge {
	return &Bridge{log: log}
}

// Start launches the worker. Starting a running bridge is a no-op; starting
// a stopped one brings it back up with a fresh queue.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.running {
		return
	}
	b.tasks = make(chan task, 64)
	b.quit = make(chan struct{})
	b.stopped = make(chan struct{})
	b.running = true
	go b.run(b.tasks, b.quit, b.stopped)
}

// Stop shuts the worker down and waits for the in-flight unit to finish.
// Queued units are dropped.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	quit, stopped := b.quit, b.stopped
	b.mu.Unlock()

	close(quit)
	<-stopped
}

func (b *Bridge) run(tasks chan task, quit, stopped chan struct{}) {
	defer close(stopped)
	for {
		select {
		case t := <-tasks:
			metrics.BridgeQueueDepth.Dec()
			err := b.exec(t.fn)

			mode, outcome := "async", "ok"
			if t.done != nil {
				mode = "wait"
			}
			if err != nil {
				outcome = "error"
			}
			metrics.BridgeUnitsTotal.WithLabelValues(mode, outcome).Inc()

			if t.done != nil {
				t.done <- err
			} else if err != nil {
				b.log.Errorw("background unit failed", "err", err)
			}
		case <-quit:
			return
		}
	}
}

// exec isolates one unit: a panic is turned into an error so a broken
// handler cannot take the worker down.
func (b *Bridge) exec(fn func(ctx context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(context.Background())
}

func (b *Bridge) enqueue(t task) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return ErrStopped
	}
	tasks, quit := b.tasks, b.quit
	b.mu.Unlock()

	select {
	case tasks <- t:
		metrics.BridgeQueueDepth.Inc()
		return nil
	case <-quit:
		return ErrStopped
	}
}

// Submit schedules fn on the worker and blocks until it completes. A unit
// failure comes back wrapped in ErrUnitFailed; ctx only bounds the wait,
// the unit itself is not cancelled.
func (b *Bridge) Submit(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	if err := b.enqueue(task{fn: fn, done: done}); err != nil {
		return err
	}
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%w: %s", ErrUnitFailed, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitAsync schedules fn without waiting. Failures are logged on the
// worker and never surface to the caller.
func (b *Bridge) SubmitAsync(fn func(ctx context.Context) error) error {
	return b.enqueue(task{fn: fn})
}
