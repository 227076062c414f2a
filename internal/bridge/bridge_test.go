package bridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	b := New(zap.NewNop().Sugar())
	b.Start()
	t.Cleanup(b.Stop)
	return b
}

func TestSubmitRunsAndReturns(t *testing.T) {
	b := newTestBridge(t)

	ran := false
	if err := b.Submit(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	}); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !ran {
		t.Fatal("unit did not run")
	}
}

func TestSubmitPropagatesFailure(t *testing.T) {
	b := newTestBridge(t)

	boom := errors.New("boom")
	err := b.Submit(context.Background(), func(ctx context.Context) error {
		return boom
	})
	if !errors.Is(err, ErrUnitFailed) {
		t.Fatalf("got %v, want ErrUnitFailed", err)
	}
}

func TestAsyncPanicDoesNotKillWorker(t *testing.T) {
	b := newTestBridge(t)

	if err := b.SubmitAsync(func(ctx context.Context) error {
		panic("broken handler")
	}); err != nil {
		t.Fatalf("SubmitAsync returned error: %v", err)
	}

	// the worker must still serve the next unit
	if err := b.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Submit after panic: %v", err)
	}
}

func TestSubmitPanicComesBackAsError(t *testing.T) {
	b := newTestBridge(t)

	err := b.Submit(context.Background(), func(ctx context.Context) error {
		panic("broken handler")
	})
	if !errors.Is(err, ErrUnitFailed) {
		t.Fatalf("panicking unit: got %v, want ErrUnitFailed", err)
	}
}

func TestUnitsRunInSubmissionOrder(t *testing.T) {
	b := newTestBridge(t)

	var order []int
	done := make(chan struct{})
	for i := 1; i <= 3; i++ {
		i := i
		if err := b.SubmitAsync(func(ctx context.Context) error {
			order = append(order, i)
			if i == 3 {
				close(done)
			}
			return nil
		}); err != nil {
			t.Fatalf("SubmitAsync %d: %v", i, err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("units did not run")
	}
	// order is written only on the single worker goroutine
	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("units ran out of order: %v", order)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	b := newTestBridge(t)
	b.Start()
	b.Start()

	if err := b.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Submit after repeated Start: %v", err)
	}
}

func TestRestartAfterStop(t *testing.T) {
	b := New(zap.NewNop().Sugar())
	b.Start()
	b.Stop()

	if err := b.SubmitAsync(func(ctx context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("submit on stopped bridge: got %v, want ErrStopped", err)
	}

	b.Start()
	defer b.Stop()
	if err := b.Submit(context.Background(), func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("Submit after restart: %v", err)
	}
}

func TestSubmitHonorsContext(t *testing.T) {
	b := newTestBridge(t)

	block := make(chan struct{})
	defer close(block)
	// occupy the worker
	if err := b.SubmitAsync(func(ctx context.Context) error {
		<-block
		return nil
	}); err != nil {
		t.Fatalf("SubmitAsync: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := b.Submit(ctx, func(ctx context.Context) error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want DeadlineExceeded", err)
	}
}
