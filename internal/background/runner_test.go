package background

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunnerRunsDetached(t *testing.T) {
	r := NewRunner(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	var ran atomic.Bool
	var sawCancel atomic.Bool
	r.Go(ctx, "detached", func(taskCtx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		if taskCtx.Err() != nil {
			sawCancel.Store(true)
		}
		ran.Store(true)
		return nil
	})
	cancel()
	r.Wait()

	if !ran.Load() {
		t.Fatalf("expected task to run")
	}
	if sawCancel.Load() {
		t.Fatalf("expected task context to survive caller cancellation")
	}
}

func TestRunnerSwallowsFailures(t *testing.T) {
	r := NewRunner(time.Second)
	var count atomic.Int32

	r.Go(context.Background(), "error", func(ctx context.Context) error {
		count.Add(1)
		return errors.New("write failed")
	})
	r.Go(context.Background(), "panic", func(ctx context.Context) error {
		count.Add(1)
		panic("boom")
	})
	r.Wait()

	if count.Load() != 2 {
		t.Fatalf("expected both tasks to run, got %d", count.Load())
	}
}

func TestRunnerAppliesTimeout(t *testing.T) {
	r := NewRunner(10 * time.Millisecond)
	var deadline atomic.Bool
	r.Go(context.Background(), "slow", func(ctx context.Context) error {
		<-ctx.Done()
		deadline.Store(errors.Is(ctx.Err(), context.DeadlineExceeded))
		return ctx.Err()
	})
	r.Wait()

	if !deadline.Load() {
		t.Fatalf("expected task to hit its deadline")
	}
}
