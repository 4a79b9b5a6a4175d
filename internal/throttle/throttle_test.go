package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 3
	const tasks = 20

	pool := NewPool(workers, tasks)
	results := pool.Run(context.Background())

	var inFlight, peak int32
	var mu sync.Mutex

	for i := 0; i < tasks; i++ {
		pool.Submit(func(ctx context.Context) error {
			cur := atomic.AddInt32(&inFlight, 1)
			mu.Lock()
			if cur > peak {
				peak = cur
			}
			mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}
	pool.Close()

	var done int
	for range results {
		done++
	}
	if done != tasks {
		t.Fatalf("expected %d results, got %d", tasks, done)
	}
	mu.Lock()
	defer mu.Unlock()
	if peak > workers {
		t.Fatalf("concurrency bound violated: peak=%d workers=%d", peak, workers)
	}
}

func TestPool_CollectsErrors(t *testing.T) {
	pool := NewPool(2, 4)
	results := pool.Run(context.Background())

	boom := errors.New("boom")
	pool.Submit(func(ctx context.Context) error { return nil })
	pool.Submit(func(ctx context.Context) error { return boom })
	pool.Submit(func(ctx context.Context) error { return nil })
	pool.Close()

	var failed int
	for r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed != 1 {
		t.Fatalf("expected 1 failed task, got %d", failed)
	}
}

func TestPacer_EnforcesSpacing(t *testing.T) {
	p := NewPacer(20*time.Millisecond, false)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait #%d: %v", i+1, err)
		}
	}
	elapsed := time.Since(start)

	// First call is free; two more cost one base delay each.
	if elapsed < 40*time.Millisecond {
		t.Fatalf("expected at least 40ms of pacing, elapsed %s", elapsed)
	}
}

func TestPacer_JitterStaysWithinBounds(t *testing.T) {
	p := NewPacer(100*time.Millisecond, true)
	for i := 0; i < 100; i++ {
		d := p.nextDelay()
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay out of bounds: %s", d)
		}
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	p := NewPacer(time.Minute, false)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
