package throttle

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Pacer enforces a minimum spacing between consecutive calls in one group.
// With jitter enabled the spacing varies between 50% and 150% of the base
// delay, so outbound traffic never falls into a detectable fixed cadence.
type Pacer struct {
	mu     sync.Mutex
	base   time.Duration
	jitter bool
	last   time.Time
	rng    *rand.Rand
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewPacer(base time.Duration, jitter bool) *Pacer {
	return &Pacer{
		base:   base,
		jitter: jitter,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepCtx,
	}
}

// Wait blocks until the group's next call slot, or until ctx is done.
// The first call in a group proceeds immediately.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.base <= 0 {
		return ctx.Err()
	}

	p.mu.Lock()
	now := time.Now()
	delay := p.nextDelay()
	var wait time.Duration
	if !p.last.IsZero() {
		due := p.last.Add(delay)
		if due.After(now) {
			wait = due.Sub(now)
		}
	}
	p.last = now.Add(wait)
	p.mu.Unlock()

	if wait <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, wait)
}

func (p *Pacer) nextDelay() time.Duration {
	if !p.jitter {
		return p.base
	}
	// 50%..150% of base.
	half := int64(p.base) / 2
	if half <= 0 {
		return p.base
	}
	return time.Duration(half + p.rng.Int63n(2*half))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
