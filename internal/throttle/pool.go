// Package throttle holds the pipeline's rate and concurrency primitives:
// a bounded worker pool (at most K calls in flight) and a pacer (at least
// D delay, optionally jittered, between calls in one group).
package throttle

import (
	"context"
	"sync"
)

type Task func(ctx context.Context) error

type Result struct {
	Err error
}

// Pool runs submitted tasks on a fixed number of workers. A non-nil pacer
// spaces task starts so grouped calls against one upstream never burst.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	pacer   *Pacer
}

func NewPool(workers, buffer int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

// SetPacer installs start pacing. Call before Run.
func (p *Pool) SetPacer(pacer *Pacer) {
	if p == nil {
		return
	}
	p.pacer = pacer
}

func (p *Pool) Submit(t Task) {
	if p == nil || t == nil {
		return
	}
	p.tasks <- t
}

func (p *Pool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *Pool) Run(ctx context.Context) <-chan Result {
	buf := p.workers * 64
	if buf < 1 {
		buf = 1
	}
	out := make(chan Result, buf)
	if p == nil {
		close(out)
		return out
	}

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					if t == nil {
						continue
					}
					if p.pacer != nil {
						if err := p.pacer.Wait(ctx); err != nil {
							return
						}
					}
					err := t(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Err: err}:
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
