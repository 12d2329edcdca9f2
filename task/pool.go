// Package task provides asynchronous execution with futures and
// submission-ordered completion delivery.
package task

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrPoolClosed is returned when work is submitted to a closed pool.
var ErrPoolClosed = errors.New("task: pool is closed")

// Pool runs submitted functions on their own goroutines, optionally capped
// to a maximum number of concurrently executing tasks. The zero limit means
// unbounded. Close waits for every in-flight task to finish.
type Pool struct {
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewPool creates a pool executing at most maxWorkers tasks at a time.
// maxWorkers <= 0 leaves concurrency unbounded.
func NewPool(maxWorkers int) *Pool {
	p := &Pool{}
	if maxWorkers > 0 {
		p.sem = semaphore.NewWeighted(int64(maxWorkers))
	}
	return p
}

// Go schedules fn for execution. It never blocks on the worker cap: the
// goroutine is spawned immediately and waits for a slot if the pool is
// saturated.
func (p *Pool) Go(fn func()) error {
	return p.run(fn, nil)
}

// run spawns a goroutine executing fn under the worker cap. A non-nil
// handoff runs after the slot has been released, so it may block on other
// scheduled tasks without starving the pool. Close waits for both phases.
func (p *Pool) run(fn, handoff func()) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPoolClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()

		func() {
			if p.sem != nil {
				// Background context: a scheduled task always runs, so its
				// completion can be delivered.
				_ = p.sem.Acquire(context.Background(), 1)
				defer p.sem.Release(1)
			}
			fn()
		}()

		if handoff != nil {
			handoff()
		}
	}()

	return nil
}

// Close rejects further submissions and waits for in-flight tasks.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
}
