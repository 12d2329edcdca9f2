package task

import "context"

// Future holds the eventual result of an asynchronous task. A future is
// completed exactly once; Await and Done may be used from any goroutine.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an incomplete future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Complete resolves the future. It must be called at most once.
func (f *Future[T]) Complete(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the future completes or ctx is canceled.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Submit schedules fn on the pool and returns a future for its result.
// If the pool is closed the returned future is already completed with
// ErrPoolClosed.
func Submit[T any](p *Pool, fn func() (T, error)) *Future[T] {
	f := NewFuture[T]()
	if err := p.Go(func() { f.Complete(fn()) }); err != nil {
		var zero T
		f.Complete(zero, err)
	}
	return f
}
