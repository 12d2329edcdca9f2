package task

import "sync"

// Serial schedules tasks on a pool while guaranteeing that their futures
// complete in submission order. Execution itself may interleave freely; only
// the completion hand-off is serialized, so a caller observing completions
// sees them first-in first-out.
type Serial struct {
	pool     *Pool
	rejectFn func(error) error
	mu       sync.Mutex
	tail     chan struct{}
}

// NewSerial creates an ordered submission queue on top of p.
func NewSerial(p *Pool) *Serial {
	tail := make(chan struct{})
	close(tail)
	return &Serial{pool: p, tail: tail}
}

// OnReject installs a translation for pool rejection errors before they are
// delivered through a future. It must be set before the first submission.
func (s *Serial) OnReject(fn func(error) error) {
	s.rejectFn = fn
}

// SubmitOrdered schedules fn on the queue's pool. The returned future does
// not complete before the futures of all earlier submissions to the same
// queue, even if fn finishes first.
func SubmitOrdered[T any](s *Serial, fn func() (T, error)) *Future[T] {
	s.mu.Lock()
	prev := s.tail
	gate := make(chan struct{})
	s.tail = gate
	s.mu.Unlock()

	f := NewFuture[T]()
	var val T
	var err error
	if perr := s.pool.run(func() {
		val, err = fn()
	}, func() {
		// The worker slot is free again by now: waiting on earlier
		// submissions here cannot starve a capacity-bounded pool.
		<-prev
		f.Complete(val, err)
		close(gate)
	}); perr != nil {
		if s.rejectFn != nil {
			perr = s.rejectFn(perr)
		}
		rejected := perr
		// Keep the chain intact for later submissions.
		go func() {
			<-prev
			var zero T
			f.Complete(zero, rejected)
			close(gate)
		}()
	}
	return f
}
