package terminal

import (
	"context"
	"sync"
)

// Waiter is a registration on a WaitQueue. It is closed when woken.
type Waiter struct {
	ch chan struct{}
}

// WaitQueue parks process-context readers until a producer wakes them.
// A waiter must register with Prepare while the caller still holds the lock
// protecting the condition it waits on, then release that lock and call Wait.
// A wake issued in between is not lost. Woken readers re-check their
// condition; a wake is not a promise that data is ready.
type WaitQueue struct {
	mu      sync.Mutex
	waiters []*Waiter
}

func (q *WaitQueue) Prepare() *Waiter {
	w := &Waiter{ch: make(chan struct{})}

	q.mu.Lock()
	q.waiters = append(q.waiters, w)
	q.mu.Unlock()

	return w
}

// Wait blocks until w is woken or ctx is done.
func (q *WaitQueue) Wait(ctx context.Context, w *Waiter) error {
	select {
	case <-w.ch:
		return nil
	case <-ctx.Done():
		q.remove(w)
		return ctx.Err()
	}
}

func (q *WaitQueue) remove(w *Waiter) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, x := range q.waiters {
		if x == w {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			return
		}
	}
}

func (q *WaitQueue) HasWaiters() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiters) > 0
}

// WakeUp wakes the oldest waiter, if any. It never blocks.
func (q *WaitQueue) WakeUp() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.waiters) == 0 {
		return
	}
	w := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(w.ch)
}

func (q *WaitQueue) WakeAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, w := range q.waiters {
		close(w.ch)
	}
	q.waiters = nil
}
