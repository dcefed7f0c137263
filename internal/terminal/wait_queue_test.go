package terminal

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWaitQueue_WakeBeforeWait(t *testing.T) {
	var q WaitQueue
	w := q.Prepare()
	if !q.HasWaiters() {
		t.Fatalf("HasWaiters() = false after Prepare")
	}

	q.WakeUp()
	if q.HasWaiters() {
		t.Errorf("HasWaiters() = true after WakeUp")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := q.Wait(ctx, w); err != nil {
		t.Errorf("Wait() error = %v, want nil for a wake issued before waiting", err)
	}
}

func TestWaitQueue_WakeUpIsFIFO(t *testing.T) {
	var q WaitQueue
	first := q.Prepare()
	second := q.Prepare()

	q.WakeUp()

	select {
	case <-first.ch:
	default:
		t.Errorf("first waiter was not woken")
	}
	select {
	case <-second.ch:
		t.Errorf("second waiter was woken early")
	default:
	}

	q.WakeAll()
	select {
	case <-second.ch:
	default:
		t.Errorf("WakeAll() did not wake the second waiter")
	}
}

func TestWaitQueue_Cancel(t *testing.T) {
	var q WaitQueue
	w := q.Prepare()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Wait(ctx, w); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() error = %v, want %v", err, context.Canceled)
	}
	if q.HasWaiters() {
		t.Errorf("cancelled waiter still registered")
	}

	// waking an empty queue is a no-op
	q.WakeUp()
}
