// Package debounce coalesces bursts of calls into one call for the latest
// argument, and cancels calls that a newer one supersedes.
package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Func is the debounced operation. ctx is cancelled when a newer call
// supersedes this one or the Debouncer is closed.
type Func[T, R any] func(ctx context.Context, arg T) (R, error)

// Debouncer delays fn until Trigger has not been called for the configured
// delay. Only the result of the most recent call reaches the callback.
type Debouncer[T, R any] struct {
	delay    time.Duration
	fn       Func[T, R]
	onResult func(arg T, res R, err error)

	mu       sync.Mutex
	base     context.Context
	stop     context.CancelFunc
	timer    *time.Timer
	inflight context.CancelFunc
	closed   bool

	seq       atomic.Uint64
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// New creates a Debouncer. onResult may be nil.
func New[T, R any](delay time.Duration, fn Func[T, R], onResult func(arg T, res R, err error)) *Debouncer[T, R] {
	base, stop := context.WithCancel(context.Background())
	return &Debouncer[T, R]{
		delay:    delay,
		fn:       fn,
		onResult: onResult,
		base:     base,
		stop:     stop,
	}
}

// Trigger schedules fn(arg), replacing any call still waiting on the timer.
// A call already in flight is aborted and its result dropped.
func (d *Debouncer[T, R]) Trigger(arg T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
	gen := d.seq.Add(1)
	d.timer = time.AfterFunc(d.delay, func() { d.fire(arg, gen) })
}

// Cancel drops the pending call and aborts the one in flight, if any.
func (d *Debouncer[T, R]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.inflight != nil {
		d.inflight()
		d.inflight = nil
	}
	d.seq.Add(1)
}

// Close stops the timer, cancels any in-flight call and waits for it to return.
func (d *Debouncer[T, R]) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.stop()
	d.mu.Unlock()
	d.seq.Add(1)
	d.wg.Wait()
}

// fire runs the call scheduled as generation id, unless a later Trigger,
// Cancel or Close has moved past it.
func (d *Debouncer[T, R]) fire(arg T, id uint64) {
	d.mu.Lock()
	if d.closed || d.seq.Load() != id {
		d.mu.Unlock()
		return
	}
	if d.inflight != nil {
		d.inflight()
	}
	ctx, cancel := context.WithCancel(d.base)
	d.inflight = cancel
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	defer cancel()

	res, err := d.fn(ctx, arg)

	d.deliverMu.Lock()
	defer d.deliverMu.Unlock()
	if d.seq.Load() != id {
		return // superseded
	}
	if d.onResult != nil {
		d.onResult(arg, res, err)
	}
}
