package usecase

import (
	"context"
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d. time.AfterFunc satisfies it.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs fn once after a quiet period with no further Trigger calls.
//
// Runs never overlap: a timer that expires while the previous run is still
// in progress is remembered and executed right after that run returns.
// Stopping the debouncer, or cancelling its context, drops any pending run.
type Debouncer struct {
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
	delay     time.Duration
	fn        func(context.Context)
	afterFunc AfterFunc
	timer     Timer
	gen       uint64
	running   bool
	rerun     bool
	stopped   bool
}

// NewDebouncer creates a debouncer bound to ctx. A nil afterFunc uses
// time.AfterFunc.
func NewDebouncer(ctx context.Context, delay time.Duration, afterFunc AfterFunc, fn func(context.Context)) *Debouncer {
	if delay <= 0 {
		delay = DefaultQuietPeriod
	}
	if afterFunc == nil {
		afterFunc = realAfterFunc
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Debouncer{
		ctx:       ctx,
		cancel:    cancel,
		delay:     delay,
		fn:        fn,
		afterFunc: afterFunc,
	}
}

// Trigger cancels any pending timer and starts a new quiet period.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.ctx.Err() != nil {
		return
	}

	d.stopTimerLocked()
	d.gen++
	gen := d.gen
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
}

// Cancel drops the pending timer, or a run deferred behind the current one,
// without firing it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rerun = false
	d.stopTimerLocked()
}

// Stop cancels the pending timer and the debouncer's context. A run already
// in progress observes the cancelled context.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.rerun = false
	d.stopTimerLocked()
	d.mu.Unlock()

	d.cancel()
}

func (d *Debouncer) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	// Invalidates a callback that already started but has not taken the lock.
	d.gen++
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.stopped || d.ctx.Err() != nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil

	if d.running {
		d.rerun = true
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	for {
		d.fn(d.ctx)

		d.mu.Lock()
		if !d.rerun || d.stopped || d.ctx.Err() != nil {
			d.running = false
			d.rerun = false
			d.mu.Unlock()
			return
		}
		d.rerun = false
		d.mu.Unlock()
	}
}
