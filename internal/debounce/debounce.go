// Package debounce provides a debounced callback that commits only the last
// value of a burst once input has been quiet for a fixed delay.
package debounce

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The zero Debouncer uses the wall clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock returns a Clock backed by time.AfterFunc.
func WallClock() Clock {
	return wallClock{}
}

// Debouncer delays calls to a commit function until Trigger has not been
// called for the configured delay. It is safe for concurrent use and meant to
// live as long as its owner; call Stop when the owner goes away.
//
// Commits never overlap and run in the order their values were taken, so the
// last value committed is always the newest one.
type Debouncer[T any] struct {
	delay  time.Duration
	commit func(T)
	clock  Clock

	// commitMu is held from taking a value until its commit returns.
	// Lock order is commitMu then mu; Trigger takes only mu.
	commitMu sync.Mutex

	mu      sync.Mutex
	timer   Timer
	value   T
	pending bool
	gen     uint64 // bumped on every Trigger/Cancel so superseded timers never commit
	stopped bool
}

// Option configures a Debouncer.
type Option func(*options)

type options struct {
	clock Clock
}

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// New creates a debouncer calling commit with the latest triggered value.
func New[T any](delay time.Duration, commit func(T), opts ...Option) *Debouncer[T] {
	o := options{clock: WallClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Debouncer[T]{
		delay:  delay,
		commit: commit,
		clock:  o.clock,
	}
}

// Delay returns the quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	return d.delay
}

// Trigger records v as the latest value and restarts the quiet period.
// Triggers after Stop are ignored.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.stopTimerLocked()
	d.gen++
	gen := d.gen
	d.value = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(gen)
	})
}

// Flush commits the pending value immediately.
// Returns false if nothing was pending.
func (d *Debouncer[T]) Flush() bool {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	if !d.pending || d.stopped {
		d.mu.Unlock()
		return false
	}
	d.stopTimerLocked()
	d.gen++
	v := d.takeLocked()
	d.mu.Unlock()

	d.commit(v)
	return true
}

// Cancel drops the pending value without committing it.
// Returns false if nothing was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Stop cancels any pending value and makes every later call a no-op.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cancelLocked()
	d.stopped = true
}

// Pending reports whether a value is waiting for its quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.commitMu.Lock()
	defer d.commitMu.Unlock()

	d.mu.Lock()
	// A timer that already started running can't be stopped, so compare
	// generations instead of trusting Stop.
	if d.stopped || gen != d.gen || !d.pending {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	v := d.takeLocked()
	d.mu.Unlock()

	d.commit(v)
}

func (d *Debouncer[T]) cancelLocked() bool {
	if !d.pending {
		return false
	}
	d.stopTimerLocked()
	d.gen++
	d.takeLocked()
	return true
}

func (d *Debouncer[T]) takeLocked() T {
	v := d.value
	var zero T
	d.value = zero
	d.pending = false
	return v
}

func (d *Debouncer[T]) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
