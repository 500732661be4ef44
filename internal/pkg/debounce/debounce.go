// Package debounce delays propagation of a rapidly changing value until it has
// been stable for a quiet period.
package debounce

import (
	"sync"
	"time"
)

// DefaultQuiet is the quiet period used when none is configured
const DefaultQuiet = 400 * time.Millisecond

// Value holds the settled copy of an input that changes in bursts. Each Set
// re-arms the timer; only the latest value survives the quiet period.
type Value[T any] struct {
	mu       sync.Mutex
	quiet    time.Duration
	current  T
	timer    *time.Timer
	seq      uint64
	stopped  bool
	onSettle func(T)
}

// New returns a Value starting at initial. onSettle, if non-nil, runs on the
// timer goroutine each time a value settles.
func New[T any](initial T, quiet time.Duration, onSettle func(T)) *Value[T] {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	return &Value[T]{
		quiet:    quiet,
		current:  initial,
		onSettle: onSettle,
	}
}

// Set records a new input value and restarts the quiet period
func (v *Value[T]) Set(next T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.stopped {
		return
	}

	if v.timer != nil {
		v.timer.Stop()
	}

	v.seq++
	seq := v.seq
	v.timer = time.AfterFunc(v.quiet, func() {
		v.settle(seq, next)
	})
}

// settle publishes next unless a newer Set, Reset or Stop happened after the
// timer was armed. Timer.Stop can lose the race with an already-fired timer,
// so the sequence number is the real guard.
func (v *Value[T]) settle(seq uint64, next T) {
	v.mu.Lock()
	if v.stopped || seq != v.seq {
		v.mu.Unlock()
		return
	}
	v.current = next
	v.timer = nil
	cb := v.onSettle
	v.mu.Unlock()

	if cb != nil {
		cb(next)
	}
}

// Value returns the last settled value
func (v *Value[T]) Value() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

// Pending reports whether a value is waiting for its quiet period to end
func (v *Value[T]) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.timer != nil
}

// Reset drops any pending value and sets the settled value without firing onSettle
func (v *Value[T]) Reset(value T) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancelLocked()
	v.current = value
}

// Stop cancels the pending timer. After Stop, Set is a no-op and onSettle never fires.
func (v *Value[T]) Stop() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.cancelLocked()
	v.stopped = true
}

func (v *Value[T]) cancelLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.seq++
}
