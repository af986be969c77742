package drafts

import (
	"sync"
	"time"
)

// Debouncer delays calls to fn until no new value has been scheduled for the
// configured quiet period. Only the newest pending value is ever delivered.
type Debouncer[T any] struct {
	mu      sync.Mutex
	after   time.Duration
	fn      func(T)
	timer   *time.Timer
	pending *T
	gen     uint64
}

// NewDebouncer returns a debouncer calling fn after the given quiet period.
func NewDebouncer[T any](after time.Duration, fn func(T)) *Debouncer[T] {
	if after < 0 {
		after = 0
	}
	return &Debouncer[T]{after: after, fn: fn}
}

// Schedule replaces any pending value with v and restarts the quiet period.
func (d *Debouncer[T]) Schedule(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = &v
	d.timer = time.AfterFunc(d.after, func() { d.fire(gen) })
}

// Cancel drops the pending value without calling fn.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
}

// Flush calls fn immediately with the pending value, if any, and reports
// whether there was one.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	v := *d.pending
	d.stopLocked()
	d.mu.Unlock()

	d.fn(v)
	return true
}

// Pending reports whether a value is waiting for the quiet period to end.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	// A newer Schedule, Cancel or Flush invalidated this timer.
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	v := *d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

func (d *Debouncer[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
	d.gen++
}
