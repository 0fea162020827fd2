// Package busy counts in-flight operations so a front-end can show a single
// loading indicator for overlapping work.
package busy

import "sync/atomic"

// Tracker is a reference count of running operations. The zero value is ready to use.
type Tracker struct {
	n atomic.Int64
}

// Begin marks one operation as started and returns the func that ends it.
// Calling the returned func more than once has no further effect.
func (t *Tracker) Begin() (end func()) {
	t.n.Add(1)
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			t.n.Add(-1)
		}
	}
}

// TryBegin starts an operation only when none is running. ok is false, and
// end is nil, when the tracker was already busy.
func (t *Tracker) TryBegin() (end func(), ok bool) {
	if !t.n.CompareAndSwap(0, 1) {
		return nil, false
	}
	var done atomic.Bool
	return func() {
		if done.CompareAndSwap(false, true) {
			t.n.Add(-1)
		}
	}, true
}

// Busy reports whether any operation is running.
func (t *Tracker) Busy() bool {
	return t.n.Load() > 0
}

// Count returns the number of running operations.
func (t *Tracker) Count() int {
	return int(t.n.Load())
}
