package syncexec

import (
	"sync/atomic"
)

// notifier carries the wake signal between arbitrary goroutines and the one
// parked goroutine. Exactly one notifier exists per active Execute call; it
// is shared, by reference, between the poll loop and every outstanding
// Waker handle.
type notifier struct {
	// wake is the park/unpark primitive: a single-slot channel, so an
	// unpark delivered before the corresponding park is not lost.
	wake chan struct{}

	// pending coalesces wake requests between consumptions.
	pending atomic.Bool

	// refs counts the poll loop's handle plus every outstanding Waker
	// clone.
	refs atomic.Int64
}

func newNotifier() *notifier {
	n := &notifier{wake: make(chan struct{}, 1)}
	n.refs.Store(1)
	return n
}

// requestWake flags a pending wake, and unparks the owning goroutine if this
// call was the one that transitioned the flag. Multiple wakes before the
// next consumeWake collapse to a single unpark. Never blocks; callable
// concurrently from any number of goroutines.
func (n *notifier) requestWake() {
	if !n.pending.Swap(true) {
		select {
		case n.wake <- struct{}{}:
		default:
		}
	}
}

// consumeWake clears the pending flag, reporting whether a wake had arrived
// since the last consumption. Called only by the poll loop, on the owning
// goroutine.
func (n *notifier) consumeWake() bool {
	return n.pending.Swap(false)
}

// park blocks the calling goroutine until unparked. The wake slot may hold a
// stale token from an already-consumed wake, so callers must treat any
// return as potentially spurious, and re-check consumeWake.
func (n *notifier) park() {
	<-n.wake
}

func (n *notifier) ref() {
	n.refs.Add(1)
}

func (n *notifier) unref() {
	if n.refs.Add(-1) < 0 {
		panic(`syncexec: notifier reference count underflow`)
	}
}
