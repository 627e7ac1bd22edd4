package syncexec

import (
	"sync/atomic"
)

// A Waker is a cloneable capability that, when invoked, signals the parked
// goroutine of the [Execute] call that created it, telling it to re-poll its
// task. It carries no task-specific state.
//
// Task internals may store a [Waker.Clone] and invoke it later, from any
// goroutine, without knowing anything about the executor. A Waker may
// legitimately outlive the blocking call that created it (e.g. if the task
// leaked the handle into a background callback): waking after the owning
// call has already returned is a safe no-op.
//
// All four operations are safe to call concurrently from unrelated
// goroutines, and none of them blocks.
type Waker struct {
	n        *notifier
	released atomic.Bool
}

func newWaker(n *notifier) *Waker {
	return &Waker{n: n}
}

// Clone returns a new handle aliasing the same underlying notifier. Cloning
// never mutates the wake state.
//
// Cloning a released handle is a programmer error, and will cause a panic.
func (x *Waker) Clone() *Waker {
	if x.released.Load() {
		panic(`syncexec: clone of released waker`)
	}
	x.n.ref()
	return newWaker(x.n)
}

// Wake requests a wake of the owning goroutine, then releases this handle.
// The handle must not be used again, except to call Drop (a no-op).
//
// Waking an already-released handle is a no-op.
func (x *Waker) Wake() {
	x.WakeByRef()
	x.Drop()
}

// WakeByRef requests a wake of the owning goroutine, without releasing the
// handle. Intended for holders that must wake repeatedly while retaining
// ownership, e.g. a recurring timer.
//
// Waking an already-released handle is a no-op.
func (x *Waker) WakeByRef() {
	if !x.released.Load() {
		x.n.requestWake()
	}
}

// Drop releases this handle's reference to the shared wake state. Drop is
// idempotent.
func (x *Waker) Drop() {
	if !x.released.Swap(true) {
		x.n.unref()
	}
}
