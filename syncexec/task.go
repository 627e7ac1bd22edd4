package syncexec

// A Task is an opaque unit of asynchronous work, pollable any number of
// times, producing its final value exactly once.
//
// Poll attempts to resolve the task to its final value. It returns
// (value, true) when the task has finished, and (zero, false) while the task
// is still working. Once a task has finished, callers should not poll it
// again.
//
// Poll must not block. Work that cannot complete immediately should be
// offloaded (e.g. via [Offload], or a goroutine of the implementation's
// own), retaining a [Waker.Clone] of the provided waker, and invoking it
// once the task can make progress. Only the waker from the most recent Poll
// need be retained.
//
// The executor holds the task value for the duration of the blocking call.
// Tasks that keep internal references to their own state must be
// pointer-shaped (a pointer receiver, or a closure over heap state), so that
// those references remain stable across polls.
type Task[T any] interface {
	Poll(w *Waker) (T, bool)
}

// The TaskFunc type is an adapter to allow the use of ordinary functions as
// a [Task].
type TaskFunc[T any] func(w *Waker) (T, bool)

// Poll implements [Task] by calling f.
func (f TaskFunc[T]) Poll(w *Waker) (T, bool) { return f(w) }

// Offload adapts a blocking function into a [Task], bridging conventional
// synchronous work into the poll model.
//
// The first Poll clones the waker and starts fn on a new goroutine. The
// task reports still-working until fn returns, at which point the stored
// waker is invoked (from the worker goroutine), and the next Poll returns
// fn's result.
//
// Providing a nil fn will cause a panic.
func Offload[T any](fn func() T) Task[T] {
	if fn == nil {
		panic(`syncexec: nil func`)
	}
	return &offloadTask[T]{fn: fn}
}

type offloadTask[T any] struct {
	fn      func() T
	done    chan struct{}
	result  T
	started bool
}

func (x *offloadTask[T]) Poll(w *Waker) (T, bool) {
	if !x.started {
		x.started = true
		x.done = make(chan struct{})
		waker := w.Clone()
		go func() {
			x.result = x.fn()
			close(x.done)
			waker.Wake()
		}()
	}
	select {
	case <-x.done:
		return x.result, true
	default:
		var zero T
		return zero, false
	}
}
