package syncexec

// Execute drives task to completion on the calling goroutine, blocking it
// until the task produces its final value.
//
// The task is polled with a [Waker] bound to this call. While the task
// reports still-working, the goroutine parks between polls; any invocation
// of the waker (or one of its clones, from any goroutine) unparks it for a
// re-poll. Wakes that arrive before the goroutine actually parks are
// observed, never lost, and multiple wakes between polls coalesce into a
// single re-poll.
//
// Execute returns ErrReentrantExecute, without polling, if called from a
// goroutine that is already inside an Execute call. It provides no timeout
// and no cancellation. A panic raised by the task is not caught; it
// propagates to the caller exactly as a direct synchronous panic would.
//
// Providing a nil task will cause a panic.
func Execute[T any](task Task[T]) (T, error) {
	var zero T
	if task == nil {
		panic(`syncexec: nil task`)
	}

	exit, err := enter()
	if err != nil {
		return zero, err
	}
	defer exit()

	n := newNotifier()
	w := newWaker(n)
	defer w.Drop()

	for {
		if v, done := task.Poll(w); done {
			return v, nil
		}
		// A wake may already have arrived during the poll itself, e.g.
		// the task handed a clone to a worker that fired immediately.
		// Park only once the pending flag is observed clear, and
		// re-check after every unpark: the wake slot can hold a stale
		// token from an earlier, already-consumed wake.
		for !n.consumeWake() {
			n.park()
		}
	}
}
