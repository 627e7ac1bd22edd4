// Package syncexec drives a single poll-based task to completion on the
// calling goroutine, blocking it until the task produces its final value.
//
// It exists so that code written against an asynchronous, poll-style
// interface (see [Task]) can be invoked from a purely synchronous call site,
// without any ambient scheduler. Exactly one task runs per [Execute] call,
// to completion, on exactly one goroutine. There is no multi-task
// scheduling, no fairness, no timeout, and no cancellation - a task that
// never becomes ready blocks its caller forever, and callers needing a bound
// must build it above this layer.
//
// Suspension is implemented by parking the calling goroutine on a
// single-slot channel, paired with an atomic pending-wake flag. A wake
// delivered before the goroutine parks is never lost: the flag is always
// flipped before the unpark signal is sent, and the flag is re-checked after
// every unpark.
package syncexec
