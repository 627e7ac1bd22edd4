// Package traceback implements an error type carrying a parent chain,
// call-site information, and arbitrary structured data, together with a
// pluggable reporting mechanism.
//
// Errors are built at the point of failure with [New], [Newf], or [Wrap],
// each of which captures the caller's file and line. An error may wrap a
// parent error, forming a chain that renders oldest-first in Error(), and
// that participates in the standard errors.Is / errors.As traversal via
// Unwrap.
//
// Reporting is explicit: [Report] hands an unhandled error to the globally
// registered callback. The callback may be synchronous, or asynchronous (a
// callback producing a [syncexec.Task]), in which case Report drives it to
// completion on the calling goroutine via [syncexec.Execute]. When no
// callback is registered, [WarnDevs] persists the error as a JSON file under
// the errors/ directory. Whether reporting should instead be handed off to
// an already-running scheduler is the caller's policy: register a
// synchronous callback that performs the handoff.
package traceback
