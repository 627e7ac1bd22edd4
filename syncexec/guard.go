package syncexec

import (
	"errors"
	"runtime"
	"sync"
)

// ErrReentrantExecute is returned when Execute is called from a goroutine
// that is already inside an Execute call. A nested run would never observe
// the outer loop's wakes, so it is rejected early instead of deadlocking.
var ErrReentrantExecute = errors.New(`syncexec: cannot call Execute from within an Execute call`)

// active tracks the goroutines currently inside an Execute call, keyed by
// goroutine ID.
var active sync.Map

// enter marks the current goroutine as inside a blocking call, returning
// ErrReentrantExecute if it already is. The returned exit function must be
// deferred, so the mark is cleared on every path out of the poll loop,
// including a task panic.
func enter() (exit func(), err error) {
	gid := getGoroutineID()
	if _, loaded := active.LoadOrStore(gid, struct{}{}); loaded {
		return nil, ErrReentrantExecute
	}
	return func() { active.Delete(gid) }, nil
}

// getGoroutineID returns the current goroutine's ID.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
