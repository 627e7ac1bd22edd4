package traceback

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/mvrheden/go-syncutil/syncexec"
)

type (
	// Callback handles a reported error synchronously.
	Callback interface {
		Call(err *Error)
	}

	// The CallbackFunc type is an adapter to allow the use of ordinary
	// functions as a [Callback].
	CallbackFunc func(err *Error)

	// AsyncCallback handles a reported error asynchronously, as a
	// [syncexec.Task] that [Report] drives to completion on the calling
	// goroutine.
	AsyncCallback interface {
		Call(err *Error) syncexec.Task[struct{}]
	}

	// The AsyncCallbackFunc type is an adapter to allow the use of
	// ordinary functions as an [AsyncCallback].
	AsyncCallbackFunc func(err *Error) syncexec.Task[struct{}]
)

// Call implements [Callback] by calling f.
func (f CallbackFunc) Call(err *Error) { f(err) }

// Call implements [AsyncCallback] by calling f.
func (f AsyncCallbackFunc) Call(err *Error) syncexec.Task[struct{}] { return f(err) }

// registry holds the global reporting configuration. At most one of
// syncCallback and asyncCallback is non-nil.
var registry struct {
	sync.RWMutex
	syncCallback  Callback
	asyncCallback AsyncCallback
	limiter       *catrate.Limiter
}

// SetCallback registers a synchronous reporting callback, replacing any
// previously registered callback.
func SetCallback(callback Callback) {
	registry.Lock()
	defer registry.Unlock()
	registry.syncCallback = callback
	registry.asyncCallback = nil
}

// SetAsyncCallback registers an asynchronous reporting callback, replacing
// any previously registered callback.
func SetAsyncCallback(callback AsyncCallback) {
	registry.Lock()
	defer registry.Unlock()
	registry.syncCallback = nil
	registry.asyncCallback = callback
}

// ClearCallback removes any registered callback, restoring the [WarnDevs]
// default.
func ClearCallback() {
	registry.Lock()
	defer registry.Unlock()
	registry.syncCallback = nil
	registry.asyncCallback = nil
}

// Init registers [WarnDevs] as the reporting callback. Calling it is
// optional, as Report falls back to WarnDevs when nothing is registered.
func Init() {
	SetAsyncCallback(AsyncCallbackFunc(WarnDevs))
}

// SetRateLimit bounds how often errors from the same call site (file:line)
// are reported, e.g. map[time.Duration]int{time.Minute: 10}. Suppressed
// reports are still marked handled, and are logged at debug level. A nil
// map removes the limit.
func SetRateLimit(rates map[time.Duration]int) {
	registry.Lock()
	defer registry.Unlock()
	if rates == nil {
		registry.limiter = nil
	} else {
		registry.limiter = catrate.NewLimiter(rates)
	}
}

// Report dispatches err to the registered reporting callback, marking it
// handled. Nil, already-handled, and parent errors are ignored. An
// asynchronous callback is driven to completion with [syncexec.Execute]; if
// Report is itself invoked from inside an Execute call, the asynchronous
// dispatch would deadlock, so it is dropped and logged instead (register a
// synchronous callback that hands off to your scheduler, if you need to
// report from task code).
func Report(err *Error) {
	if err == nil || err.IsHandled || err.IsParent {
		return
	}
	err.IsHandled = true

	registry.RLock()
	syncCallback, asyncCallback, limiter := registry.syncCallback, registry.asyncCallback, registry.limiter
	registry.RUnlock()

	if _, ok := limiter.Allow(err.File + `:` + strconv.Itoa(err.Line)); !ok {
		logger().Debug().
			Str(`file`, err.File).
			Int(`line`, err.Line).
			Str(`message`, err.Message).
			Log(`traceback: report suppressed by rate limit`)
		return
	}

	logger().Warning().
		Str(`id`, err.ID.String()).
		Str(`file`, err.File).
		Int(`line`, err.Line).
		Str(`message`, err.Message).
		Log(`traceback: error reported`)

	switch {
	case syncCallback != nil:
		syncCallback.Call(err)
	case asyncCallback != nil:
		dispatch(asyncCallback.Call(err))
	default:
		dispatch(WarnDevs(err))
	}
}

func dispatch(task syncexec.Task[struct{}]) {
	if _, err := syncexec.Execute(task); err != nil {
		logger().Err().
			Err(err).
			Log(`traceback: async report dropped`)
	}
}

// loggerRegistry holds the package's structured logger. Logging is an
// infrastructure cross-cutting concern, shared by all reporting paths, so a
// package-level registration mirrors the callback registry above.
var loggerRegistry struct {
	sync.RWMutex
	logger *logiface.Logger[logiface.Event]
	once   sync.Once
}

// SetLogger replaces the package's structured logger. A nil logger disables
// logging entirely (the logiface API is nil-safe).
func SetLogger(l *logiface.Logger[logiface.Event]) {
	loggerRegistry.once.Do(func() {})
	loggerRegistry.Lock()
	defer loggerRegistry.Unlock()
	loggerRegistry.logger = l
}

func logger() *logiface.Logger[logiface.Event] {
	loggerRegistry.once.Do(func() {
		loggerRegistry.Lock()
		defer loggerRegistry.Unlock()
		loggerRegistry.logger = stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(os.Stderr)),
			stumpy.L.WithLevel(logiface.LevelWarning),
		).Logger()
	})
	loggerRegistry.RLock()
	defer loggerRegistry.RUnlock()
	return loggerRegistry.logger
}
