package traceback

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/joeycumines/go-longpoll"
)

type (
	// CollectorConfig models optional configuration for NewCollector.
	CollectorConfig struct {
		// Buffer is the capacity of the internal error channel.
		// Defaults to 64, if 0, or CollectorConfig is nil.
		Buffer int

		// Batch configures how the draining side batches receives,
		// see [longpoll.ChannelConfig]. Nil uses longpoll's defaults.
		Batch *longpoll.ChannelConfig
	}

	// Collector decouples error production from reporting: producers hand
	// errors to Submit without blocking, and a single Run drains them in
	// batches, passing each to [Report]. Intended for high-volume
	// producers that must not stall on reporting IO.
	Collector struct {
		batch     *longpoll.ChannelConfig
		ch        chan *Error
		closeOnce sync.Once
	}
)

// NewCollector initializes a Collector. The cfg parameter may be nil, in
// which case the documented defaults are used.
func NewCollector(cfg *CollectorConfig) *Collector {
	x := Collector{}
	if cfg != nil {
		x.batch = cfg.Batch
	}
	buffer := 64
	if cfg != nil && cfg.Buffer != 0 {
		buffer = cfg.Buffer
	}
	x.ch = make(chan *Error, buffer)
	return &x
}

// Submit offers err to the collector without blocking, returning false if
// the buffer is full (the error is dropped, and logged at debug level).
// Submit must not be called after Close.
func (x *Collector) Submit(err *Error) bool {
	if err == nil {
		return false
	}
	select {
	case x.ch <- err:
		return true
	default:
		logger().Debug().
			Str(`message`, err.Message).
			Log(`traceback: collector buffer full, error dropped`)
		return false
	}
}

// Close stops the collector: Run drains any buffered errors, then returns.
// Close is idempotent.
func (x *Collector) Close() {
	x.closeOnce.Do(func() { close(x.ch) })
}

// Run drains the collector, reporting batches of errors, until ctx is
// canceled or the collector is closed and fully drained (in which case it
// returns nil).
func (x *Collector) Run(ctx context.Context) error {
	for {
		err := longpoll.Channel(ctx, x.batch, x.ch, func(value *Error) error {
			Report(value)
			return nil
		})
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
