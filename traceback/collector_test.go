package traceback

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_drainsAllSubmittedErrors(t *testing.T) {
	t.Cleanup(ClearCallback)
	var mu sync.Mutex
	var got []*Error
	SetCallback(CallbackFunc(func(err *Error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, err)
	}))

	c := NewCollector(nil)
	const n = 20
	for i := 0; i < n; i++ {
		require.True(t, c.Submit(New(`batched`)))
	}
	c.Close()

	require.NoError(t, c.Run(context.Background()))
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, got, n)
}

func TestCollector_runStopsOnContextCancel(t *testing.T) {
	c := NewCollector(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal(`timed out waiting for Run to observe cancellation`)
	}
}

func TestCollector_submitDropsWhenFull(t *testing.T) {
	c := NewCollector(&CollectorConfig{Buffer: 1})
	assert.True(t, c.Submit(New(`first`)))
	assert.False(t, c.Submit(New(`second`)), `buffer full`)
	assert.False(t, c.Submit(nil))
}

func TestCollector_closeIsIdempotent(t *testing.T) {
	c := NewCollector(nil)
	c.Close()
	c.Close()
	require.NoError(t, c.Run(context.Background()))
}
