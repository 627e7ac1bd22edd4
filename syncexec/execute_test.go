package syncexec

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestExecute_immediatelyReady(t *testing.T) {
	t.Parallel()
	var polls int
	v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
		polls++
		return 42, true
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("expected 42, got %d", v)
	}
	if polls != 1 {
		t.Fatalf("expected exactly one poll, got %d", polls)
	}
}

func TestExecute_wokenFromOtherGoroutine(t *testing.T) {
	t.Parallel()
	const pendings = 3
	var polls int
	v, err := Execute[string](TaskFunc[string](func(w *Waker) (string, bool) {
		polls++
		if polls <= pendings {
			waker := w.Clone()
			go func() {
				time.Sleep(5 * time.Millisecond)
				waker.Wake()
			}()
			return "", false
		}
		return "done", true
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "done" {
		t.Fatalf("expected %q, got %q", "done", v)
	}
	if polls != pendings+1 {
		t.Fatalf("expected %d polls, got %d", pendings+1, polls)
	}
}

func TestExecute_reentrantCallFails(t *testing.T) {
	t.Parallel()
	var inner error
	v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
		_, inner = Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
			return 0, true
		}))
		return 7, true
	}))
	if err != nil {
		t.Fatalf("unexpected outer error: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
	if !errors.Is(inner, ErrReentrantExecute) {
		t.Fatalf("expected ErrReentrantExecute, got %v", inner)
	}
}

func TestExecute_allowedAgainAfterReturn(t *testing.T) {
	t.Parallel()
	for i := 0; i < 3; i++ {
		v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
			return i, true
		}))
		if err != nil {
			t.Fatalf("run %d: unexpected error: %v", i, err)
		}
		if v != i {
			t.Fatalf("run %d: expected %d, got %d", i, i, v)
		}
	}
}

// Any number of wakes delivered before the goroutine parks must collapse to
// exactly one re-poll.
func TestExecute_wakesBeforeParkCoalesce(t *testing.T) {
	t.Parallel()
	for _, wakes := range []int{1, 2, 16} {
		var polls int
		v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
			polls++
			if polls == 1 {
				for i := 0; i < wakes; i++ {
					w.WakeByRef()
				}
				return 0, false
			}
			return polls, true
		}))
		if err != nil {
			t.Fatalf("wakes=%d: unexpected error: %v", wakes, err)
		}
		if v != 2 || polls != 2 {
			t.Fatalf("wakes=%d: expected exactly 2 polls, got %d", wakes, polls)
		}
	}
}

// The loop must not busy-spin while waiting: the poll count is the number of
// still-working results plus one, regardless of how long the wake takes.
func TestExecute_noBusySpin(t *testing.T) {
	t.Parallel()
	const delay = 50 * time.Millisecond
	var polls int32
	v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
		if atomic.AddInt32(&polls, 1) == 1 {
			waker := w.Clone()
			go func() {
				time.Sleep(delay)
				waker.Wake()
			}()
			return 0, false
		}
		return 1, true
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected 1, got %d", v)
	}
	if n := atomic.LoadInt32(&polls); n != 2 {
		t.Fatalf("expected 2 polls (pending + final), got %d", n)
	}
}

// Dropping every clone without ever waking must leave the call parked: the
// executor provides no liveness of its own.
func TestExecute_droppedWakersStayParked(t *testing.T) {
	t.Parallel()
	rescue := make(chan *Waker, 1)
	done := make(chan int, 1)
	go func() {
		var polls int
		v, _ := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
			polls++
			if polls == 1 {
				// The task's own clones are dropped without ever
				// being invoked; the test keeps one aside purely
				// to unblock the goroutine afterwards.
				rescue <- w.Clone()
				w.Clone().Drop()
				w.Clone().Drop()
				return 0, false
			}
			return 9, true
		}))
		done <- v
	}()

	waker := <-rescue
	select {
	case v := <-done:
		t.Fatalf("expected the call to stay parked, got %d", v)
	case <-time.After(100 * time.Millisecond):
	}

	// Unblock the parked goroutine so the test doesn't leak it.
	waker.Wake()
	select {
	case v := <-done:
		if v != 9 {
			t.Fatalf("expected 9, got %d", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the rescued call to return")
	}
}

func TestExecute_panicPropagatesAndReleasesGuard(t *testing.T) {
	t.Parallel()
	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Fatalf("expected panic %q, got %v", "boom", r)
			}
		}()
		_, _ = Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
			panic("boom")
		}))
		t.Fatal("expected a panic")
	}()

	// The guard must have been released on the panic path.
	v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
		return 5, true
	}))
	if err != nil {
		t.Fatalf("unexpected error after panic: %v", err)
	}
	if v != 5 {
		t.Fatalf("expected 5, got %d", v)
	}
}

func TestExecute_concurrentWakes(t *testing.T) {
	t.Parallel()
	const workers = 16
	var polls int32
	v, err := Execute[int](TaskFunc[int](func(w *Waker) (int, bool) {
		if atomic.AddInt32(&polls, 1) == 1 {
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				waker := w.Clone()
				wg.Add(1)
				go func() {
					defer wg.Done()
					waker.WakeByRef()
					waker.Drop()
				}()
			}
			wg.Wait()
			return 0, false
		}
		return 3, true
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 3 {
		t.Fatalf("expected 3, got %d", v)
	}
	// All wakes landed before the park decision, so they coalesce.
	if n := atomic.LoadInt32(&polls); n != 2 {
		t.Fatalf("expected 2 polls, got %d", n)
	}
}

func TestExecute_nilTaskPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	_, _ = Execute[int](nil)
}

func TestOffload(t *testing.T) {
	t.Parallel()
	v, err := Execute[int](Offload(func() int {
		time.Sleep(10 * time.Millisecond)
		return 1234
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1234 {
		t.Fatalf("expected 1234, got %d", v)
	}
}

func TestOffload_nilFuncPanics(t *testing.T) {
	t.Parallel()
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	Offload[int](nil)
}
