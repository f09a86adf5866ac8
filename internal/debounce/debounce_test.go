package debounce

import (
	"sync"
	"testing"
	"time"
)

type harness struct {
	mu    sync.Mutex
	sched *FakeScheduler
	timer *Timer
	fired int
}

func newHarness(delay time.Duration) *harness {
	h := &harness{sched: NewFakeScheduler()}
	h.timer = New(&h.mu, h.sched, delay, func() { h.fired++ })
	return h
}

func (h *harness) reschedule() {
	h.mu.Lock()
	h.timer.Reschedule()
	h.mu.Unlock()
}

func (h *harness) cancel() {
	h.mu.Lock()
	h.timer.Cancel()
	h.mu.Unlock()
}

func (h *harness) pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.timer.Pending()
}

func TestTimerFiresAfterDelay(t *testing.T) {
	h := newHarness(600 * time.Millisecond)
	h.reschedule()

	if !h.pending() {
		t.Fatal("expected pending after Reschedule")
	}

	h.sched.Advance(599 * time.Millisecond)
	if h.fired != 0 {
		t.Fatalf("fired early: %d", h.fired)
	}

	h.sched.Advance(time.Millisecond)
	if h.fired != 1 {
		t.Fatalf("expected 1 fire, got %d", h.fired)
	}
	if h.pending() {
		t.Error("should be idle after firing")
	}

	h.sched.Advance(10 * time.Second)
	if h.fired != 1 {
		t.Errorf("single-shot fired again: %d", h.fired)
	}
}

func TestTimerRescheduleReplaces(t *testing.T) {
	h := newHarness(600 * time.Millisecond)

	h.reschedule()
	h.sched.Advance(400 * time.Millisecond)
	h.reschedule()
	h.sched.Advance(400 * time.Millisecond)
	h.reschedule()

	if n := h.sched.Outstanding(); n != 1 {
		t.Fatalf("expected 1 outstanding schedule, got %d", n)
	}

	h.sched.Advance(599 * time.Millisecond)
	if h.fired != 0 {
		t.Fatalf("fired before the latest deadline: %d", h.fired)
	}
	h.sched.Advance(time.Millisecond)
	if h.fired != 1 {
		t.Errorf("expected exactly 1 fire, got %d", h.fired)
	}
}

func TestTimerCancel(t *testing.T) {
	h := newHarness(600 * time.Millisecond)

	// Cancel on an idle timer is a no-op.
	h.cancel()
	h.cancel()

	h.reschedule()
	h.cancel()
	if h.pending() {
		t.Error("should be idle after Cancel")
	}
	h.sched.Advance(time.Second)
	if h.fired != 0 {
		t.Errorf("canceled timer fired %d times", h.fired)
	}

	// Cancel after firing is also safe.
	h.reschedule()
	h.sched.Advance(time.Second)
	h.cancel()
	if h.fired != 1 {
		t.Errorf("expected 1 fire, got %d", h.fired)
	}
}

// staleScheduler never honours Stop, modelling a callback that already
// started running when Cancel was called.
type staleScheduler struct {
	fns []func()
}

type noStop struct{}

func (noStop) Stop() bool { return false }

func (s *staleScheduler) AfterFunc(_ time.Duration, f func()) Stopper {
	s.fns = append(s.fns, f)
	return noStop{}
}

func TestTimerIgnoresStaleCallback(t *testing.T) {
	var mu sync.Mutex
	sched := &staleScheduler{}
	fired := 0
	timer := New(&mu, sched, time.Second, func() { fired++ })

	mu.Lock()
	timer.Reschedule()
	timer.Reschedule()
	mu.Unlock()

	// First callback belongs to a replaced schedule.
	sched.fns[0]()
	if fired != 0 {
		t.Fatalf("stale callback fired: %d", fired)
	}

	mu.Lock()
	timer.Cancel()
	mu.Unlock()

	// Second callback was canceled after it could no longer be stopped.
	sched.fns[1]()
	if fired != 0 {
		t.Errorf("canceled callback fired: %d", fired)
	}
}

func TestTimerDelay(t *testing.T) {
	h := newHarness(250 * time.Millisecond)
	if h.timer.Delay() != 250*time.Millisecond {
		t.Errorf("got %v, want 250ms", h.timer.Delay())
	}
}

func TestRealScheduler(t *testing.T) {
	var mu sync.Mutex
	done := make(chan struct{})
	timer := New(&mu, RealScheduler{}, 5*time.Millisecond, func() { close(done) })

	mu.Lock()
	timer.Reschedule()
	mu.Unlock()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real timer did not fire")
	}
}
