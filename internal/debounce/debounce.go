// Package debounce provides a single-shot deferred action that can be
// rescheduled or canceled at any time. At most one schedule is outstanding.
package debounce

import (
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. *time.Timer satisfies it.
type Stopper interface {
	Stop() bool
}

// Scheduler runs f once after d on a background goroutine.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Stopper
}

// RealScheduler schedules with time.AfterFunc.
type RealScheduler struct{}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

// Timer is a reschedulable single-shot timer.
//
// The owner's lock guards the timer: Reschedule, Cancel and Pending must be
// called with it held, and fn runs with it held. A callback that lost a race
// with Cancel or Reschedule observes a stale generation and does nothing, so
// cancellation is synchronous from the owner's point of view.
type Timer struct {
	mu      sync.Locker
	sched   Scheduler
	delay   time.Duration
	fn      func()
	gen     uint64
	pending Stopper
}

// New creates an idle timer that calls fn, under mu, delay after each Reschedule.
func New(mu sync.Locker, sched Scheduler, delay time.Duration, fn func()) *Timer {
	return &Timer{
		mu:    mu,
		sched: sched,
		delay: delay,
		fn:    fn,
	}
}

// Reschedule cancels any outstanding schedule and arms a fresh one.
func (t *Timer) Reschedule() {
	t.Cancel()
	gen := t.gen
	t.pending = t.sched.AfterFunc(t.delay, func() { t.fire(gen) })
}

// Cancel drops the outstanding schedule, if any. Safe in every state.
func (t *Timer) Cancel() {
	if t.pending != nil {
		t.pending.Stop()
		t.pending = nil
	}
	t.gen++
}

// Pending reports whether a schedule is armed and has not yet fired.
func (t *Timer) Pending() bool {
	return t.pending != nil
}

// Delay returns the configured delay.
func (t *Timer) Delay() time.Duration {
	return t.delay
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if gen != t.gen || t.pending == nil {
		return
	}
	t.pending = nil
	t.fn()
}
