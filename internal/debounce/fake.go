package debounce

import (
	"sort"
	"sync"
	"time"
)

// FakeScheduler is a manually advanced clock for tests.
// Callbacks run synchronously inside Advance, in deadline order.
type FakeScheduler struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	entries []*fakeEntry

	// Armed counts every AfterFunc call.
	Armed int
}

type fakeEntry struct {
	at      time.Duration
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// Stop implements Stopper.
func (e *fakeEntry) Stop() bool {
	if e.stopped || e.fired {
		return false
	}
	e.stopped = true
	return true
}

// NewFakeScheduler creates a FakeScheduler at time zero.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{}
}

// AfterFunc implements Scheduler.
func (s *FakeScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.Armed++
	e := &fakeEntry{at: s.now + d, seq: s.seq, f: f}
	s.entries = append(s.entries, e)
	return e
}

// Advance moves the clock forward by d and runs every callback that falls due.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*fakeEntry
	keep := s.entries[:0]
	for _, e := range s.entries {
		switch {
		case e.stopped:
		case e.at <= s.now:
			due = append(due, e)
		default:
			keep = append(keep, e)
		}
	}
	s.entries = keep
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].at != due[j].at {
			return due[i].at < due[j].at
		}
		return due[i].seq < due[j].seq
	})
	for _, e := range due {
		// A callback may stop a later entry in the same batch.
		if e.stopped {
			continue
		}
		e.fired = true
		e.f()
	}
}

// Outstanding returns the number of armed, unstopped callbacks.
func (s *FakeScheduler) Outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if !e.stopped {
			n++
		}
	}
	return n
}
