package mock

import (
	"sync"
	"time"
)

// scheduler runs one deferred callback per gateway order ref. A pending
// callback can be cancelled up until it fires; firing and cancellation
// race safely because the timer entry is removed under the lock.
type scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func newScheduler() *scheduler {
	return &scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arranges for fn to run after delay, keyed by ref. Scheduling
// the same ref twice replaces the earlier timer.
func (s *scheduler) Schedule(ref string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.timers[ref]; ok {
		old.Stop()
	}

	s.timers[ref] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, ref)
		s.mu.Unlock()
		fn()
	})
}

// Cancel stops a pending callback. It reports whether a timer was still
// pending.
func (s *scheduler) Cancel(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.timers[ref]
	if !ok {
		return false
	}
	delete(s.timers, ref)
	return timer.Stop()
}

// Stop cancels every pending callback.
func (s *scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ref, timer := range s.timers {
		timer.Stop()
		delete(s.timers, ref)
	}
}

// Pending returns the number of scheduled callbacks.
func (s *scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
