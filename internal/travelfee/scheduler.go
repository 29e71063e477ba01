package travelfee

import (
	"sync"
	"time"
)

// Scheduler debounces fee computations and discards stale results. Every
// Schedule call supersedes the previous one: the computation only runs
// after a quiet period, and its result is applied only if no newer call
// was made in the meantime. Address edits arrive keystroke by keystroke,
// so without this every partial address would hit the geocoder.
type Scheduler struct {
	delay time.Duration

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// NewScheduler builds a scheduler with the given quiet period.
func NewScheduler(delay time.Duration) *Scheduler {
	return &Scheduler{delay: delay}
}

// Schedule queues compute to run after the quiet period. apply is invoked
// with the result only when this call is still the latest one, both at
// fire time and after compute returns.
func (s *Scheduler) Schedule(compute func() Result, apply func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	seq := s.seq

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() {
		if !s.isLatest(seq) {
			return
		}
		res := compute()
		if !s.isLatest(seq) {
			return
		}
		apply(res)
	})
}

// Cancel drops any pending computation and invalidates in-flight results.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Scheduler) isLatest(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq == seq
}
