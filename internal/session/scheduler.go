package session

import (
	"sync"
	"time"
)

// RefreshScheduler is a single-slot cancellable timer. Arming it always
// stops any previously armed timer first, so one session never has two
// live timers. It must be cancelled on logout and on teardown, otherwise
// a stale timer could fire against a session that has already ended.
type RefreshScheduler struct {
	mu    sync.Mutex
	timer *time.Timer
	fire  func()
}

func NewRefreshScheduler(fire func()) *RefreshScheduler {
	return &RefreshScheduler{fire: fire}
}

// Arm schedules the callback after d, replacing any pending timer. A
// non-positive d fires as soon as possible.
func (s *RefreshScheduler) Arm(d time.Duration) {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.mu.Lock()
		// a replacement may already be armed; only clear our own handle
		if s.timer == t {
			s.timer = nil
		}
		s.mu.Unlock()

		s.fire()
	})
	s.timer = t
}

// Cancel stops the pending timer, if any. Idempotent.
func (s *RefreshScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Armed reports whether a timer is currently pending.
func (s *RefreshScheduler) Armed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.timer != nil
}
