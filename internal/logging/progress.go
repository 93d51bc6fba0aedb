package logging

import (
	"sync"
	"time"
)

// ProgressThrottle decides which progress updates of a long encode are worth
// a log line. An update passes when it reaches the next step boundary, when
// it is the first or the completing (100%) update, or when interval has
// passed since the last logged update and the percentage moved.
type ProgressThrottle struct {
	step     float64
	interval time.Duration
	now      func() time.Time

	mu       sync.Mutex
	next     float64
	last     float64
	lastAt   time.Time
	started  bool
	finished bool
}

// NewProgressThrottle logs every step percent (10 when step <= 0) and at least
// once per interval while progress moves. interval <= 0 disables the time rule.
func NewProgressThrottle(step float64, interval time.Duration) *ProgressThrottle {
	if step <= 0 {
		step = 10
	}
	return &ProgressThrottle{step: step, interval: interval, now: time.Now}
}

// Allow reports whether an update at percent should be logged. Negative
// values mean unknown and never pass.
func (t *ProgressThrottle) Allow(percent float64) bool {
	if t == nil {
		return true
	}
	if percent < 0 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	pass := false
	switch {
	case t.finished:
		return false
	case !t.started:
		pass = true
	case percent >= 100:
		pass = true
	case percent >= t.next:
		pass = true
	case t.interval > 0 && percent > t.last && now.Sub(t.lastAt) >= t.interval:
		pass = true
	}
	if !pass {
		return false
	}
	t.started = true
	t.finished = percent >= 100
	t.last = percent
	t.lastAt = now
	for t.next <= percent {
		t.next += t.step
	}
	return true
}
