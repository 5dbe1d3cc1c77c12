package pagedlist

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// throttle admits the first call of each window and drops the rest. A
// single-token bucket refilled once per window gives exactly that; nothing is
// queued or replayed.
type throttle struct {
	mu       sync.Mutex
	interval time.Duration
	limiter  *rate.Limiter
	now      func() time.Time
}

func newThrottle(interval time.Duration, now func() time.Time) *throttle {
	t := &throttle{interval: interval, now: now}
	t.reset()
	return t
}

func (t *throttle) allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.limiter.AllowN(t.now(), 1)
}

func (t *throttle) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.interval <= 0 {
		t.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	t.limiter = rate.NewLimiter(rate.Every(t.interval), 1)
}
