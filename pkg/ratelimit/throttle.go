package ratelimit

import "sync/atomic"

// MinConcurrency is the lowest ceiling a rate-limit signal can push to.
const MinConcurrency = 3

// AdaptiveBackoffFactor stretches retry delays while adaptive throttling is on.
const AdaptiveBackoffFactor = 1.5

// Throttle is the shared concurrency ceiling of one enrichment run. The pool
// reads Limit before every claim; rate-limit signals only ever lower it.
type Throttle struct {
	enabled    bool
	limit      atomic.Int64
	reductions atomic.Int64
}

// NewThrottle creates a throttle with the given starting ceiling
func NewThrottle(initial int, enabled bool) *Throttle {
	t := &Throttle{enabled: enabled}
	t.Reset(initial)
	return t
}

// Enabled reports whether rate-limit signals lower the ceiling
func (t *Throttle) Enabled() bool {
	return t.enabled
}

// Limit returns the current ceiling
func (t *Throttle) Limit() int {
	return int(t.limit.Load())
}

// Reset re-initialises the ceiling and clears the reduction count
func (t *Throttle) Reset(initial int) {
	if initial < 1 {
		initial = 1
	}
	t.limit.Store(int64(initial))
	t.reductions.Store(0)
}

// OnRateLimited halves the ceiling (never below MinConcurrency) when enabled
// and the ceiling is above the floor. It returns the ceiling after the signal.
func (t *Throttle) OnRateLimited() int {
	if !t.enabled {
		return t.Limit()
	}
	for {
		cur := t.limit.Load()
		if cur <= MinConcurrency {
			return int(cur)
		}
		next := cur / 2
		if next < MinConcurrency {
			next = MinConcurrency
		}
		if t.limit.CompareAndSwap(cur, next) {
			t.reductions.Add(1)
			return int(next)
		}
	}
}

// BackoffFactor is the multiplier applied to retry delays
func (t *Throttle) BackoffFactor() float64 {
	if t.enabled {
		return AdaptiveBackoffFactor
	}
	return 1
}

// Reductions returns how many times the ceiling was lowered since Reset
func (t *Throttle) Reductions() int {
	return int(t.reductions.Load())
}
