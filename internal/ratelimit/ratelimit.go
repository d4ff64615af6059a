package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter paces consecutive search page requests.
type Limiter interface {
	Wait(ctx context.Context) error
	SetDelay(min, max time.Duration)
}

// Feedback is implemented by limiters that adjust their delay to the
// outcome of a fetch.
type Feedback interface {
	RecordSuccess()
	RecordError()
}

type SimpleLimiter struct {
	mu         sync.Mutex
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	now        func() time.Time
	after      func(time.Duration) <-chan time.Time
}

func NewSimpleLimiter(minDelay, maxDelay time.Duration) *SimpleLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &SimpleLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
		now:      time.Now,
		after:    time.After,
	}
}

// Wait blocks until the pause since the previous call has elapsed. The first
// call returns immediately.
func (l *SimpleLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.lastAction.IsZero() {
		elapsed := l.now().Sub(l.lastAction)
		if delay := l.delay(); elapsed < delay {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-l.after(delay - elapsed):
			}
		}
	}

	l.lastAction = l.now()
	return nil
}

func (l *SimpleLimiter) SetDelay(min, max time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if max < min {
		max = min
	}
	l.minDelay = min
	l.maxDelay = max
}

// Delays returns the current bounds.
func (l *SimpleLimiter) Delays() (time.Duration, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.minDelay, l.maxDelay
}

func (l *SimpleLimiter) delay() time.Duration {
	if l.maxDelay <= l.minDelay {
		return l.minDelay
	}
	return l.minDelay + time.Duration(rand.Int63n(int64(l.maxDelay-l.minDelay)))
}

// AdaptiveLimiter backs off after repeated fetch errors and slowly speeds
// back up after a run of successes. The minimum delay never drops below
// floor.
type AdaptiveLimiter struct {
	*SimpleLimiter
	floor         time.Duration
	errorCount    int
	successCount  int
	maxErrorCount int
	backoffFactor float64
}

func NewAdaptiveLimiter(minDelay, maxDelay time.Duration) *AdaptiveLimiter {
	return &AdaptiveLimiter{
		SimpleLimiter: NewSimpleLimiter(minDelay, maxDelay),
		floor:         minDelay,
		maxErrorCount: 3,
		backoffFactor: 1.5,
	}
}

func (a *AdaptiveLimiter) RecordSuccess() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.successCount++
	a.errorCount = 0

	if a.successCount > 5 {
		newMin := time.Duration(float64(a.minDelay) * 0.9)
		if newMin < a.floor {
			newMin = a.floor
		}
		a.minDelay = newMin
		a.successCount = 0
	}
}

func (a *AdaptiveLimiter) RecordError() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.errorCount++
	a.successCount = 0

	if a.errorCount >= a.maxErrorCount {
		a.minDelay = min(time.Duration(float64(a.minDelay)*a.backoffFactor), 60*time.Second)
		a.maxDelay = min(time.Duration(float64(a.maxDelay)*a.backoffFactor), 120*time.Second)
		if a.maxDelay < a.minDelay {
			a.maxDelay = a.minDelay
		}
		a.errorCount = 0
	}
}
