package ratelimit

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Result is the outcome of a single limiter check.
type Result struct {
	Allowed   bool  `json:"allowed"`
	Remaining int   `json:"remaining"`
	ResetMs   int64 `json:"resetMs"`
}

// Limiter is a sliding-window request counter keyed by an arbitrary string
// (user id or client IP). State is process-local and in-memory only: it is
// neither durable nor shared between instances, which is acceptable for a
// single small-scale deployment. A multi-instance setup would need a shared
// store instead.
type Limiter struct {
	mutex       sync.Mutex
	hits        map[string][]time.Time
	maxRequests int
	window      time.Duration

	// injectable clock for unit testing
	now func() time.Time
}

func New(maxRequests int, window time.Duration) *Limiter {
	return &Limiter{
		hits:        make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
	}
}

// NewWithClock is like New, with an injected clock.
func NewWithClock(maxRequests int, window time.Duration, now func() time.Time) *Limiter {
	l := New(maxRequests, window)
	l.now = now
	return l
}

// Check reports whether a request for key is allowed right now, and if so
// records it. The read-then-append is atomic with respect to other calls.
func (l *Limiter) Check(key string) Result {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	recent := l.hits[key][:0:0]
	for _, ts := range l.hits[key] {
		if ts.After(windowStart) {
			recent = append(recent, ts)
		}
	}

	if len(recent) >= l.maxRequests {
		l.hits[key] = recent
		return Result{
			Allowed:   false,
			Remaining: 0,
			ResetMs:   recent[0].Add(l.window).Sub(now).Milliseconds(),
		}
	}

	recent = append(recent, now)
	l.hits[key] = recent

	return Result{
		Allowed:   true,
		Remaining: l.maxRequests - len(recent),
		ResetMs:   recent[0].Add(l.window).Sub(now).Milliseconds(),
	}
}

// StartCleanup periodically purges keys with no timestamps within the
// window, to bound memory. Runs until ctx is done.
func (l *Limiter) StartCleanup(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debugln("rate limiter cleanup stopped")
				return
			case <-ticker.C:
				purged := l.purgeStale()
				if purged > 0 {
					log.Tracef("rate limiter cleanup: %d stale keys purged", purged)
				}
			}
		}
	}()
}

func (l *Limiter) purgeStale() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	windowStart := l.now().Add(-l.window)
	purged := 0
	for key, timestamps := range l.hits {
		stale := true
		for _, ts := range timestamps {
			if ts.After(windowStart) {
				stale = false
				break
			}
		}
		if stale {
			delete(l.hits, key)
			purged++
		}
	}
	return purged
}

// Size returns the number of tracked keys.
func (l *Limiter) Size() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.hits)
}
