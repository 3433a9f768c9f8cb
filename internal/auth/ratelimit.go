package auth

import (
	"sync"
	"time"
)

const (
	minuteWindow = time.Minute
	hourWindow   = time.Hour
)

// Limiter is a sliding-window counter guarding the login and password-reset
// endpoints. A request is admitted only while both the per-minute and the
// per-hour limits hold for its identifier (client IP, or IP plus route).
//
// State is per process behind a single mutex. Entries whose newest hit is
// older than the largest window are evicted lazily on access.
type Limiter struct {
	mu        sync.Mutex
	perMinute int
	perHour   int
	hits      map[string][]time.Time
	lastSweep time.Time
	now       func() time.Time
}

// LimiterOption configures a Limiter.
type LimiterOption func(*Limiter)

// WithLimiterClock overrides the time source, for tests.
func WithLimiterClock(fn func() time.Time) LimiterOption {
	return func(l *Limiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

// NewLimiter constructs a Limiter. Non-positive limits fall back to the
// defaults of 10 per minute and 100 per hour.
func NewLimiter(perMinute, perHour int, opts ...LimiterOption) *Limiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	if perHour <= 0 {
		perHour = 100
	}
	l := &Limiter{
		perMinute: perMinute,
		perHour:   perHour,
		hits:      make(map[string][]time.Time),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep = l.now()
	return l
}

// Check admits the identifier if both windows are under their limits and
// records the hit atomically. It returns false once either limit is reached;
// rejected calls are not recorded, so a burst of rejections does not extend
// the lockout.
func (l *Limiter) Check(identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.maybeSweep(now)
	recent := prune(l.hits[identifier], now)

	minuteCount := 0
	cutoff := now.Add(-minuteWindow)
	for _, t := range recent {
		if t.After(cutoff) {
			minuteCount++
		}
	}
	if minuteCount >= l.perMinute || len(recent) >= l.perHour {
		l.hits[identifier] = recent
		return false
	}
	l.hits[identifier] = append(recent, now)
	return true
}

// Remaining reports the smaller of the two remaining budgets without
// recording a hit.
func (l *Limiter) Remaining(identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	recent := prune(l.hits[identifier], now)
	l.hits[identifier] = recent

	minuteCount := 0
	cutoff := now.Add(-minuteWindow)
	for _, t := range recent {
		if t.After(cutoff) {
			minuteCount++
		}
	}
	remMinute := l.perMinute - minuteCount
	remHour := l.perHour - len(recent)
	if remMinute < remHour {
		return max(remMinute, 0)
	}
	return max(remHour, 0)
}

// prune drops hits older than the hour window.
func prune(hits []time.Time, now time.Time) []time.Time {
	cutoff := now.Add(-hourWindow)
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return hits
	}
	return append([]time.Time(nil), hits[i:]...)
}

// maybeSweep drops identifiers that went quiet for a full hour window. Runs
// at most once per window so hot paths stay cheap.
func (l *Limiter) maybeSweep(now time.Time) {
	if now.Sub(l.lastSweep) < hourWindow {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-hourWindow)
	for id, hits := range l.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(l.hits, id)
		}
	}
}
