package auth

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// attemptLimiter throttles failed sign-ins per email. Each failure spends a
// token; an empty bucket blocks further attempts until it refills. Buckets
// that have refilled completely are dropped.
type attemptLimiter struct {
	mu        sync.Mutex
	every     time.Duration
	burst     int
	buckets   map[string]*rate.Limiter
	lastPrune time.Time
	now       func() time.Time
}

func newAttemptLimiter(burst int, every time.Duration) *attemptLimiter {
	return &attemptLimiter{
		every:   every,
		burst:   burst,
		buckets: make(map[string]*rate.Limiter),
		now:     time.Now,
	}
}

func (l *attemptLimiter) Blocked(email string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := key(email)
	lim, ok := l.buckets[k]
	if !ok {
		return false
	}
	if l.full(lim, now) {
		delete(l.buckets, k)
		return false
	}
	return lim.TokensAt(now) < 1
}

func (l *attemptLimiter) Fail(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.prune(now)

	k := key(email)
	lim, ok := l.buckets[k]
	if !ok {
		lim = rate.NewLimiter(rate.Every(l.every), l.burst)
		l.buckets[k] = lim
	}
	lim.AllowN(now, 1)
}

func (l *attemptLimiter) Reset(email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key(email))
}

func (l *attemptLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// prune scans at most once per refill interval.
func (l *attemptLimiter) prune(now time.Time) {
	if now.Sub(l.lastPrune) < l.every {
		return
	}
	l.lastPrune = now
	for k, lim := range l.buckets {
		if l.full(lim, now) {
			delete(l.buckets, k)
		}
	}
}

func (l *attemptLimiter) full(lim *rate.Limiter, now time.Time) bool {
	return lim.TokensAt(now) >= float64(l.burst)
}

func key(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
