package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func newTestLimiter(burst int, every time.Duration) (*attemptLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	l := newAttemptLimiter(burst, every)
	l.now = clock.now
	return l, clock
}

func TestAttemptLimiterBlocksAndRefills(t *testing.T) {
	l, clock := newTestLimiter(2, time.Minute)

	l.Fail("A@example.com")
	assert.False(t, l.Blocked("a@example.com"))
	l.Fail("a@example.com")
	assert.True(t, l.Blocked(" a@example.com "))

	clock.t = clock.t.Add(time.Minute)
	assert.False(t, l.Blocked("a@example.com"))
}

func TestAttemptLimiterDropsRefilledBuckets(t *testing.T) {
	l, clock := newTestLimiter(3, time.Minute)

	for i := 0; i < 100; i++ {
		l.Fail(fmt.Sprintf("user%d@example.com", i))
	}
	assert.Equal(t, 100, l.size())

	clock.t = clock.t.Add(time.Minute)
	l.Fail("late@example.com")
	assert.Equal(t, 1, l.size(), "refilled buckets are pruned")

	clock.t = clock.t.Add(time.Minute)
	assert.False(t, l.Blocked("late@example.com"))
	assert.Equal(t, 0, l.size())
}
