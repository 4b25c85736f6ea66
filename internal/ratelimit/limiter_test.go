package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// newTestLimiter returns a limiter with a controllable clock.
func newTestLimiter(max int, period time.Duration) (*Limiter, *time.Time) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l := &Limiter{
		entries: make(map[string]*window),
		max:     max,
		period:  period,
		now:     func() time.Time { return now },
	}
	return l, &now
}

func TestCheckAllowsUpToQuota(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res := l.Check("1.2.3.4")
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res := l.Check("1.2.3.4")
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, time.Minute, res.RetryAfter)
}

func TestCheckIsPerIdentifier(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)
	assert.True(t, l.Check("b").Allowed, "a second identifier has its own window")
}

func TestWindowResets(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)

	assert.True(t, l.Check("a").Allowed)
	assert.False(t, l.Check("a").Allowed)

	*now = now.Add(time.Minute + time.Second)
	res := l.Check("a")
	assert.True(t, res.Allowed, "a fresh window starts once the old one elapses")
	assert.Equal(t, now.Add(time.Minute), res.ResetAt)
}

func TestRetryAfterShrinksWithinWindow(t *testing.T) {
	l, now := newTestLimiter(1, time.Minute)

	assert.True(t, l.Check("a").Allowed)

	*now = now.Add(45 * time.Second)
	res := l.Check("a")
	assert.False(t, res.Allowed)
	assert.Equal(t, 15*time.Second, res.RetryAfter)
}

func TestDeniedChecksDoNotConsumeQuota(t *testing.T) {
	l, now := newTestLimiter(2, time.Minute)

	l.Check("a")
	l.Check("a")
	for i := 0; i < 10; i++ {
		assert.False(t, l.Check("a").Allowed)
	}

	*now = now.Add(2 * time.Minute)
	assert.True(t, l.Check("a").Allowed, "hammering while denied must not extend the window")
}
