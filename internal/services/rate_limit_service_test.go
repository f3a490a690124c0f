package services

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock shared by limiter and account tests
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(config RateLimitConfig, clock *fakeClock) *RateLimitService {
	s := NewRateLimitService(config, slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	s.now = clock.Now
	return s
}

func TestRateLimitService_Defaults(t *testing.T) {
	s := NewRateLimitService(RateLimitConfig{}, slog.Default())
	assert.Equal(t, 60*time.Second, s.Window())
	assert.Equal(t, 30, s.config.MaxRequests)
}

func TestRateLimitService_AdmitsUpToMax(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(DefaultRateLimitConfig(), clock)

	for i := 0; i < 30; i++ {
		decision := s.Check("192.168.1.1")
		require.True(t, decision.Allowed, "request %d should be admitted", i+1)
		clock.Advance(time.Second)
	}

	decision := s.Check("192.168.1.1")
	assert.False(t, decision.Allowed)
	assert.Positive(t, decision.RetryAfter)
}

func TestRateLimitService_RetryAfter(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(RateLimitConfig{Window: 60 * time.Second, MaxRequests: 2}, clock)

	require.True(t, s.Check("k").Allowed)
	clock.Advance(10 * time.Second)
	require.True(t, s.Check("k").Allowed)
	clock.Advance(500 * time.Millisecond)

	// Oldest entry is 10.5s old, so it leaves the window in 49.5s
	decision := s.Check("k")
	assert.False(t, decision.Allowed)
	assert.Equal(t, 50, decision.RetryAfter)
}

func TestRateLimitService_ReadmitsAfterWindow(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(DefaultRateLimitConfig(), clock)

	for i := 0; i < 30; i++ {
		require.True(t, s.Check("10.0.0.1").Allowed)
	}
	require.False(t, s.Check("10.0.0.1").Allowed)

	clock.Advance(61 * time.Second)

	assert.True(t, s.Check("10.0.0.1").Allowed)
}

func TestRateLimitService_RejectedRequestsAreNotRecorded(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(RateLimitConfig{Window: time.Minute, MaxRequests: 1}, clock)

	require.True(t, s.Check("k").Allowed)
	for i := 0; i < 10; i++ {
		require.False(t, s.Check("k").Allowed)
	}

	clock.Advance(time.Minute + time.Millisecond)
	assert.True(t, s.Check("k").Allowed)
}

func TestRateLimitService_KeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(RateLimitConfig{Window: time.Minute, MaxRequests: 1}, clock)

	assert.True(t, s.Check("a").Allowed)
	assert.False(t, s.Check("a").Allowed)
	assert.True(t, s.Check("b").Allowed)
}

func TestRateLimitService_ReapDropsIdleKeys(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(DefaultRateLimitConfig(), clock)

	s.Check("idle")
	clock.Advance(90 * time.Second)
	s.Check("active")

	// idle is 90s old: inside 2x window, kept
	assert.Equal(t, 0, s.Reap(clock.Now()))
	assert.Equal(t, 2, s.Len())

	clock.Advance(31 * time.Second)

	// idle is now 121s old: older than 2x window
	assert.Equal(t, 1, s.Reap(clock.Now()))
	assert.Equal(t, 1, s.Len())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, 1, s.ReapExpired())
	assert.Equal(t, 0, s.Len())
}

func TestRateLimitService_ReapTrimsPartiallyStaleKeys(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(DefaultRateLimitConfig(), clock)

	s.Check("k")
	clock.Advance(50 * time.Second)
	s.Check("k")
	clock.Advance(90 * time.Second)

	// first entry is 140s old, second 90s old
	assert.Equal(t, 0, s.Reap(clock.Now()))
	assert.Len(t, s.windows["k"], 1)
}

func TestRateLimitService_ConcurrentChecks(t *testing.T) {
	s := NewRateLimitService(RateLimitConfig{Window: time.Hour, MaxRequests: 50}, slog.Default())

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Check("shared").Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, admitted)
}

func TestRateLimitService_ManyKeysBounded(t *testing.T) {
	clock := newFakeClock()
	s := newTestLimiter(DefaultRateLimitConfig(), clock)

	for i := 0; i < 1000; i++ {
		s.Check(fmt.Sprintf("10.0.%d.%d", i/256, i%256))
	}
	assert.Equal(t, 1000, s.Len())

	clock.Advance(3 * time.Minute)
	assert.Equal(t, 1000, s.ReapExpired())
	assert.Equal(t, 0, s.Len())
}
