package services

import (
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultRateLimitWindow  = 60 * time.Second
	DefaultMaxPerWindow     = 30
	idleRetentionMultiplier = 2
)

// RateLimitConfig holds configuration for the per-source request limiter
type RateLimitConfig struct {
	Window      time.Duration // trailing window the count is taken over
	MaxRequests int           // requests admitted per window
}

// DefaultRateLimitConfig returns 30 requests per 60 seconds
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Window:      DefaultRateLimitWindow,
		MaxRequests: DefaultMaxPerWindow,
	}
}

// RateLimitDecision is the verdict for one request
type RateLimitDecision struct {
	Allowed    bool
	RetryAfter int // seconds; set only when Allowed is false
}

// RateLimitService is an in-memory sliding-window log keyed by source (usually client IP).
// Timestamps are kept oldest-first per key. State is lost on restart.
type RateLimitService struct {
	config RateLimitConfig
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(config RateLimitConfig, logger *slog.Logger) *RateLimitService {
	if config.Window <= 0 {
		config.Window = DefaultRateLimitWindow
	}
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultMaxPerWindow
	}

	return &RateLimitService{
		config:  config,
		logger:  logger,
		now:     time.Now,
		windows: make(map[string][]time.Time),
	}
}

// Window returns the configured window, which is also the reap interval
func (s *RateLimitService) Window() time.Duration {
	return s.config.Window
}

// Check records a request from key and reports whether it is admitted.
// Rejected requests are not recorded.
func (s *RateLimitService) Check(key string) RateLimitDecision {
	now := s.now()
	windowStart := now.Add(-s.config.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	times := s.windows[key]

	// Oldest first, so expired entries form a prefix
	i := 0
	for i < len(times) && times[i].Before(windowStart) {
		i++
	}
	times = times[i:]

	if len(times) >= s.config.MaxRequests {
		s.windows[key] = times
		// Whole seconds until the oldest entry expires, truncated, plus one
		retryAfter := int((s.config.Window-now.Sub(times[0]))/time.Second) + 1
		if retryAfter < 1 {
			retryAfter = 1
		}
		s.logger.Warn("source rate limited",
			slog.String("source", key),
			slog.Int("requests", len(times)),
			slog.Int("retry_after", retryAfter))
		return RateLimitDecision{Allowed: false, RetryAfter: retryAfter}
	}

	s.windows[key] = append(times, now)
	return RateLimitDecision{Allowed: true}
}

// Reap drops timestamps older than twice the window and deletes keys left empty.
// Returns the number of keys removed.
func (s *RateLimitService) Reap(now time.Time) int {
	cutoff := now.Add(-idleRetentionMultiplier * s.config.Window)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, times := range s.windows {
		i := 0
		for i < len(times) && times[i].Before(cutoff) {
			i++
		}
		if i == len(times) {
			delete(s.windows, key)
			removed++
			continue
		}
		if i > 0 {
			s.windows[key] = times[i:]
		}
	}

	return removed
}

// ReapExpired runs Reap against the service clock
func (s *RateLimitService) ReapExpired() int {
	return s.Reap(s.now())
}

// Len returns the number of tracked source keys
func (s *RateLimitService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}
