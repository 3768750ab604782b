package provider

import (
	"sync"
	"time"

	"github.com/echoreply/echoreply/internal/config"
)

// ErrorTracker monitors consecutive failures for a single provider
// instance and computes backoff and circuit-breaker decisions. Each
// client owns exactly one tracker; trackers share no state across
// providers, so an open circuit on one never blocks the other.
type ErrorTracker struct {
	mu          sync.Mutex
	cfg         config.BackoffConfig
	consecutive int
	lastError   time.Time

	// now is injectable for testing. Defaults to time.Now.
	now func() time.Time
}

// NewErrorTracker creates a tracker with the given backoff tuning.
func NewErrorTracker(cfg config.BackoffConfig) *ErrorTracker {
	return &ErrorTracker{
		cfg: cfg,
		now: time.Now,
	}
}

// RecordError increments the consecutive-error count and stamps the
// failure time.
func (t *ErrorTracker) RecordError() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive++
	t.lastError = t.now()
}

// RecordSuccess resets the consecutive-error count to zero.
func (t *ErrorTracker) RecordSuccess() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive = 0
}

// BackoffDelay returns the cooperative delay to apply before the next
// attempt: zero with no errors, otherwise min(base x 2^(n-1), max).
func (t *ErrorTracker) BackoffDelay() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.backoffLocked()
}

func (t *ErrorTracker) backoffLocked() time.Duration {
	if t.consecutive == 0 {
		return 0
	}
	shift := uint(t.consecutive - 1)
	// Beyond 32 doublings any positive base exceeds any sane cap;
	// shifting further would overflow.
	if shift > 32 {
		return t.cfg.MaxDelay
	}
	d := t.cfg.BaseDelay << shift
	if d <= 0 || d > t.cfg.MaxDelay {
		return t.cfg.MaxDelay
	}
	return d
}

// ShouldRetry reports whether another attempt is allowed. With a
// positive RecoveryTime configured, an exceeded threshold self-heals
// once that much time has passed since the last error: the counter
// resets and the call returns true. Without RecoveryTime, the circuit
// stays open until Reset.
func (t *ErrorTracker) ShouldRetry() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cfg.RecoveryTime > 0 && t.consecutive > 0 &&
		t.now().Sub(t.lastError) >= t.cfg.RecoveryTime {
		t.consecutive = 0
		return true
	}
	return t.consecutive < t.cfg.MaxErrors
}

// Reset zeroes the consecutive-error count and the last-error time.
func (t *ErrorTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutive = 0
	t.lastError = time.Time{}
}

// UpdateConfig swaps the backoff tuning, preserving the counters.
func (t *ErrorTracker) UpdateConfig(cfg config.BackoffConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
}

// ConsecutiveErrors returns the current consecutive-error count.
func (t *ErrorTracker) ConsecutiveErrors() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.consecutive
}

// LastErrorTime returns when the most recent error was recorded.
// Zero if no error has been recorded since the last reset.
func (t *ErrorTracker) LastErrorTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastError
}
