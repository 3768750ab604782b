// Package ratelimit bounds the outbound reply rate with token buckets
// over two windows, per minute and per hour.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter gates replies against both windows atomically: a reply is
// admitted only when both buckets have a token, and consumes from both
// or neither. A zero limit disables that window.
type Limiter struct {
	mu     sync.Mutex
	minute *rate.Limiter
	hour   *rate.Limiter

	now func() time.Time
}

// New creates a Limiter. perMinute and perHour of zero (or negative)
// mean unlimited for that window.
func New(perMinute, perHour int) *Limiter {
	l := &Limiter{now: time.Now}
	l.configure(perMinute, perHour)
	return l
}

// Allow reports whether one reply may be sent now, consuming a token
// from each active window when it is.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.minute != nil && l.minute.TokensAt(now) < 1 {
		return false
	}
	if l.hour != nil && l.hour.TokensAt(now) < 1 {
		return false
	}
	if l.minute != nil {
		l.minute.AllowN(now, 1)
	}
	if l.hour != nil {
		l.hour.AllowN(now, 1)
	}
	return true
}

// Update replaces both limits. Buckets are rebuilt full; the new rate
// applies from the next Allow call.
func (l *Limiter) Update(perMinute, perHour int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.configure(perMinute, perHour)
}

func (l *Limiter) configure(perMinute, perHour int) {
	l.minute = bucket(perMinute, time.Minute)
	l.hour = bucket(perHour, time.Hour)
}

// bucket builds a token bucket that admits at most n events per window,
// refilling evenly across it.
func bucket(n int, window time.Duration) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(window/time.Duration(n)), n)
}
