package mockbackend

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedDiagnostic is the error content sent to a throttled subject.
const RateLimitedDiagnostic = "rate limited"

// requestLimiter keeps one token bucket per token subject, shared across
// that subject's connections. A nil limiter allows everything.
type requestLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newRequestLimiter(perMinute float64, burst int) *requestLimiter {
	if perMinute <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &requestLimiter{
		limit:    rate.Limit(perMinute / 60.0),
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow takes one token from subject's bucket.
func (l *requestLimiter) Allow(subject string) bool {
	if l == nil {
		return true
	}
	l.mu.Lock()
	lim, ok := l.limiters[subject]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[subject] = lim
	}
	now := l.now()
	l.mu.Unlock()
	return lim.AllowN(now, 1)
}
