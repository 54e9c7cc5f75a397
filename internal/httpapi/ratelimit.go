package httpapi

import (
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/HendryAvila/provisio/internal/session"
)

// SessionLimiter enforces a token bucket per session key.
// A nil *SessionLimiter allows everything.
type SessionLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewSessionLimiter returns nil when rps <= 0.
func NewSessionLimiter(rps float64, burst int) *SessionLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &SessionLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

// Allow reports whether a request for key may proceed now.
func (l *SessionLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	key = session.NormalizeKey(key)
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// Middleware returns 429 when the request's session is over its limit.
func (l *SessionLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Header.Get(SessionHeader)) {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "too many requests for this session")
			return
		}
		next.ServeHTTP(w, r)
	})
}
