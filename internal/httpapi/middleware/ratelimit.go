package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// limiterSet hands out one token bucket per client key.
type limiterSet struct {
	rate  rate.Limit
	burst int

	mu sync.RWMutex
	m  map[string]*rate.Limiter
}

func newLimiterSet(r rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		rate:  r,
		burst: burst,
		m:     make(map[string]*rate.Limiter),
	}
}

func (ls *limiterSet) get(key string) *rate.Limiter {
	ls.mu.RLock()
	l, ok := ls.m[key]
	ls.mu.RUnlock()
	if ok {
		return l
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	// Double-check after taking the write lock.
	if l, ok = ls.m[key]; !ok {
		l = rate.NewLimiter(ls.rate, ls.burst)
		ls.m[key] = l
	}
	return l
}

// RateLimit limits requests per remote IP. reqPerMin <= 0 disables the
// middleware entirely.
// Example: RateLimit(120, 60) => 120 req/min with burst 60.
func RateLimit(reqPerMin, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	limiters := newLimiterSet(rate.Limit(float64(reqPerMin)/60.0), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIP(r)).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
