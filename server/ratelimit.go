package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"melodex/logger"
)

// RateLimiter admits a fixed number of requests per client address within a
// sliding time window. It is deliberately a plain mutex-guarded counter
// map: admission control sits outside the catalog hot path and sees one
// lookup per request.
type RateLimiter struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		hits:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
}

// Allow records a hit for addr and reports whether it is within budget.
func (rl *RateLimiter) Allow(addr string) bool {
	now := time.Now()
	cutoff := now.Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	recent := rl.hits[addr][:0]
	for _, t := range rl.hits[addr] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= rl.limit {
		rl.hits[addr] = recent
		return false
	}

	rl.hits[addr] = append(recent, now)
	return true
}

// Middleware rejects over-budget clients with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		addr, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			addr = r.RemoteAddr
		}

		if !rl.Allow(addr) {
			logger.Warn("Rate limit exceeded", logger.String("addr", addr))
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}
