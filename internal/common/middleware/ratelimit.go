// internal/common/middleware/ratelimit.go
// Redis-backed per-IP rate limiting for the public auth endpoints

package middleware

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/anyjobhub/qalbii/internal/common/utils"
)

// RateLimiter counts requests per client IP in fixed windows
type RateLimiter struct {
	rdb *redis.Client
}

// NewRateLimiter creates a rate limiter. A nil Redis client disables limiting,
// which keeps local development working without a Redis instance.
func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

// Limit wraps a handler with an allowance of max requests per window.
// The name keeps counters for different endpoints separate.
func (l *RateLimiter) Limit(name string, max int, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.rdb == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := fmt.Sprintf("ratelimit:%s:%s", name, clientIP(r))

			count, err := l.rdb.Incr(r.Context(), key).Result()
			if err != nil {
				// Redis being down should not take the API down with it
				log.Printf("rate limiter error for %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			if count == 1 {
				l.rdb.Expire(r.Context(), key, window)
			}

			if count > int64(max) {
				utils.ErrorResponse(w, "Too many requests, please try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP resolves the originating address, honoring proxy headers
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
