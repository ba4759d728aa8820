package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

// RateLimiter bounds request rate per client using a Redis-backed fixed
// window, so limits hold across independently scaled instances.
type RateLimiter struct {
	redis  *redis.Client
	max    int
	window time.Duration
	prefix string
	logger zerolog.Logger
}

// NewRateLimiter creates a Redis-backed rate limiter allowing max requests
// per window.
func NewRateLimiter(redisClient *redis.Client, max int, window time.Duration, logger zerolog.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		max:    max,
		window: window,
		prefix: "ratelimit",
		logger: logger.With().Str("middleware", "RateLimiter").Logger(),
	}
}

// Allow checks whether another request is permitted for key. On Redis errors
// it fails open to avoid turning a cache outage into an API outage.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		rl.logger.Warn().Err(err).Msg("Rate limit check failed, allowing request")
		return true
	}
	return incr.Val() <= int64(rl.max)
}

// Middleware enforces the limit per client IP.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.Allow(r.Context(), ip) {
			rl.logger.Warn().Str("ip", ip).Msg("Rate limit exceeded")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP prefers forwarding headers set by the hosting platform.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
