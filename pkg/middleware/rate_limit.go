package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter implements a fixed-window per-client limiter.
type RateLimiter struct {
	mu       sync.Mutex
	windows  map[string]*window
	rate     int
	duration time.Duration
}

type window struct {
	remaining int
	resetAt   time.Time
}

// NewRateLimiter allows rate requests per duration for each client key.
func NewRateLimiter(rate int, duration time.Duration) *RateLimiter {
	rl := &RateLimiter{
		windows:  make(map[string]*window),
		rate:     rate,
		duration: duration,
	}

	go rl.cleanup()
	return rl
}

// Middleware returns a Gin middleware that enforces the limit per client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"message": "Too many requests. Please try again later.",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.After(w.resetAt) {
		rl.windows[key] = &window{remaining: rl.rate - 1, resetAt: now.Add(rl.duration)}
		return true
	}

	if w.remaining <= 0 {
		return false
	}
	w.remaining--
	return true
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		rl.mu.Lock()
		for key, w := range rl.windows {
			if now.After(w.resetAt) {
				delete(rl.windows, key)
			}
		}
		rl.mu.Unlock()
	}
}
