package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/team-builder/pkg/utils"
)

// RateLimiter throttles chart recalculation per session. Rendering is the
// only expensive call in the service, so nothing else is limited.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// staleAfter is how long an idle session keeps its limiter entry
const staleAfter = 10 * time.Minute

// NewRateLimiter allows perMinute sustained requests with the given burst,
// tracked separately per key
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

// Allow reports whether the key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.cleanupStale(now)

	entry, ok := rl.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = now

	return entry.limiter.Allow()
}

// cleanupStale drops limiters idle past staleAfter; callers hold the lock
func (rl *RateLimiter) cleanupStale(now time.Time) {
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) > staleAfter {
			delete(rl.limiters, key)
		}
	}
}

// Middleware rejects requests over the limit with RATE_LIMITED. Requests
// are keyed by session, falling back to client IP when no session exists.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := GetSessionID(c)
		if key == "" {
			key = c.ClientIP()
		}

		if !rl.Allow(key) {
			utils.SendAppError(c, utils.NewAppError(utils.ErrCodeRateLimited,
				"too many recalculations, slow down", nil))
			c.Abort()
			return
		}

		c.Next()
	}
}
