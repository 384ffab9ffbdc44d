// Package middleware provides HTTP middleware for the conceptmap server.
package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/persistorai/conceptmap/internal/httputil"
)

// maxBuckets is the maximum number of tracked clients to prevent memory exhaustion.
const maxBuckets = 100_000

// RateLimiter is a per-client token bucket. The router runs a generous one on
// every route and a strict one on article routes, where a cache miss costs
// several upstream calls.
type RateLimiter struct {
	name    string
	rate    float64
	burst   float64
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter refilling ratePerSec tokens per second
// up to burst. It evicts idle clients in the background until ctx is cancelled.
func NewRateLimiter(ctx context.Context, name string, ratePerSec float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		name:    name,
		rate:    ratePerSec,
		burst:   float64(burst),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
	go rl.evictIdle(ctx)

	return rl
}

func (rl *RateLimiter) evictIdle(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	const maxIdle = 10 * time.Minute

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.buckets {
				if now.Sub(b.lastSeen) > maxIdle {
					delete(rl.buckets, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// take consumes one token for key. When the bucket is empty it returns the
// wait until the next token.
func (rl *RateLimiter) take(key string) (bool, time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxBuckets {
			return false, 0, false
		}

		b = &bucket{tokens: rl.burst, lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens = math.Min(rl.burst, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--

		return true, 0, true
	}

	wait := time.Duration((1 - b.tokens) / rl.rate * float64(time.Second))

	return false, wait, true
}

// Handler returns Gin middleware applying the limit per client IP.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// ClientIP ignores forwarding headers because the router trusts no proxies.
		allowed, wait, tracked := rl.take(c.ClientIP())

		if !tracked {
			httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

			return
		}

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
			httputil.RespondError(c, http.StatusTooManyRequests, "rate_limited", rl.name+" rate limit exceeded")

			return
		}

		c.Next()
	}
}
