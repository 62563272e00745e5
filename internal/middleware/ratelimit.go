// Package middleware provides the HTTP middleware stack for the API server.
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// maxTrackedClients caps the bucket table so an attacker rotating source
// addresses or actor IDs cannot grow it without bound.
const maxTrackedClients = 100_000

// bucketIdleTTL is how long an untouched bucket survives before eviction.
const bucketIdleTTL = 10 * time.Minute

// RateLimiter applies a token-bucket limit per client. Requests carrying
// an actor header are keyed by actor, so accounts behind a shared NAT do
// not starve each other; anonymous requests fall back to the client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	rate    float64
	burst   float64
}

type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter allowing ratePerSec sustained
// requests with the given burst. A background goroutine evicts idle
// buckets until ctx is cancelled.
func NewRateLimiter(ctx context.Context, ratePerSec, burst int) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*tokenBucket),
		rate:    float64(ratePerSec),
		burst:   float64(burst),
	}
	go rl.evictLoop(ctx)

	return rl
}

func (rl *RateLimiter) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			rl.mu.Lock()
			for key, b := range rl.clients {
				if now.Sub(b.lastSeen) > bucketIdleTTL {
					delete(rl.clients, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// take refills the bucket for key and consumes one token. The second
// return value reports whether the bucket table was full for a new key.
func (rl *RateLimiter) take(key string, now time.Time) (allowed, full bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= maxTrackedClients {
			return false, true
		}

		b = &tokenBucket{tokens: rl.burst, lastSeen: now}
		rl.clients[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}

	b.lastSeen = now

	if b.tokens < 1 {
		return false, false
	}

	b.tokens--

	return true, false
}

// clientKey picks the bucket key for a request. ClientIP is safe from
// X-Forwarded-For spoofing because router setup disables proxy trust
// via SetTrustedProxies(nil).
func clientKey(c *gin.Context) string {
	if actor := c.GetHeader(ActorIDHeader); actor != "" {
		return "actor:" + actor
	}

	return "ip:" + c.ClientIP()
}

// Handler returns Gin middleware that applies per-client rate limiting.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, full := rl.take(clientKey(c), time.Now())
		if full {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "too many clients")

			return
		}

		if !allowed {
			respondError(c, http.StatusTooManyRequests, "rate_limited", "rate limit exceeded")

			return
		}

		c.Next()
	}
}
