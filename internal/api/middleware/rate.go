package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// IdleTTL drops per-client limiters unused for this long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the inspector's rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		IdleTTL:           10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients holds one limiter per key and sweeps idle ones lazily.
type clients struct {
	cfg       RateLimitConfig
	now       func() time.Time
	mu        sync.Mutex
	byKey     map[string]*client
	lastSweep time.Time
}

func newClients(cfg RateLimitConfig, now func() time.Time) *clients {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultRateLimitConfig().IdleTTL
	}
	return &clients{cfg: cfg, now: now, byKey: make(map[string]*client), lastSweep: now()}
}

func (cs *clients) get(key string) *rate.Limiter {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	now := cs.now()
	if now.Sub(cs.lastSweep) >= cs.cfg.IdleTTL {
		for k, c := range cs.byKey {
			if now.Sub(c.lastSeen) >= cs.cfg.IdleTTL {
				delete(cs.byKey, k)
			}
		}
		cs.lastSweep = now
	}

	c, ok := cs.byKey[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(rate.Limit(cs.cfg.RequestsPerSecond), cs.cfg.Burst)}
		cs.byKey[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (cs *clients) len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.byKey)
}

// RateLimit creates a per-IP rate limiting middleware.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	cs := newClients(cfg, time.Now)
	return func(c *gin.Context) {
		limit(c, cs.get(c.ClientIP()))
	}
}

// GlobalRateLimit creates a global rate limiting middleware.
func GlobalRateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	return func(c *gin.Context) {
		limit(c, limiter)
	}
}

func limit(c *gin.Context, limiter *rate.Limiter) {
	res := limiter.Reserve()
	if res.OK() && res.Delay() == 0 {
		c.Next()
		return
	}
	retry := 1
	if res.OK() {
		retry = max(1, int(math.Ceil(res.Delay().Seconds())))
	}
	res.Cancel()
	c.Header("Retry-After", strconv.Itoa(retry))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": "rate limit exceeded",
	})
}
