package http

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"github.com/spec-kit/dating-api/internal/config"
	apperrors "github.com/spec-kit/dating-api/pkg/util/errorutil"
)

type clientLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	perMinute int
	limit     rate.Limit
	burst     int
	idle      time.Duration

	mu       sync.Mutex
	limiters map[string]*clientLimiter

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewLoginRateLimiter builds the limiter for the login endpoint. A non-positive
// rate disables limiting. Call Stop to end the background cleanup.
func NewLoginRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		perMinute: cfg.LoginPerMinute,
		limit:     rate.Limit(float64(cfg.LoginPerMinute) / 60.0),
		burst:     cfg.LoginBurst,
		idle:      10 * time.Minute,
		limiters:  make(map[string]*clientLimiter),
		stopCh:    make(chan struct{}),
	}
	if rl.burst <= 0 {
		rl.burst = 1
	}
	if cfg.LoginPerMinute > 0 {
		go rl.cleanupLoop()
	}
	return rl
}

// Enabled reports whether requests are actually limited.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

// Handler returns the fiber middleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.Enabled() {
			return c.Next()
		}
		if !rl.allow(c.IP(), time.Now()) {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(rl.retryAfterSeconds()))
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		}
		return c.Next()
	}
}

// Stop ends the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) allow(key string, now time.Time) bool {
	rl.mu.Lock()
	entry, ok := rl.limiters[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastAccess = now
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// retryAfterSeconds is the time for one token to refill, rounded up.
func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.perMinute <= 0 {
		return 1
	}
	return (60 + rl.perMinute - 1) / rl.perMinute
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.idle)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.sweep(now)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, entry := range rl.limiters {
		if now.Sub(entry.lastAccess) > rl.idle {
			delete(rl.limiters, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}
