package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/utils"
)

// RateLimitConfig sizes a per-client token bucket.
type RateLimitConfig struct {
	Burst             int
	RefillPerIPPerMin int
	MaxEntries        int           // sweep idle clients early once reached
	SweepInterval     time.Duration // default 1m
	IdleTTL           time.Duration // default 15m
	TrustProxy        bool          // resolve IP from proxy headers when true
	Message           string        // body message when the bucket is empty
	Now               func() time.Time
}

// LoginRateLimit guards the admin login against password guessing.
func LoginRateLimit(trustProxy bool) RateLimitConfig {
	return RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 5,
		MaxEntries:        10000,
		TrustProxy:        trustProxy,
		Message:           "Too many login attempts. Please wait and try again.",
	}
}

// CommentRateLimit throttles anonymous comment posting.
func CommentRateLimit(trustProxy bool) RateLimitConfig {
	return RateLimitConfig{
		Burst:             3,
		RefillPerIPPerMin: 6,
		MaxEntries:        10000,
		TrustProxy:        trustProxy,
		Message:           "You are commenting too fast. Please wait a moment.",
	}
}

type bucket struct {
	tokens  float64
	updated time.Time
}

// take refills b up to capacity and spends one token if available.
func (b *bucket) take(now time.Time, capacity, perSec float64) (bool, float64) {
	if dt := now.Sub(b.updated).Seconds(); dt > 0 {
		b.tokens = math.Min(capacity, b.tokens+dt*perSec)
	}
	b.updated = now
	if b.tokens < 1 {
		return false, b.tokens
	}
	b.tokens--
	return true, b.tokens
}

type limiter struct {
	cfg      RateLimitConfig
	perSec   float64
	capacity float64

	mu        sync.Mutex
	clients   map[string]*bucket
	lastSweep time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	cfg.Burst = max(cfg.Burst, 1)
	cfg.RefillPerIPPerMin = max(cfg.RefillPerIPPerMin, 1)
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Message == "" {
		cfg.Message = http.StatusText(http.StatusTooManyRequests)
	}
	return &limiter{
		cfg:       cfg,
		perSec:    float64(cfg.RefillPerIPPerMin) / 60,
		capacity:  float64(cfg.Burst),
		clients:   make(map[string]*bucket),
		lastSweep: cfg.Now(),
	}
}

// allow spends a token for key. When refused, retryAfter is the number of
// whole seconds until the next token.
func (l *limiter) allow(key string, now time.Time) (ok bool, remaining, retryAfter int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	full := l.cfg.MaxEntries > 0 && len(l.clients) >= l.cfg.MaxEntries
	if full || now.Sub(l.lastSweep) >= l.cfg.SweepInterval {
		l.sweep(now)
	}

	b, found := l.clients[key]
	if !found {
		b = &bucket{tokens: l.capacity, updated: now}
		l.clients[key] = b
	}

	ok, left := b.take(now, l.capacity, l.perSec)
	if ok {
		return true, int(left), 0
	}
	return false, 0, max(1, int(math.Ceil((1-left)/l.perSec)))
}

func (l *limiter) sweep(now time.Time) {
	for key, b := range l.clients {
		if now.Sub(b.updated) > l.cfg.IdleTTL {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

// RateLimit applies one token bucket per client IP. Each call gets its own
// buckets, so separate routes are limited independently.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	l := newLimiter(cfg)
	limit := strconv.Itoa(l.cfg.Burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retry := l.allow(utils.ClientIP(r, l.cfg.TrustProxy), l.cfg.Now())

			w.Header().Set("X-RateLimit-Limit", limit)
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				writeError(w, http.StatusTooManyRequests, l.cfg.Message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
