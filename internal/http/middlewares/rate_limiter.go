package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/supplylens/internal/observability"
	"github.com/geocoder89/supplylens/internal/redisclient"
)

const (
	CodeRateLimited       = "RATE_LIMIT_EXCEEDED"
	rateLimiterSweepEvery = 5 * time.Minute
)

// Limiter counts hits per key in fixed windows.
type Limiter interface {
	Allow(key string, limit int, window time.Duration) Decision
	Close()
}

type Decision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

// RetryAfter is the whole seconds until the window resets, at least 1.
func (d Decision) RetryAfter(now time.Time) int {
	secs := int(d.WindowEnd.Sub(now).Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	return secs
}

type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	now     func() time.Time
	stopCh  chan struct{}
	once    sync.Once
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func NewRateLimiter() *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientBucket),
		now:     time.Now,
		stopCh:  make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

func (rl *RateLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.clients[key]

	if !ok || !now.Before(b.windowEnd) {
		b = &clientBucket{count: 1, windowEnd: now.Add(window)}
		rl.clients[key] = b
		return Decision{Allowed: true, Count: 1, WindowEnd: b.windowEnd}
	}

	if b.count >= limit {
		return Decision{Allowed: false, Count: b.count, WindowEnd: b.windowEnd}
	}

	b.count++
	return Decision{Allowed: true, Count: b.count, WindowEnd: b.windowEnd}
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rateLimiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep(rl.now())
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, b := range rl.clients {
		if !now.Before(b.windowEnd) {
			delete(rl.clients, key)
		}
	}
}

func (rl *RateLimiter) Close() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// RedisLimiter shares counters between instances. Redis errors fail open.
type RedisLimiter struct {
	client  *redisclient.Client
	log     *slog.Logger
	timeout time.Duration
}

func NewRedisLimiter(client *redisclient.Client, log *slog.Logger) *RedisLimiter {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLimiter{client: client, log: log, timeout: 250 * time.Millisecond}
}

func (rl *RedisLimiter) Allow(key string, limit int, window time.Duration) Decision {
	if limit <= 0 {
		return Decision{Allowed: true}
	}

	ctx, cancel := context.WithTimeout(context.Background(), rl.timeout)
	defer cancel()

	count, ttl, err := rl.client.Hit(ctx, key, window)
	if err != nil {
		rl.log.Error("redis rate limiter error", "key", key, "err", err)
		return Decision{Allowed: true}
	}

	return Decision{
		Allowed:   int(count) <= limit,
		Count:     int(count),
		WindowEnd: time.Now().Add(ttl),
	}
}

func (rl *RedisLimiter) Close() {
	_ = rl.client.Close()
}

// RateLimit enforces limit hits per window for each client IP within class.
func RateLimit(l Limiter, class string, limit int, window time.Duration, prom *observability.Prom) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit <= 0 {
			c.Next()
			return
		}

		d := l.Allow(class+":"+clientIP(c), limit, window)

		if !d.Allowed {
			prom.RateLimited(class)
			c.Header("Retry-After", strconv.Itoa(d.RetryAfter(time.Now())))
			abortWith(c, http.StatusTooManyRequests, CodeRateLimited, "Too many requests. Please try again later.")
			return
		}

		c.Next()
	}
}

func clientIP(c *gin.Context) string {
	// X-Forwarded-For counts only when the peer is a trusted proxy.
	ip := c.ClientIP()

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	if ip == "" {
		return "unknown"
	}

	return ip
}
