package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/choirhub/choir-api/internal/api/handler/v1/response"
	"github.com/choirhub/choir-api/internal/metrics"
)

// Limiter decides whether the caller identified by key may proceed. limit is
// the number of requests allowed per minute.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int) (bool, error)
}

// bucketIdleTTL is how long an untouched bucket is kept. After a minute
// without requests a bucket is full again, the same as a new one.
const bucketIdleTTL = time.Minute

// MemoryLimiter is a per-process token bucket.
type MemoryLimiter struct {
	mu        sync.Mutex
	state     map[string]*bucket
	now       func() time.Time
	lastSweep time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{
		state: make(map[string]*bucket),
		now:   time.Now,
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= bucketIdleTTL {
		l.sweep(now)
	}

	b, ok := l.state[key]
	if !ok {
		l.state[key] = &bucket{tokens: float64(limit - 1), last: now}
		return limit > 0, nil
	}

	b.tokens += now.Sub(b.last).Minutes() * float64(limit)
	if b.tokens > float64(limit) {
		b.tokens = float64(limit)
	}
	b.last = now

	if b.tokens < 1 {
		return false, nil
	}
	b.tokens--

	return true, nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	for key, b := range l.state {
		if now.Sub(b.last) > bucketIdleTTL {
			delete(l.state, key)
		}
	}
	l.lastSweep = now
}

// RedisLimiter counts requests in fixed one minute windows shared by every
// instance.
type RedisLimiter struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	window := l.now().Unix() / 60
	redisKey := fmt.Sprintf("ratelimit:%s:%d", key, window)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, 2*time.Minute)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= int64(limit), nil
}

// RateLimit limits requests per client IP. perMinute is read on every request
// so the limit follows config reloads; zero disables limiting. When primary
// fails the request is checked against fallback instead.
func RateLimit(primary, fallback Limiter, perMinute func() int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		limit := perMinute()
		if limit <= 0 {
			ctx.Next()
			return
		}

		key := ctx.ClientIP()
		if key == "" {
			key = "unknown"
		}

		allowed, err := primary.Allow(ctx.Request.Context(), key, limit)
		if err != nil && fallback != nil {
			zap.L().Warn("rate limiter unavailable, using fallback", zap.Error(err))
			allowed, err = fallback.Allow(ctx.Request.Context(), key, limit)
		}
		if err != nil {
			// fail open
			ctx.Next()
			return
		}

		if !allowed {
			metrics.RateLimited.Inc()
			response.RenderErr(ctx, response.ErrTooManyRequests())
			return
		}

		ctx.Next()
	}
}
