package services

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Estud-AI/EstudAI/internal/logger"
)

// Limiter gates expensive generation calls per user.
type Limiter interface {
	Allow(ctx context.Context, userID int64) error
}

// RedisLimiter is a fixed-window counter per user. A limit of zero or less disables it.
type RedisLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	log    *logger.Logger
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, perMinute int, log *logger.Logger) *RedisLimiter {
	return &RedisLimiter{
		redis:  client,
		limit:  perMinute,
		window: time.Minute,
		log:    log.With("component", "limiter"),
		now:    time.Now,
	}
}

func (l *RedisLimiter) key(userID int64) string {
	bucket := l.now().Unix() / int64(l.window/time.Second)
	return fmt.Sprintf("ratelimit:generate:%d:%d", userID, bucket)
}

// Allow fails open when Redis is unreachable; the limiter never blocks generation on its own outage.
func (l *RedisLimiter) Allow(ctx context.Context, userID int64) error {
	if l == nil || l.limit <= 0 {
		return nil
	}
	key := l.key(userID)

	pipe := l.redis.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("rate limit check failed", "user_id", userID, "error", err)
		return nil
	}

	if incr.Val() > int64(l.limit) {
		return &RateLimitError{Message: fmt.Sprintf("generation limit of %d per minute reached, try again shortly", l.limit)}
	}
	return nil
}
