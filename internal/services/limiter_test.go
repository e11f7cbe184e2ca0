package services

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
)

func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestRedisLimiter_Disabled(t *testing.T) {
	var nilLimiter *RedisLimiter
	assert.NoError(t, nilLimiter.Allow(context.Background(), 1))

	l := NewRedisLimiter(unreachableRedis(), 0, logger.Nop())
	assert.NoError(t, l.Allow(context.Background(), 1))
}

func TestRedisLimiter_FailsOpen(t *testing.T) {
	client := unreachableRedis()
	defer client.Close()

	l := NewRedisLimiter(client, 1, logger.Nop())
	assert.NoError(t, l.Allow(context.Background(), 7))
}

func TestRedisLimiter_KeyWindows(t *testing.T) {
	l := NewRedisLimiter(unreachableRedis(), 5, logger.Nop())
	base := time.Date(2024, 1, 10, 12, 0, 5, 0, time.UTC)

	l.now = func() time.Time { return base }
	k1 := l.key(7)
	l.now = func() time.Time { return base.Add(50 * time.Second) }
	k2 := l.key(7)
	l.now = func() time.Time { return base.Add(61 * time.Second) }
	k3 := l.key(7)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.Contains(t, k1, "ratelimit:generate:7:")
	assert.NotEqual(t, k1, l.key(8))
}

func TestRedisPublisher_BestEffort(t *testing.T) {
	client := unreachableRedis()
	defer client.Close()

	p := NewRedisPublisher(client, logger.Nop())
	assert.NotPanics(t, func() {
		p.PublishUpdate(context.Background(), 7, models.WSMessage{Type: "status_update", Payload: models.StatusUpdate{Step: 1}})
	})
	assert.Equal(t, "user_updates:7", UserChannel(7))
}
