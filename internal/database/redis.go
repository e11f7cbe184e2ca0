package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients keeps subscriptions on their own connection so a long-lived
// SUBSCRIBE never starves the counters and publishes.
type RedisClients struct {
	Cmd    *redis.Client
	PubSub *redis.Client
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmdClient := redis.NewClient(opt)
	if err := cmdClient.Ping(ctx).Err(); err != nil {
		cmdClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (cmd): %w", err)
	}

	pubsubOpt := *opt
	pubsubClient := redis.NewClient(&pubsubOpt)
	if err := pubsubClient.Ping(ctx).Err(); err != nil {
		cmdClient.Close()
		pubsubClient.Close()
		return nil, fmt.Errorf("failed to ping Redis (pubsub): %w", err)
	}

	return &RedisClients{Cmd: cmdClient, PubSub: pubsubClient}, nil
}

func (r *RedisClients) Close() {
	r.Cmd.Close()
	r.PubSub.Close()
}
