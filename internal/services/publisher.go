package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Estud-AI/EstudAI/internal/logger"
	"github.com/Estud-AI/EstudAI/internal/models"
)

// Publisher delivers progress events to a user's open sockets.
type Publisher interface {
	PublishUpdate(ctx context.Context, userID int64, msg models.WSMessage)
}

// UserChannel is the pub/sub channel the websocket hub subscribes to for userID.
func UserChannel(userID int64) string {
	return fmt.Sprintf("user_updates:%d", userID)
}

type RedisPublisher struct {
	redis *redis.Client
	log   *logger.Logger
}

func NewRedisPublisher(client *redis.Client, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{redis: client, log: log.With("component", "publisher")}
}

// PublishUpdate is best effort: failures are logged and dropped.
func (p *RedisPublisher) PublishUpdate(ctx context.Context, userID int64, msg models.WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		p.log.Warn("failed to encode update", "type", msg.Type, "error", err)
		return
	}
	if err := p.redis.Publish(ctx, UserChannel(userID), data).Err(); err != nil {
		p.log.Warn("failed to publish update", "user_id", userID, "type", msg.Type, "error", err)
	}
}
