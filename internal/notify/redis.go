package notify

import (
	"context"
	"encoding/json"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultChannelPrefix = "uploads"
	broadcastChannel     = "broadcast"
)

// RedisPublisher is satisfied by *redis.Client.
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisSink publishes envelopes on <prefix>:<session> or <prefix>:broadcast.
type RedisSink struct {
	client RedisPublisher
	prefix string
}

func NewRedisSink(client RedisPublisher, prefix string) RedisSink {
	if prefix == "" {
		prefix = DefaultChannelPrefix
	}
	return RedisSink{client: client, prefix: prefix}
}

func (s RedisSink) Channel(sessionID string) string {
	if sessionID == "" {
		return s.prefix + ":" + broadcastChannel
	}
	return s.prefix + ":" + sessionID
}

func (s RedisSink) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	logger := mwlogger.LoggerFromContext(ctx)

	msg, err := json.Marshal(Envelope{Event: event, SessionID: sessionID, Payload: payload})
	if err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal event for Redis")
		return
	}

	if err := s.client.Publish(ctx, s.Channel(sessionID), msg).Err(); err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("Failed to publish event to Redis")
	}
}
