package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/wb-go/wbf/retry"
)

// EventPublisher - контракт продюсера очереди (wbf kafka.Producer)
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, value []byte) error
}

// Стратегия короткая: нотификация best-effort и не должна надолго держать пайплайн
var kafkaStrategy = retry.Strategy{
	Attempts: 2,
	Delay:    200 * time.Millisecond,
	Backoff:  2,
}

// KafkaSink publishes envelopes keyed by session id.
type KafkaSink struct {
	pub EventPublisher
}

func NewKafkaSink(pub EventPublisher) KafkaSink {
	return KafkaSink{pub: pub}
}

func (k KafkaSink) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	logger := mwlogger.LoggerFromContext(ctx)

	value, err := json.Marshal(Envelope{Event: event, SessionID: sessionID, Payload: payload})
	if err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("Failed to marshal event for Kafka")
		return
	}

	if err := k.pub.SendWithRetry(ctx, kafkaStrategy, []byte(sessionID), value); err != nil {
		logger.Error().Err(err).Str("event", string(event)).Msg("Failed to publish event to Kafka")
	}
}
