// Package notify delivers per-image terminal events to interested listeners
package notify

import (
	"context"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
)

// Notifier - fire-and-forget доставка события; пустой sessionID означает broadcast.
// Реализации не возвращают ошибок: доставка best-effort, сбои только логируются.
type Notifier interface {
	Publish(ctx context.Context, event model.Event, payload any, sessionID string)
}

// Envelope is the wire form for broker-backed sinks.
type Envelope struct {
	Event     model.Event `json:"event"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   any         `json:"payload"`
}

// Multi fans one event out to every sink in order.
type Multi []Notifier

func (m Multi) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	for _, n := range m {
		n.Publish(ctx, event, payload, sessionID)
	}
}

// LogSink writes every event to the context logger.
type LogSink struct{}

func (LogSink) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().
		Str("event", string(event)).
		Str("session_id", sessionID).
		Interface("payload", payload).
		Msg("Upload notification")
}
