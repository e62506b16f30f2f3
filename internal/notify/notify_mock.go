package notify

import (
	"context"
	"sync"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/wb-go/wbf/retry"
)

// MOCK KAFKA PUBLISHER

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}

// MOCK REDIS

type mockRedis struct {
	publishFn func(ctx context.Context, channel string, message interface{}) error
}

func (m *mockRedis) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	return redis.NewIntResult(1, m.publishFn(ctx, channel, message))
}

// RECORDING SINK

type published struct {
	event     model.Event
	sessionID string
}

type recordingSink struct {
	mu     sync.Mutex
	events []published
}

func (r *recordingSink) Publish(_ context.Context, event model.Event, _ any, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{event: event, sessionID: sessionID})
}

// BLOCKING SINK

type blockingSink struct {
	started chan struct{}
	release chan struct{}
	recordingSink
}

func newBlockingSink() *blockingSink {
	return &blockingSink{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (b *blockingSink) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	b.started <- struct{}{}
	<-b.release
	b.recordingSink.Publish(ctx, event, payload, sessionID)
}
