package notify

import (
	"context"
	"sync"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
)

const DefaultAsyncQueueSize = 256

type queuedEvent struct {
	ctx       context.Context
	event     model.Event
	payload   any
	sessionID string
}

// Async hands events to next from a single background goroutine.
// Publish never waits for delivery: when the queue is full the event is dropped and logged.
type Async struct {
	next  Notifier
	queue chan queuedEvent
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Notifier, size int) *Async {
	if size <= 0 {
		size = DefaultAsyncQueueSize
	}
	a := &Async{
		next:  next,
		queue: make(chan queuedEvent, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Publish(ctx context.Context, event model.Event, payload any, sessionID string) {
	logger := mwlogger.LoggerFromContext(ctx)

	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		logger.Warn().Str("event", string(event)).Msg("Notification dispatcher closed, event dropped")
		return
	}

	// контекст запроса может завершиться раньше доставки, логгер из него сохраняем
	ev := queuedEvent{ctx: context.WithoutCancel(ctx), event: event, payload: payload, sessionID: sessionID}
	select {
	case a.queue <- ev:
	default:
		logger.Warn().Str("event", string(event)).Str("session_id", sessionID).Msg("Notification queue is full, event dropped")
	}
}

func (a *Async) run() {
	defer close(a.done)
	for ev := range a.queue {
		a.next.Publish(ev.ctx, ev.event, ev.payload, ev.sessionID)
	}
}

// Close stops accepting events and waits until the queued ones are delivered.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
}
