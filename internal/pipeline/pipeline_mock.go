package pipeline

import (
	"context"
	"fmt"
	"image"
	"io"
	"sync"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/model"
)

// MOCK STORAGE

type putCall struct {
	bucket      string
	key         string
	data        []byte
	size        int64
	contentType string
}

type mockStorage struct {
	mu    sync.Mutex
	calls []putCall
	putFn func(key string, attempt int) error
}

func (m *mockStorage) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, ct string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.calls = append(m.calls, putCall{bucket: bucket, key: key, data: data, size: size, contentType: ct})
	attempt := m.countLocked(key)
	m.mu.Unlock()

	if m.putFn == nil {
		return nil
	}
	return m.putFn(key, attempt)
}

func (m *mockStorage) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countLocked(key)
}

func (m *mockStorage) countLocked(key string) int {
	n := 0
	for _, c := range m.calls {
		if c.key == key {
			n++
		}
	}
	return n
}

// MOCK ENCODER

type mockEncoder struct {
	mu       sync.Mutex
	bounds   map[int]image.Rectangle
	encodeFn func(quality int) error
}

func (m *mockEncoder) Encode(img image.Image, quality int) ([]byte, error) {
	m.mu.Lock()
	if m.bounds == nil {
		m.bounds = make(map[int]image.Rectangle)
	}
	m.bounds[quality] = img.Bounds()
	m.mu.Unlock()

	if m.encodeFn != nil {
		if err := m.encodeFn(quality); err != nil {
			return nil, err
		}
	}
	return []byte(fmt.Sprintf("encoded-q%d-%dx%d", quality, img.Bounds().Dx(), img.Bounds().Dy())), nil
}

func (m *mockEncoder) ContentType() string { return model.WEBP }

func (m *mockEncoder) Ext() string { return ".webp" }

// MOCK NOTIFIER

type event struct {
	name      model.Event
	payload   any
	sessionID string
}

type mockNotifier struct {
	mu     sync.Mutex
	events []event
}

func (m *mockNotifier) Publish(_ context.Context, name model.Event, payload any, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event{name: name, payload: payload, sessionID: sessionID})
}

func (m *mockNotifier) byName(name model.Event) []event {
	m.mu.Lock()
	defer m.mu.Unlock()

	var res []event
	for _, e := range m.events {
		if e.name == name {
			res = append(res, e)
		}
	}
	return res
}

// SLOW SINK

type slowSink struct {
	delay time.Duration
	mockNotifier
}

func (s *slowSink) Publish(ctx context.Context, name model.Event, payload any, sessionID string) {
	time.Sleep(s.delay)
	s.mockNotifier.Publish(ctx, name, payload, sessionID)
}
