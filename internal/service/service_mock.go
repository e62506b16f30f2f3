package service

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/pipeline"
	"github.com/UnendingLoop/WebPUploader/internal/storage"
)

// MOCK UPLOADER

type mockUploader struct {
	processFn func(ctx context.Context, store pipeline.ObjectStorage, job pipeline.Job) error
}

func (m *mockUploader) Process(ctx context.Context, store pipeline.ObjectStorage, job pipeline.Job) error {
	return m.processFn(ctx, store, job)
}

// MOCK STORAGE

type mockStorage struct {
	mu   sync.Mutex
	keys []string
	// ключи с этой подстрокой всегда падают
	failOn string
}

func (m *mockStorage) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, ct string) error {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return err
	}

	m.mu.Lock()
	m.keys = append(m.keys, key)
	m.mu.Unlock()

	if m.failOn != "" && strings.Contains(key, m.failOn) {
		return io.ErrUnexpectedEOF
	}
	return nil
}

func (m *mockStorage) count(substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, k := range m.keys {
		if strings.Contains(k, substr) {
			n++
		}
	}
	return n
}

func factoryFor(strg storage.ObjectStorage, calls *int) storage.Factory {
	return func(model.Credentials) (storage.ObjectStorage, error) {
		*calls++
		return strg, nil
	}
}

// MOCK NOTIFIER

type mockNotifier struct {
	mu     sync.Mutex
	events map[model.Event][]any
}

func (m *mockNotifier) Publish(_ context.Context, event model.Event, payload any, _ string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.events == nil {
		m.events = make(map[model.Event][]any)
	}
	m.events[event] = append(m.events[event], payload)
}

func (m *mockNotifier) total() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, v := range m.events {
		n += len(v)
	}
	return n
}
