package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/imageproc"
	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/notify"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

const (
	testID     = "0b9d7c55-52a4-4b1b-8f3e-3a1c0f7e9d21"
	mainKey    = "generated/originals/landscape/" + testID + ".webp"
	thumbKey   = "generated/thumbnails/landscape/" + testID + "_thumb.webp"
	publicBase = "https://cdn.example.com/"
)

func rawImage(w, h int) model.RawImage {
	data := make([]float32, w*h*3)
	for i := range data {
		data[i] = float32(i%7) / 7
	}
	return model.RawImage{Width: w, Height: h, Channels: 3, Float: data}
}

func testJob(index int) Job {
	return Job{
		Index: index,
		Image: rawImage(16, 8),
		Params: model.UploadParams{
			Quality:      90,
			ThumbQuality: 70,
			ThumbSize:    4,
			SessionID:    "client-1",
		},
		Bucket:    "media",
		PublicURL: publicBase,
	}
}

func newTestUploader(enc *mockEncoder, n *mockNotifier) *Uploader {
	return NewUploader(enc, imageproc.CropThumbnailer{}, n,
		WithRetryStrategy(retry.Strategy{Attempts: MaxAttempts}),
		WithIDGenerator(func() string { return testID }),
	)
}

func TestUploader_Process_OK(t *testing.T) {
	enc := &mockEncoder{}
	notifier := &mockNotifier{}
	strg := &mockStorage{}

	err := newTestUploader(enc, notifier).Process(context.Background(), strg, testJob(0))
	require.NoError(t, err)

	require.Len(t, strg.calls, 2)
	for _, c := range strg.calls {
		require.Equal(t, "media", c.bucket)
		require.Equal(t, model.WEBP, c.contentType)
		require.Equal(t, int64(len(c.data)), c.size)
	}
	require.Equal(t, 1, strg.count(mainKey))
	require.Equal(t, 1, strg.count(thumbKey))

	// миниатюра - квадрат заданного размера, оригинал - в полном размере
	require.Equal(t, 16, enc.bounds[90].Dx())
	require.Equal(t, 8, enc.bounds[90].Dy())
	require.Equal(t, 4, enc.bounds[70].Dx())
	require.Equal(t, 4, enc.bounds[70].Dy())

	require.Len(t, notifier.events, 1)
	ev := notifier.events[0]
	require.Equal(t, model.EventImageUploaded, ev.name)
	require.Equal(t, "client-1", ev.sessionID)
	require.Equal(t, model.UploadedPayload{
		URL:         "https://cdn.example.com/" + mainKey,
		ThumbURL:    "https://cdn.example.com/" + thumbKey,
		Path:        mainKey,
		ThumbPath:   thumbKey,
		Orientation: model.Landscape,
		Width:       16,
		Height:      8,
	}, ev.payload)
}

func TestUploader_Process_RetriesOnlyPendingArtifact(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{
		putFn: func(key string, attempt int) error {
			if key == mainKey && attempt < 3 {
				return errors.New("connection reset")
			}
			return nil
		},
	}

	err := newTestUploader(&mockEncoder{}, notifier).Process(context.Background(), strg, testJob(0))
	require.NoError(t, err)

	require.Equal(t, 3, strg.count(mainKey))
	require.Equal(t, 1, strg.count(thumbKey))

	// каждая попытка получает поток с начала
	for _, c := range strg.calls {
		if c.key == mainKey {
			require.Equal(t, "encoded-q90-16x8", string(c.data))
		}
	}

	require.Len(t, notifier.events, 1)
	payload := notifier.events[0].payload.(model.UploadedPayload)
	require.Equal(t, model.EventImageUploaded, notifier.events[0].name)
	require.Equal(t, "https://cdn.example.com/"+mainKey, payload.URL)
	require.Equal(t, "https://cdn.example.com/"+thumbKey, payload.ThumbURL)
}

func TestUploader_Process_ExhaustedRetries(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{
		putFn: func(key string, attempt int) error {
			if key == mainKey {
				return errors.New("503 slow down")
			}
			return nil
		},
	}

	err := newTestUploader(&mockEncoder{}, notifier).Process(context.Background(), strg, testJob(7))
	require.ErrorIs(t, err, model.ErrExhaustedRetries)
	require.ErrorIs(t, err, model.ErrUpload)

	require.Equal(t, MaxAttempts, strg.count(mainKey))
	require.Equal(t, 1, strg.count(thumbKey))

	require.Empty(t, notifier.byName(model.EventImageUploaded))
	failed := notifier.byName(model.EventUploadFailed)
	require.Len(t, failed, 1)
	payload := failed[0].payload.(model.FailedPayload)
	require.Equal(t, 7, payload.Index)
	require.NotEmpty(t, payload.Error)
	require.Contains(t, payload.Error, "503 slow down")
	require.Equal(t, "client-1", failed[0].sessionID)
}

func TestUploader_Process_BothArtifactsFailThenRecover(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{
		putFn: func(key string, attempt int) error {
			if attempt == 1 {
				return errors.New("timeout")
			}
			return nil
		},
	}

	require.NoError(t, newTestUploader(&mockEncoder{}, notifier).Process(context.Background(), strg, testJob(0)))
	require.Equal(t, 2, strg.count(mainKey))
	require.Equal(t, 2, strg.count(thumbKey))
	require.Len(t, notifier.byName(model.EventImageUploaded), 1)
}

func TestUploader_Process_EncodeError(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{}
	enc := &mockEncoder{
		encodeFn: func(quality int) error {
			if quality == 70 {
				return errors.New("image too large")
			}
			return nil
		},
	}

	err := newTestUploader(enc, notifier).Process(context.Background(), strg, testJob(3))
	require.ErrorIs(t, err, model.ErrEncode)
	require.Empty(t, strg.calls)

	failed := notifier.byName(model.EventUploadFailed)
	require.Len(t, failed, 1)
	require.Equal(t, 3, failed[0].payload.(model.FailedPayload).Index)
	require.True(t, strings.Contains(failed[0].payload.(model.FailedPayload).Error, "image too large"))
}

func TestUploader_Process_InvalidInput(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{}

	job := testJob(1)
	job.Image = model.RawImage{Width: 0, Height: 10, Channels: 3}

	err := newTestUploader(&mockEncoder{}, notifier).Process(context.Background(), strg, job)
	require.ErrorIs(t, err, model.ErrInvalidInput)
	require.Empty(t, strg.calls)
	require.Len(t, notifier.byName(model.EventUploadFailed), 1)
	require.Empty(t, notifier.byName(model.EventImageUploaded))
}

func TestUploader_Process_PortraitKeysShareID(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{}

	job := testJob(0)
	job.Image = rawImage(5, 9)
	job.Params.SessionID = ""

	u := NewUploader(&mockEncoder{}, imageproc.CropThumbnailer{}, notifier, WithRetryStrategy(retry.Strategy{}))
	require.NoError(t, u.Process(context.Background(), strg, job))

	payload := notifier.events[0].payload.(model.UploadedPayload)
	require.Equal(t, model.Portrait, payload.Orientation)
	require.Equal(t, "", notifier.events[0].sessionID)

	id := strings.TrimSuffix(strings.TrimPrefix(payload.Path, "generated/originals/portrait/"), ".webp")
	require.Equal(t, "generated/thumbnails/portrait/"+id+"_thumb.webp", payload.ThumbPath)
}

func TestUploader_Process_SlowSinkDoesNotBlock(t *testing.T) {
	slow := &slowSink{delay: 500 * time.Millisecond}
	async := notify.NewAsync(slow, 4)
	up := NewUploader(&mockEncoder{}, imageproc.CropThumbnailer{}, notify.Multi{notify.LogSink{}, async},
		WithRetryStrategy(retry.Strategy{Attempts: MaxAttempts}),
		WithIDGenerator(func() string { return testID }),
	)

	start := time.Now()
	require.NoError(t, up.Process(context.Background(), &mockStorage{}, testJob(0)))
	require.Less(t, time.Since(start), 250*time.Millisecond)

	// событие все равно доставляется
	async.Close()
	require.Len(t, slow.byName(model.EventImageUploaded), 1)
}

func TestUploader_Process_NoSleepAfterLastAttempt(t *testing.T) {
	notifier := &mockNotifier{}
	strg := &mockStorage{
		putFn: func(key string, attempt int) error { return errors.New("503 slow down") },
	}
	up := NewUploader(&mockEncoder{}, imageproc.CropThumbnailer{}, notifier,
		WithRetryStrategy(retry.Strategy{Attempts: 3, Delay: 60 * time.Millisecond, Backoff: 2}),
		WithIDGenerator(func() string { return testID }),
	)

	start := time.Now()
	err := up.Process(context.Background(), strg, testJob(0))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, model.ErrExhaustedRetries)
	require.Equal(t, 3, strg.count(mainKey))
	// паузы 60ms + 120ms между попытками, без 240ms после последней
	require.GreaterOrEqual(t, elapsed, 180*time.Millisecond)
	require.Less(t, elapsed, 400*time.Millisecond)
	require.Len(t, notifier.byName(model.EventUploadFailed), 1)
}
