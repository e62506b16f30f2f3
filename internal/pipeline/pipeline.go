// Package pipeline drives one image through encode, upload with retry and the terminal notification
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/codec"
	"github.com/UnendingLoop/WebPUploader/internal/imageproc"
	"github.com/UnendingLoop/WebPUploader/internal/metrics"
	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/UnendingLoop/WebPUploader/internal/naming"
	"github.com/UnendingLoop/WebPUploader/internal/notify"
	"github.com/wb-go/wbf/retry"
	"golang.org/x/sync/errgroup"
)

// MaxAttempts - всего попыток на артефакт, включая первую
const MaxAttempts = 3

// DefaultRetryStrategy retries immediately, like a plain loop.
var DefaultRetryStrategy = retry.Strategy{
	Attempts: MaxAttempts,
	Delay:    0,
	Backoff:  1,
}

// ObjectStorage - контракт для работы с хранилищем
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// Job is one image of a batch plus everything needed to publish it.
type Job struct {
	Index     int
	Image     model.RawImage
	Params    model.UploadParams
	Bucket    string
	PublicURL string
}

type artifactState int

const (
	statePending artifactState = iota
	stateUploaded
)

type Uploader struct {
	encoder     codec.Encoder
	thumbnailer imageproc.Thumbnailer
	notifier    notify.Notifier
	observer    metrics.Observer
	strategy    retry.Strategy
	newID       func() string
}

type Option func(*Uploader)

func WithObserver(o metrics.Observer) Option {
	return func(u *Uploader) { u.observer = o }
}

// WithRetryStrategy overrides delay/backoff; Attempts below 1 fall back to MaxAttempts.
func WithRetryStrategy(s retry.Strategy) Option {
	return func(u *Uploader) {
		if s.Attempts < 1 {
			s.Attempts = MaxAttempts
		}
		u.strategy = s
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(u *Uploader) { u.newID = fn }
}

func NewUploader(enc codec.Encoder, th imageproc.Thumbnailer, n notify.Notifier, opts ...Option) *Uploader {
	u := &Uploader{
		encoder:     enc,
		thumbnailer: th,
		notifier:    n,
		observer:    metrics.Noop{},
		strategy:    DefaultRetryStrategy,
		newID:       naming.NewID,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Process runs one image to a terminal state and emits exactly one notification.
// On failure the error is returned after the failure event has been published.
func (u *Uploader) Process(ctx context.Context, store ObjectStorage, job Job) error {
	base := mwlogger.LoggerFromContext(ctx)
	logger := base.With().
		Int("image_index", job.Index).
		Str("session_id", job.Params.SessionID).
		Logger()
	ctx = mwlogger.WithLogger(ctx, logger)

	res, err := u.run(ctx, store, job)
	if err != nil {
		logger.Error().Err(err).Msg("Image processing failed")
		u.observer.ObserveImage(metrics.StatusFailed)
		u.notifier.Publish(ctx, model.EventUploadFailed, model.FailedPayload{
			Error: err.Error(),
			Index: job.Index,
		}, job.Params.SessionID)
		return err
	}

	logger.Info().Str("path", res.Path).Str("thumb_path", res.ThumbPath).Msg("Image uploaded")
	u.observer.ObserveImage(metrics.StatusUploaded)
	u.notifier.Publish(ctx, model.EventImageUploaded, *res, job.Params.SessionID)
	return nil
}

func (u *Uploader) run(ctx context.Context, store ObjectStorage, job Job) (*model.UploadedPayload, error) {
	src, err := imageproc.Normalize(job.Image)
	if err != nil {
		return nil, err
	}
	img := imageproc.ToNRGBA(src)

	orientation := model.OrientationOf(src.Width, src.Height)
	keys := naming.ArtifactKeys(u.newID(), orientation, u.encoder.Ext())

	logger := mwlogger.LoggerFromContext(ctx)
	logger.Debug().Str("image_id", keys.ID).Str("orientation", string(orientation)).Msg("Encoding artifacts")

	// Encoding
	original, thumb, err := u.encodePair(img, job.Params, keys)
	if err != nil {
		return nil, err
	}

	// Uploading
	if err := u.uploadPair(ctx, store, job.Bucket, original, thumb); err != nil {
		return nil, err
	}

	return &model.UploadedPayload{
		URL:         naming.PublicURL(job.PublicURL, keys.Main),
		ThumbURL:    naming.PublicURL(job.PublicURL, keys.Thumb),
		Path:        keys.Main,
		ThumbPath:   keys.Thumb,
		Orientation: orientation,
		Width:       src.Width,
		Height:      src.Height,
	}, nil
}

func (u *Uploader) encodePair(img image.Image, p model.UploadParams, keys naming.Keys) (*model.Artifact, *model.Artifact, error) {
	thumbImg := u.thumbnailer.Thumbnail(img, p.ThumbSize)

	var mainData, thumbData []byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		mainData, err = u.encode(model.KindOriginal, img, p.Quality)
		return err
	})
	g.Go(func() error {
		var err error
		thumbData, err = u.encode(model.KindThumbnail, thumbImg, p.ThumbQuality)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	original := model.NewArtifact(model.KindOriginal, u.encoder.ContentType(), mainData)
	original.Key = keys.Main
	thumb := model.NewArtifact(model.KindThumbnail, u.encoder.ContentType(), thumbData)
	thumb.Key = keys.Thumb

	return original, thumb, nil
}

func (u *Uploader) encode(kind model.ArtifactKind, img image.Image, quality int) ([]byte, error) {
	start := time.Now()
	data, err := u.encoder.Encode(img, quality)
	u.observer.ObserveEncode(kind, time.Since(start))

	if err != nil {
		if !errors.Is(err, model.ErrEncode) {
			err = fmt.Errorf("%w: %w", model.ErrEncode, err)
		}
		return nil, fmt.Errorf("%s: %w", kind, err)
	}
	return data, nil
}

// uploadPair uploads all artifacts concurrently; on retry only the still-pending ones are sent again.
// Пауза по стратегии только между попытками, после последней неудачной не ждем.
func (u *Uploader) uploadPair(ctx context.Context, store ObjectStorage, bucket string, artifacts ...*model.Artifact) error {
	states := make([]artifactState, len(artifacts))
	delay := u.strategy.Delay

	var lastErr error
	attempt := 1
	for ; ; attempt++ {
		lastErr = u.uploadPending(ctx, store, bucket, attempt, states, artifacts)
		if lastErr == nil {
			return nil
		}
		if attempt >= u.strategy.Attempts {
			break
		}
		if delay > 0 {
			time.Sleep(delay)
		}
		delay = time.Duration(float64(delay) * u.strategy.Backoff)
	}

	return fmt.Errorf("%w after %d attempts: %w", model.ErrExhaustedRetries, attempt, lastErr)
}

func (u *Uploader) uploadPending(ctx context.Context, store ObjectStorage, bucket string, attempt int, states []artifactState, artifacts []*model.Artifact) error {
	logger := mwlogger.LoggerFromContext(ctx)

	var g errgroup.Group
	for i, a := range artifacts {
		if states[i] == stateUploaded {
			continue
		}
		g.Go(func() error {
			// загрузка вычитывает поток, поэтому перематываем перед каждой попыткой
			if err := a.Rewind(); err != nil {
				return fmt.Errorf("rewind %s: %w", a.Key, err)
			}

			err := store.Put(ctx, bucket, a.Key, a.Reader(), a.Size(), a.ContentType)
			u.observer.ObserveUploadAttempt(a.Kind, err)
			if err != nil {
				logger.Warn().Err(err).Str("key", a.Key).Int("attempt", attempt).Msg("Artifact upload failed")
				return fmt.Errorf("%w %s: %w", model.ErrUpload, a.Key, err)
			}

			states[i] = stateUploaded
			return nil
		})
	}

	return g.Wait()
}
