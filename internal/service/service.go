// Package service provides the batch scheduler: validation and bounded fan-out of images
package service

import (
	"context"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/UnendingLoop/WebPUploader/internal/pipeline"
	"github.com/UnendingLoop/WebPUploader/internal/storage"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency - сколько картинок батча обрабатывается одновременно
const DefaultConcurrency = 4

// ImageUploader - контракт пайплайна одной картинки
type ImageUploader interface {
	Process(ctx context.Context, store pipeline.ObjectStorage, job pipeline.Job) error
}

type UploadService struct {
	uploader    ImageUploader
	storages    storage.Factory
	concurrency int
}

func NewUploadService(up ImageUploader, storages storage.Factory, concurrency int) *UploadService {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &UploadService{
		uploader:    up,
		storages:    storages,
		concurrency: concurrency,
	}
}

// Process validates the run configuration, then pushes every image through the pipeline.
// Sibling failures do not cancel anything: all images reach a terminal state and the
// first failure in completion order is returned afterwards.
func (s UploadService) Process(ctx context.Context, req *model.BatchRequest) (*model.BatchAck, error) {
	logger := mwlogger.LoggerFromContext(ctx)

	// валидируем все до первого сетевого вызова
	if err := validateCredentials(req.Credentials); err != nil {
		return nil, err
	}
	if err := validateNormalizeParams(&req.Params); err != nil {
		return nil, err
	}

	store, err := s.storages(req.Credentials)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to init object storage client")
		return nil, err
	}

	// отмены нет: начатый батч доводится до конца даже если продюсер отвалился
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, raw := range req.Images {
		g.Go(func() error {
			return s.uploader.Process(ctx, store, pipeline.Job{
				Index:     i,
				Image:     raw,
				Params:    req.Params,
				Bucket:    req.Credentials.Bucket,
				PublicURL: req.Credentials.PublicURL,
			})
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Int("images", len(req.Images)).Msg("Batch finished with failures")
		return nil, err
	}

	logger.Info().Int("images", len(req.Images)).Msg("Batch uploaded")
	return &model.BatchAck{Accepted: len(req.Images)}, nil
}
