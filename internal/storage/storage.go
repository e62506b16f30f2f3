// Package storage builds per-batch object storage clients from run credentials
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/storage/miniostorage"
	"github.com/UnendingLoop/WebPUploader/internal/storage/ossstorage"
)

const (
	DriverS3  = "s3"
	DriverOSS = "oss"
)

// ObjectStorage - контракт для загрузки артефактов; клиент общий для всех горутин батча
type ObjectStorage interface {
	Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error
}

// Factory creates a client for one batch run.
type Factory func(creds model.Credentials) (ObjectStorage, error)

// NewFactory returns a Factory bound to the configured driver.
func NewFactory(driver string) (Factory, error) {
	switch driver {
	case "", DriverS3:
		return func(creds model.Credentials) (ObjectStorage, error) {
			client, err := miniostorage.NewMinioClient(creds)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrStorageInit, err)
			}
			return client, nil
		}, nil
	case DriverOSS:
		return func(creds model.Credentials) (ObjectStorage, error) {
			client, err := ossstorage.NewOSSClient(creds)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", model.ErrStorageInit, err)
			}
			return client, nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnsupportedDriver, driver)
	}
}
