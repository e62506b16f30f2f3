// Package ossstorage provides structure to work with Aliyun OSS
package ossstorage

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

type OSSImageStorage struct {
	client *oss.Client
}

func NewOSSClient(creds model.Credentials) (*OSSImageStorage, error) {
	if creds.Endpoint == "" {
		return nil, errors.New("empty storage endpoint")
	}

	client, err := oss.New(creds.Endpoint, creds.AccessKey, creds.SecretKey)
	if err != nil {
		return nil, err
	}

	return &OSSImageStorage{client: client}, nil
}

func (s *OSSImageStorage) Put(ctx context.Context, bucket, key string, r io.Reader, _ int64, contentType string) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	b, err := s.client.Bucket(bucket)
	if err != nil {
		return err
	}

	// ведущий слэш в OSS создает пустую "папку"
	return b.PutObject(strings.TrimPrefix(key, "/"), r, oss.ContentType(contentType), oss.WithContext(ctx))
}
