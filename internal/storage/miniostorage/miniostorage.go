// Package miniostorage provides structure to work with S3-compatible storage through minio-go
package miniostorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DefaultRegion - R2 и прочие S3-совместимые хранилища принимают "auto"
const DefaultRegion = "auto"

type MinioImageStorage struct {
	client *minio.Client
}

// NewMinioClient doesn't touch the network: minio.New only prepares a signer (v4).
func NewMinioClient(creds model.Credentials) (*MinioImageStorage, error) {
	host, secure, err := ParseEndpoint(creds.Endpoint)
	if err != nil {
		return nil, err
	}

	region := creds.Region
	if region == "" {
		region = DefaultRegion
	}

	strg, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(creds.AccessKey, creds.SecretKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	return &MinioImageStorage{client: strg}, nil
}

func (s *MinioImageStorage) Put(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	if r == nil {
		return errors.New("nil reader passed to storage.Put")
	}

	if _, err := s.client.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	}); err != nil {
		return err
	}

	return nil
}

// ParseEndpoint accepts either a bare host[:port] or an http(s) URL.
func ParseEndpoint(endpoint string) (host string, secure bool, err error) {
	if !strings.Contains(endpoint, "://") {
		if endpoint == "" {
			return "", false, errors.New("empty storage endpoint")
		}
		return strings.TrimRight(endpoint, "/"), true, nil
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse storage endpoint: %w", err)
	}

	switch u.Scheme {
	case "https":
		secure = true
	case "http":
	default:
		return "", false, fmt.Errorf("unsupported endpoint scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return "", false, fmt.Errorf("storage endpoint %q has no host", endpoint)
	}
	if u.Path != "" && u.Path != "/" {
		return "", false, fmt.Errorf("storage endpoint %q must not contain a path", endpoint)
	}

	return u.Host, secure, nil
}
