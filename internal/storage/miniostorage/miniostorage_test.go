package miniostorage

import (
	"context"
	"testing"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/stretchr/testify/require"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		endpoint   string
		wantHost   string
		wantSecure bool
		wantErr    bool
	}{
		{"https url", "https://acc.r2.cloudflarestorage.com", "acc.r2.cloudflarestorage.com", true, false},
		{"http url with port", "http://minio:9000", "minio:9000", false, false},
		{"trailing slash", "https://s3.example.com/", "s3.example.com", true, false},
		{"bare host", "minio:9000", "minio:9000", true, false},
		{"empty", "", "", false, true},
		{"ftp scheme", "ftp://host", "", false, true},
		{"with path", "https://host/bucket", "", false, true},
		{"no host", "https://", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, secure, err := ParseEndpoint(tt.endpoint)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantHost, host)
			require.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewMinioClient(t *testing.T) {
	strg, err := NewMinioClient(model.Credentials{
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "access",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	require.NotNil(t, strg)

	require.Error(t, strg.Put(context.Background(), "bucket", "key", nil, 0, model.WEBP))
}
