package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserver(t *testing.T) {
	reg := prometheus.NewRegistry()

	obs, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	obs.ObserveImage(StatusUploaded)
	obs.ObserveImage(StatusUploaded)
	obs.ObserveImage(StatusFailed)
	obs.ObserveUploadAttempt(model.KindOriginal, nil)
	obs.ObserveUploadAttempt(model.KindOriginal, errors.New("boom"))
	obs.ObserveUploadAttempt(model.KindThumbnail, nil)
	obs.ObserveEncode(model.KindThumbnail, 20*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(obs.images.WithLabelValues(StatusUploaded)))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.images.WithLabelValues(StatusFailed)))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.uploadAttempts.WithLabelValues("originals", ResultError)))
	require.Equal(t, 1.0, testutil.ToFloat64(obs.uploadAttempts.WithLabelValues("thumbnails", ResultOK)))
	require.Equal(t, 1, testutil.CollectAndCount(obs.encodeDuration))
}

func TestPrometheusObserver_ReusesRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("test", reg)
	require.NoError(t, err)

	first.ObserveImage(StatusUploaded)
	require.Equal(t, 1.0, testutil.ToFloat64(second.images.WithLabelValues(StatusUploaded)))
}
