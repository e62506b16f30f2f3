// Package metrics exports pipeline counters to Prometheus
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	ResultOK    = "ok"
	ResultError = "error"

	StatusUploaded = "uploaded"
	StatusFailed   = "failed"
)

// Observer receives pipeline observations; PrometheusObserver implements it.
type Observer interface {
	ObserveImage(status string)
	ObserveUploadAttempt(kind model.ArtifactKind, err error)
	ObserveEncode(kind model.ArtifactKind, d time.Duration)
}

// Noop drops every observation.
type Noop struct{}

func (Noop) ObserveImage(string)                             {}
func (Noop) ObserveUploadAttempt(model.ArtifactKind, error)  {}
func (Noop) ObserveEncode(model.ArtifactKind, time.Duration) {}

type PrometheusObserver struct {
	images         *prometheus.CounterVec
	uploadAttempts *prometheus.CounterVec
	encodeDuration *prometheus.HistogramVec
}

// NewPrometheusObserver registers the collectors on reg (DefaultRegisterer when nil).
// Повторная регистрация переиспользует уже существующие коллекторы.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "webp_uploader"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	images, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "images_total",
		Help:      "Images that reached a terminal state, by status.",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}

	attempts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_attempts_total",
		Help:      "Artifact upload attempts, by artifact kind and result.",
	}, []string{"artifact", "result"}))
	if err != nil {
		return nil, err
	}

	encode := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "encode_duration_seconds",
		Help:      "Time spent encoding one artifact.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"artifact"})
	if err := reg.Register(encode); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register encode histogram: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("register encode histogram: %w", err)
		}
		encode = existing
	}

	return &PrometheusObserver{images: images, uploadAttempts: attempts, encodeDuration: encode}, nil
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register counter: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("register counter: %w", err)
		}
		return existing, nil
	}
	return c, nil
}

func (o *PrometheusObserver) ObserveImage(status string) {
	o.images.WithLabelValues(status).Inc()
}

func (o *PrometheusObserver) ObserveUploadAttempt(kind model.ArtifactKind, err error) {
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	o.uploadAttempts.WithLabelValues(string(kind), result).Inc()
}

func (o *PrometheusObserver) ObserveEncode(kind model.ArtifactKind, d time.Duration) {
	o.encodeDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}
