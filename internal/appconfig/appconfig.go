// Package appconfig reads the application settings from env/.env through wbf/config
package appconfig

import (
	"log"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/imageproc"
	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/pipeline"
	"github.com/UnendingLoop/WebPUploader/internal/service"
	"github.com/UnendingLoop/WebPUploader/internal/storage"
)

const (
	EncoderWebP = "webp"
	EncoderJPEG = "jpeg"
)

// Source - то, что нужно от wbf config.Config
type Source interface {
	GetString(key string) string
	GetInt(key string) int
}

type AppConfig struct {
	Port     string
	GinMode  string
	LogLevel string

	StorageDriver string
	Storage       model.Credentials

	ThumbStrategy  string
	Encoder        string
	Concurrency    int
	UploadAttempts int
	RetryDelay     time.Duration
	Defaults       model.UploadParams

	KafkaBroker string
	KafkaTopic  string
	RedisAddr   string
	RedisPrefix string
}

func Load(src Source) AppConfig {
	cfg := AppConfig{
		Port:     orDefault(src.GetString("APP_PORT"), "8080"),
		GinMode:  orDefault(src.GetString("GIN_MODE"), "release"),
		LogLevel: orDefault(src.GetString("LOG_LEVEL"), "info"),

		StorageDriver: orDefault(src.GetString("STORAGE_DRIVER"), storage.DriverS3),
		Storage: model.Credentials{
			Endpoint:  src.GetString("S3_ENDPOINT"),
			AccessKey: src.GetString("S3_ACCESS_KEY"),
			SecretKey: src.GetString("S3_SECRET_KEY"),
			Bucket:    src.GetString("S3_BUCKET"),
			PublicURL: src.GetString("S3_PUBLIC_URL"),
			Region:    src.GetString("S3_REGION"),
		},

		ThumbStrategy:  orDefault(src.GetString("THUMB_STRATEGY"), imageproc.StrategyCrop),
		Encoder:        orDefault(src.GetString("ENCODER"), EncoderWebP),
		Concurrency:    positiveOr(src.GetInt("BATCH_CONCURRENCY"), service.DefaultConcurrency),
		UploadAttempts: positiveOr(src.GetInt("UPLOAD_ATTEMPTS"), pipeline.MaxAttempts),
		Defaults: model.UploadParams{
			Quality:      positiveOr(src.GetInt("UPLOAD_DEFAULT_QUALITY"), model.DefaultQuality),
			ThumbQuality: positiveOr(src.GetInt("UPLOAD_DEFAULT_THUMB_QUALITY"), model.DefaultThumbQuality),
			ThumbSize:    positiveOr(src.GetInt("UPLOAD_DEFAULT_THUMB_SIZE"), model.DefaultThumbSize),
		},

		KafkaBroker: src.GetString("KAFKA_BROKER"),
		KafkaTopic:  src.GetString("KAFKA_TOPIC"),
		RedisAddr:   src.GetString("REDIS_ADDR"),
		RedisPrefix: src.GetString("REDIS_CHANNEL_PREFIX"),
	}

	if raw := src.GetString("UPLOAD_RETRY_DELAY"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			log.Printf("Incorrect UPLOAD_RETRY_DELAY %q, retrying without delay", raw)
		} else {
			cfg.RetryDelay = d
		}
	}

	return cfg
}

func (c AppConfig) KafkaEnabled() bool { return c.KafkaBroker != "" && c.KafkaTopic != "" }

func (c AppConfig) RedisEnabled() bool { return c.RedisAddr != "" }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
