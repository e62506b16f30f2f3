package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/UnendingLoop/WebPUploader/internal/appconfig"
	"github.com/UnendingLoop/WebPUploader/internal/codec"
	"github.com/UnendingLoop/WebPUploader/internal/codec/webpcodec"
	"github.com/UnendingLoop/WebPUploader/internal/kafka"
	"github.com/UnendingLoop/WebPUploader/internal/notify"
	"github.com/redis/go-redis/v9"
	wbfkafka "github.com/wb-go/wbf/kafka"
)

type namedCloser struct {
	name  string
	close func() error
}

func newEncoder(name string) (codec.Encoder, error) {
	switch name {
	case "", appconfig.EncoderWebP:
		return webpcodec.New(), nil
	case appconfig.EncoderJPEG:
		return codec.JPEGEncoder{}, nil
	default:
		return nil, fmt.Errorf("unknown encoder %q", name)
	}
}

// buildSinks - брокеры опциональны: недоступный брокер не мешает загрузкам.
// Брокерные синки уходят за notify.Async, пайплайн не ждет их подтверждений.
func buildSinks(ctx context.Context, cfg appconfig.AppConfig, hub *notify.Hub) (notify.Multi, []namedCloser) {
	sinks := notify.Multi{notify.LogSink{}, hub}
	var brokers notify.Multi
	var closers []namedCloser

	if cfg.KafkaEnabled() {
		waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := kafka.WaitKafkaReady(waitCtx, cfg.KafkaBroker, 5*time.Second)
		if err == nil {
			err = kafka.InitKafkaTopics(waitCtx, cfg.KafkaBroker, 10*time.Second, cfg.KafkaTopic)
		}
		cancel()

		if err != nil {
			log.Printf("Kafka sink disabled: %v", err)
		} else {
			pub := wbfkafka.NewProducer([]string{cfg.KafkaBroker}, cfg.KafkaTopic)
			brokers = append(brokers, notify.NewKafkaSink(pub))
			closers = append(closers, namedCloser{name: "Kafka-producer", close: pub.Close})
		}
	}

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Printf("Redis is not reachable yet, publishing anyway: %v", err)
		}
		cancel()
		brokers = append(brokers, notify.NewRedisSink(rdb, cfg.RedisPrefix))
		closers = append(closers, namedCloser{name: "Redis", close: rdb.Close})
	}

	if len(brokers) > 0 {
		async := notify.NewAsync(brokers, notify.DefaultAsyncQueueSize)
		sinks = append(sinks, async)
		// очередь дренируется до закрытия продюсеров
		closers = append([]namedCloser{{name: "Notification dispatcher", close: func() error {
			async.Close()
			return nil
		}}}, closers...)
	}

	return sinks, closers
}
