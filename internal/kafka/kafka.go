// Package kafka provides kafka readiness-probing and topic bootstrap for the event sink
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// InitKafkaTopics - creates topics in kafka, already existing topics count as success
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}
	req := kafkago.CreateTopicsRequest{Topics: topicConfigs(topics...)}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil {
			if failed := failedTopics(resp.Errors); len(failed) == 0 {
				log.Println("All topics created successfully!")
				return nil
			} else {
				log.Printf("Topics creation errors: %v", failed)
			}
		} else {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("init kafka topics: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}

func topicConfigs(topics ...string) []kafkago.TopicConfig {
	res := make([]kafkago.TopicConfig, 0, len(topics))
	for _, t := range topics {
		res = append(res, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}
	return res
}

func failedTopics(errs map[string]error) map[string]error {
	failed := make(map[string]error)
	for k, v := range errs {
		if v != nil && !errors.Is(v, kafkago.TopicAlreadyExists) {
			failed[k] = v
		}
	}
	return failed
}

// WaitKafkaReady - waits until the broker accepts TCP connections or ctx ends
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	for {
		conn, err := kafkago.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return nil
		}

		log.Printf("Kafka not ready, retrying in %v...", delay)
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait kafka: %w", ctx.Err())
		case <-time.After(delay):
		}
	}
}
