package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/sentiscope/internal/models"
)

const (
	kafkaProduceRetries = 3
	kafkaFlushTimeoutMs = 5000
)

type kafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Events() chan kafka.Event
	Flush(timeoutMs int) int
	Close()
}

// KafkaPublisher emits one message per analyzed batch. It implements
// analysis.ResultSink.
type KafkaPublisher struct {
	producer kafkaProducer
	topic    string
	wg       sync.WaitGroup
}

func NewKafkaPublisher(broker, topic string) (*KafkaPublisher, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", broker),
		slog.String("topic", topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   broker,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	return newKafkaPublisher(p, topic), nil
}

func newKafkaPublisher(p kafkaProducer, topic string) *KafkaPublisher {
	kp := &KafkaPublisher{producer: p, topic: topic}
	kp.wg.Add(1)
	go kp.drainEvents()
	return kp
}

func (kp *KafkaPublisher) Name() string { return "kafka" }

// BuildResultMessage keys the message by batch id so all records of one
// batch land on the same partition.
func BuildResultMessage(topic string, batch models.ArchivedBatch) (*kafka.Message, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(batch.BatchID),
		Value:          payload,
		Headers: []kafka.Header{
			{Key: "source", Value: []byte(batch.Source)},
			{Key: "username", Value: []byte(batch.Username)},
		},
	}, nil
}

func (kp *KafkaPublisher) Store(ctx context.Context, batch models.ArchivedBatch) error {
	msg, err := BuildResultMessage(kp.topic, batch)
	if err != nil {
		return err
	}

	for i := 0; i < kafkaProduceRetries; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = kp.producer.Produce(msg, nil)
		if err == nil {
			break
		}
		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))
	}
	if err != nil {
		return fmt.Errorf("[KafkaClient] failed to produce after %d attempts: %w", kafkaProduceRetries, err)
	}

	slog.Debug("[KafkaClient] Queued batch for delivery",
		slog.String("topic", kp.topic),
		slog.String("batch_id", batch.BatchID))
	return nil
}

// drainEvents logs delivery failures until the producer closes its event
// channel.
func (kp *KafkaPublisher) drainEvents() {
	defer kp.wg.Done()
	for e := range kp.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(ev.Key)),
					slog.String("error", ev.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Error("[KafkaClient] Producer error",
				slog.String("error", ev.Error()))
		}
	}
}

func (kp *KafkaPublisher) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := kp.producer.Flush(kafkaFlushTimeoutMs); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	kp.producer.Close()
	kp.wg.Wait()
	slog.Info("[KafkaClient] Kafka producer shut down")
}
