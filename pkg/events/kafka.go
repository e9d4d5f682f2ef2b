package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"mindwell/config"
)

type Producer interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(cfg config.KafkaConfig) (Producer, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Broker),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}

	// Проверка подключения
	conn, err := kafka.Dial("tcp", cfg.Broker)
	if err != nil {
		return nil, fmt.Errorf("не удалось подключиться к Kafka: %w", err)
	}
	defer conn.Close()

	return &kafkaProducer{writer: writer}, nil
}

func (k *kafkaProducer) Publish(ctx context.Context, key, value []byte) error {
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: value,
	})
}

func (k *kafkaProducer) Close() error {
	return k.writer.Close()
}
