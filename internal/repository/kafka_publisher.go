package repository

import (
	"context"
	"fmt"

	"DemandCast/internal/domain/models"
	domrepo "DemandCast/internal/domain/repository"
)

// eventProducer is implemented by *pkg/kafka.Producer.
type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes forecast audit events as JSON, keyed by product
// code so a product's events stay ordered.
type KafkaEventPublisher struct {
	producer eventProducer
	topic    string
}

func NewKafkaEventPublisher(p eventProducer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (k *KafkaEventPublisher) PublishForecast(ctx context.Context, ev models.ForecastEvent) error {
	if err := k.producer.Publish(ctx, k.topic, []byte(ev.ProductCode), ev); err != nil {
		return fmt.Errorf("publish forecast event: %w", err)
	}
	return nil
}

func (k *KafkaEventPublisher) Close() error { return k.producer.Close() }

// NoopEventPublisher drops events; used when Kafka is disabled.
type NoopEventPublisher struct{}

func (NoopEventPublisher) PublishForecast(context.Context, models.ForecastEvent) error { return nil }

func (NoopEventPublisher) Close() error { return nil }

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NoopEventPublisher{}
)
