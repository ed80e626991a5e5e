package repository

import (
	"context"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/domain/repository"
	pkgkafka "PerfectRatio/pkg/kafka"
)

// batchPublisher is the subset of *pkgkafka.Producer the publisher uses.
type batchPublisher interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Close() error
}

// KafkaSolveEventPublisher implements SolveEventPublisher for Kafka. The event
// id is the message key and the trace_id header.
type KafkaSolveEventPublisher struct {
	producer batchPublisher
	topic    string
}

// NewKafkaSolveEventPublisher creates a Kafka publisher for topic.
func NewKafkaSolveEventPublisher(producer *pkgkafka.Producer, topic string) repository.SolveEventPublisher {
	return &KafkaSolveEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaSolveEventPublisher) Publish(ctx context.Context, e *models.SolveEvent) error {
	return p.producer.PublishBatch(ctx, p.topic, []pkgkafka.Message{{
		Key:     []byte(e.ID),
		Value:   e,
		Headers: map[string]string{pkgkafka.TraceHeader: e.ID},
	}})
}

func (p *KafkaSolveEventPublisher) Close() error {
	return p.producer.Close()
}

// StoreSolveEventPublisher writes events straight to a store. It is used when
// Kafka is disabled but ClickHouse is not.
type StoreSolveEventPublisher struct {
	store repository.SolveEventStore
}

// NewStoreSolveEventPublisher creates a publisher backed by store.
func NewStoreSolveEventPublisher(store repository.SolveEventStore) repository.SolveEventPublisher {
	return &StoreSolveEventPublisher{store: store}
}

func (p *StoreSolveEventPublisher) Publish(ctx context.Context, e *models.SolveEvent) error {
	return p.store.Store(ctx, e)
}

func (p *StoreSolveEventPublisher) Close() error {
	return p.store.Close()
}

// NoopSolveEventPublisher drops every event.
type NoopSolveEventPublisher struct{}

func (NoopSolveEventPublisher) Publish(context.Context, *models.SolveEvent) error { return nil }

func (NoopSolveEventPublisher) Close() error { return nil }
