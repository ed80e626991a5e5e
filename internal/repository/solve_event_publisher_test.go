package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfectRatio/internal/domain/models"
	pkgkafka "PerfectRatio/pkg/kafka"
)

type recordingProducer struct {
	topic  string
	msgs   []pkgkafka.Message
	closed bool
}

func (r *recordingProducer) PublishBatch(_ context.Context, topic string, messages []pkgkafka.Message) error {
	r.topic = topic
	r.msgs = append(r.msgs, messages...)
	return nil
}

func (r *recordingProducer) Close() error {
	r.closed = true
	return nil
}

type memoryStore struct {
	events []*models.SolveEvent
	err    error
}

func (m *memoryStore) Store(_ context.Context, e *models.SolveEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func (m *memoryStore) StoreBatch(ctx context.Context, events []*models.SolveEvent) error {
	for _, e := range events {
		if err := m.Store(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryStore) CountSince(context.Context, time.Time) (int64, error) {
	return int64(len(m.events)), nil
}

func (m *memoryStore) Health(context.Context) error { return nil }
func (m *memoryStore) Close() error { return nil }

func TestKafkaPublisherKeysByEventID(t *testing.T) {
	prod := &recordingProducer{}
	p := &KafkaSolveEventPublisher{producer: prod, topic: "perfectratio.solve_events"}

	e := sampleEvent("evt-9")
	require.NoError(t, p.Publish(context.Background(), e))

	assert.Equal(t, "perfectratio.solve_events", prod.topic)
	require.Len(t, prod.msgs, 1)
	assert.Equal(t, "evt-9", string(prod.msgs[0].Key))
	assert.Equal(t, "evt-9", prod.msgs[0].Headers[pkgkafka.TraceHeader])
	assert.Same(t, e, prod.msgs[0].Value)

	require.NoError(t, p.Close())
	assert.True(t, prod.closed)
}

func TestStorePublisherWritesThrough(t *testing.T) {
	store := &memoryStore{}
	p := NewStoreSolveEventPublisher(store)
	require.NoError(t, p.Publish(context.Background(), sampleEvent("a")))
	assert.Len(t, store.events, 1)

	store.err = errors.New("down")
	assert.Error(t, p.Publish(context.Background(), sampleEvent("b")))
}

func TestNoopPublisher(t *testing.T) {
	var p NoopSolveEventPublisher
	assert.NoError(t, p.Publish(context.Background(), sampleEvent("a")))
	assert.NoError(t, p.Close())
}
