package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PerfectRatio/internal/domain/models"
	domrepo "PerfectRatio/internal/domain/repository"
	pkgkafka "PerfectRatio/pkg/kafka"
)

// SolveEventHandler consumes solve events from Kafka and writes them to storage.
type SolveEventHandler struct {
	topic   string
	store   domrepo.SolveEventStore
	metrics domrepo.Metrics
}

func NewSolveEventHandler(topic string, store domrepo.SolveEventStore, metrics domrepo.Metrics) *SolveEventHandler {
	return &SolveEventHandler{topic: topic, store: store, metrics: metrics}
}

func (h *SolveEventHandler) Topic() string { return h.topic }

func (h *SolveEventHandler) Handle(ctx context.Context, b []byte) error {
	var e models.SolveEvent
	if err := json.Unmarshal(b, &e); err != nil {
		h.recordError("consumer_unmarshal")
		return fmt.Errorf("decode solve event: %w", err)
	}
	if e.ID == "" {
		e.ID = pkgkafka.TraceIDFrom(ctx)
	}
	if e.ID == "" {
		h.recordError("consumer_invalid")
		return fmt.Errorf("solve event has no id")
	}
	if !e.Timestamp.IsZero() && h.metrics != nil {
		h.metrics.RecordLatency("event_e2e", time.Since(e.Timestamp).Seconds())
	}

	start := time.Now()
	err := h.store.Store(ctx, &e)
	if h.metrics != nil {
		h.metrics.RecordLatency("event_store", time.Since(start).Seconds())
	}
	if err != nil {
		h.recordError("consumer_store")
		return err
	}
	return nil
}

func (h *SolveEventHandler) recordError(kind string) {
	if h.metrics != nil {
		h.metrics.RecordError(kind)
	}
}

var _ pkgkafka.MessageHandler = (*SolveEventHandler)(nil)
