package repository

import (
	"context"
	"time"

	"PerfectRatio/internal/domain/models"
)

// SolveEventPublisher ships completed solves to the analytics pipeline.
type SolveEventPublisher interface {
	Publish(ctx context.Context, e *models.SolveEvent) error
	Close() error
}

// SolveEventStore persists solve events for offline analytics.
type SolveEventStore interface {
	Store(ctx context.Context, e *models.SolveEvent) error
	StoreBatch(ctx context.Context, events []*models.SolveEvent) error
	CountSince(ctx context.Context, since time.Time) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records calculator activity.
type Metrics interface {
	RecordSolve(model, outcome string)
	RecordError(kind string)
	RecordSuccessRate(model string, rate float64)
	RecordLatency(op string, seconds float64)
}
