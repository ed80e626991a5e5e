package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PerfectRatio/internal/domain/models"
)

// passthrough lets slice arguments such as Array(UInt32) reach the mock unchanged.
type passthrough struct{}

func (passthrough) ConvertValue(v interface{}) (driver.Value, error) { return v, nil }

func newMockStore(t *testing.T) (*ClickHouseSolveEventStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(passthrough{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewClickHouseSolveEventStore(db, "perfectratio.solve_events").(*ClickHouseSolveEventStore), mock
}

func sampleEvent(id string) *models.SolveEvent {
	return &models.SolveEvent{
		ID:                id,
		Timestamp:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Source:            "http",
		Counts:            models.CostProfileFromMap(map[int]int{1: 10, 2: 10, 3: 10, 4: 10}),
		Model:             models.ModelHypergeometric,
		TurnRule:          models.TurnRuleRound,
		DrawConvention:    models.DrawInclusive,
		TargetSuccessRate: 85,
		TotalCards:        40,
		TargetTurn:        3,
		InkablesInDeck:    16,
		NonInkablesInDeck: 24,
		SuccessRate:       86.89,
		TargetMet:         true,
	}
}

func TestStoreWritesOneRow(t *testing.T) {
	s, mock := newMockStore(t)
	e := sampleEvent("evt-1")

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO perfectratio.solve_events (" + solveEventColumns + ") VALUES " + solveEventPlaceholders)).
		WithArgs(
			"evt-1", e.Timestamp, "http",
			[]uint32{0, 10, 10, 10, 10, 0, 0, 0, 0, 0, 0},
			"hypergeometric", "round", "inclusive", 85.0, uint8(0),
			uint32(40), uint8(3), uint32(16), uint32(24), 86.89, uint8(1),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.Store(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchSkipsInvalidAndChunks(t *testing.T) {
	s, mock := newMockStore(t)

	events := make([]*models.SolveEvent, 0, storeChunkSize+3)
	for i := 0; i < storeChunkSize+1; i++ {
		events = append(events, sampleEvent("evt"))
	}
	events = append(events, nil, &models.SolveEvent{})

	mock.ExpectExec("INSERT INTO perfectratio.solve_events").WillReturnResult(sqlmock.NewResult(0, storeChunkSize))
	mock.ExpectExec("INSERT INTO perfectratio.solve_events").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.StoreBatch(context.Background(), events))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreBatchEmptyIsNoop(t *testing.T) {
	s, mock := newMockStore(t)
	require.NoError(t, s.StoreBatch(context.Background(), nil))
	require.NoError(t, s.StoreBatch(context.Background(), []*models.SolveEvent{nil}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreWrapsError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT").WillReturnError(errors.New("table is read only"))

	err := s.Store(context.Background(), sampleEvent("evt-1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert solve events")
}

func TestCountSince(t *testing.T) {
	s, mock := newMockStore(t)
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count() FROM perfectratio.solve_events WHERE ts >= ?")).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{"count()"}).AddRow(int64(42)))

	n, err := s.CountSince(context.Background(), since)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
