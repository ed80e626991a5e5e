package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PerfectRatio/internal/domain/models"
	"PerfectRatio/internal/domain/repository"
)

const solveEventColumns = "id, ts, source, counts, model, turn_rule, draw_convention, target_success_rate, manual_override, total_cards, target_turn, inkables, non_inkables, success_rate, target_met"

const solveEventPlaceholders = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// storeChunkSize bounds the rows sent in one INSERT.
const storeChunkSize = 2000

// ClickHouseSolveEventStore implements SolveEventStore for ClickHouse.
type ClickHouseSolveEventStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSolveEventStore creates a store writing to table (database.table).
func NewClickHouseSolveEventStore(db *sql.DB, table string) repository.SolveEventStore {
	return &ClickHouseSolveEventStore{db: db, table: table}
}

func (s *ClickHouseSolveEventStore) Store(ctx context.Context, e *models.SolveEvent) error {
	return s.StoreBatch(ctx, []*models.SolveEvent{e})
}

func (s *ClickHouseSolveEventStore) StoreBatch(ctx context.Context, events []*models.SolveEvent) error {
	for start := 0; start < len(events); start += storeChunkSize {
		end := start + storeChunkSize
		if end > len(events) {
			end = len(events)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*15)
		for _, e := range events[start:end] {
			if e == nil || e.ID == "" {
				continue
			}
			values = append(values, solveEventPlaceholders)
			args = append(args, solveEventArgs(e)...)
		}
		if len(values) == 0 {
			continue
		}

		q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", s.table, solveEventColumns, strings.Join(values, ", "))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert solve events: %w", err)
		}
	}
	return nil
}

// CountSince returns how many events were recorded at or after since.
func (s *ClickHouseSolveEventStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE ts >= ?", s.table)
	var n int64
	if err := s.db.QueryRowContext(ctx, q, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count solve events: %w", err)
	}
	return n, nil
}

func (s *ClickHouseSolveEventStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSolveEventStore) Close() error {
	return nil // pool is owned by pkg/clickhouse
}

func solveEventArgs(e *models.SolveEvent) []interface{} {
	counts := make([]uint32, len(e.Counts))
	for i, c := range e.Counts {
		counts[i] = uint32(c)
	}
	ts := e.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return []interface{}{
		e.ID,
		ts.UTC(),
		e.Source,
		counts,
		string(e.Model),
		string(e.TurnRule),
		string(e.DrawConvention),
		e.TargetSuccessRate,
		boolToUint8(e.ManualOverride),
		uint32(e.TotalCards),
		uint8(e.TargetTurn),
		uint32(e.InkablesInDeck),
		uint32(e.NonInkablesInDeck),
		e.SuccessRate,
		boolToUint8(e.TargetMet),
	}
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
