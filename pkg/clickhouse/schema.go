package clickhouse

import "fmt"

// SolveEventsTable is the table solve events are written to.
const SolveEventsTable = "solve_events"

// SolveEventsSchema returns the DDL for the solve events table in database.
func SolveEventsSchema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
	id String,
	ts DateTime64(3),
	source LowCardinality(String),
	counts Array(UInt32),
	model LowCardinality(String),
	turn_rule LowCardinality(String),
	draw_convention LowCardinality(String),
	target_success_rate Float64,
	manual_override UInt8,
	total_cards UInt32,
	target_turn UInt8,
	inkables UInt32,
	non_inkables UInt32,
	success_rate Float64,
	target_met UInt8
) ENGINE = MergeTree
PARTITION BY toYYYYMM(ts)
ORDER BY (model, ts)
TTL toDateTime(ts) + INTERVAL 180 DAY`, database, SolveEventsTable),
	}
}
