package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"
)

const metaSchema = `
CREATE TABLE statistics_meta (
	id INTEGER PRIMARY KEY,
	statistic_id VARCHAR(255),
	source VARCHAR(32),
	unit_of_measurement VARCHAR(255),
	has_mean BOOLEAN,
	has_sum BOOLEAN,
	name VARCHAR(255)
);
CREATE UNIQUE INDEX ix_statistics_meta_statistic_id ON statistics_meta (statistic_id);
`

// statisticsSchema returns a recorder-shaped table with the given timestamp column(s).
func statisticsSchema(table string, timestampColumns string) string {
	return `
CREATE TABLE ` + table + ` (
	id INTEGER PRIMARY KEY,
	created_ts FLOAT,
	metadata_id INTEGER,
	` + timestampColumns + `,
	mean FLOAT,
	min FLOAT,
	max FLOAT,
	last_reset_ts FLOAT,
	state FLOAT,
	sum FLOAT
);
`
}

const (
	epochColumns = "start_ts FLOAT"
	textColumns  = "start DATETIME"
	bothColumns  = "start DATETIME, start_ts FLOAT"
)

// newRecorderDB creates a recorder database whose statistics and short-term
// tables use the given timestamp columns, and opens it with Open.
func newRecorderDB(t *testing.T, statisticsCols, shortTermCols string) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "home-assistant_v2.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	schema := metaSchema +
		statisticsSchema(StatisticsTable, statisticsCols) +
		statisticsSchema(ShortTermTable, shortTermCols)
	if _, err := raw.ExecContext(context.Background(), schema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	_ = raw.Close()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertMeta(t *testing.T, db *DB, id int64, statisticID string) {
	t.Helper()
	_, err := db.ExecContext(context.Background(),
		"INSERT INTO statistics_meta (id, statistic_id, source, has_sum) VALUES (?, ?, 'recorder', 1)",
		id, statisticID)
	if err != nil {
		t.Fatalf("Failed to insert metadata: %v", err)
	}
}

// insertRow stores one row using whichever timestamp column the table has.
func insertRow(t *testing.T, db *DB, table string, variant TimestampVariant, metadataID int64, start time.Time, state, sum float64) {
	t.Helper()
	var err error
	if variant == TextTimestamp {
		_, err = db.ExecContext(context.Background(),
			"INSERT INTO "+table+" (metadata_id, start, state, sum) VALUES (?, ?, ?, ?)",
			metadataID, start.UTC().Format("2006-01-02 15:04:05.000000"), state, sum)
	} else {
		_, err = db.ExecContext(context.Background(),
			"INSERT INTO "+table+" (metadata_id, start_ts, state, sum) VALUES (?, ?, ?, ?)",
			metadataID, float64(start.Unix()), state, sum)
	}
	if err != nil {
		t.Fatalf("Failed to insert row into %s: %v", table, err)
	}
}

func berlin(t *testing.T, value string) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("Failed to load zone: %v", err)
	}
	v, err := time.ParseInLocation("2006-01-02 15:04", value, loc)
	if err != nil {
		t.Fatalf("Failed to parse %q: %v", value, err)
	}
	return v
}

// valuesAt returns state and sum of the row starting at start.
func valuesAt(t *testing.T, db *DB, table string, variant TimestampVariant, metadataID int64, start time.Time) (state, sum float64) {
	t.Helper()
	var query string
	var arg any
	if variant == TextTimestamp {
		query = "SELECT state, sum FROM " + table + " WHERE metadata_id = ? AND datetime(start) = datetime(?)"
		arg = start.UTC().Format("2006-01-02 15:04:05")
	} else {
		query = "SELECT state, sum FROM " + table + " WHERE metadata_id = ? AND start_ts = ?"
		arg = float64(start.Unix())
	}
	if err := db.QueryRowContext(context.Background(), query, metadataID, arg).Scan(&state, &sum); err != nil {
		t.Fatalf("Failed to read row at %s: %v", start, err)
	}
	return state, sum
}
