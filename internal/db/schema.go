package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/j-veylop/ha-stats-fixer/internal/logger"
)

// TimestampVariant says how a statistics table stores row start times.
type TimestampVariant int

const (
	// EpochTimestamp tables keep start_ts as Unix seconds.
	EpochTimestamp TimestampVariant = iota
	// TextTimestamp tables keep start as a UTC datetime string.
	TextTimestamp
)

// String returns the name of the column the variant compares on.
func (v TimestampVariant) String() string {
	return v.Column()
}

// Column returns the timestamp column name.
func (v TimestampVariant) Column() string {
	if v == TextTimestamp {
		return textColumn
	}
	return epochColumn
}

// OrderExpr returns the expression rows are ordered by.
func (v TimestampVariant) OrderExpr() string {
	if v == TextTimestamp {
		return "datetime(" + textColumn + ")"
	}
	return epochColumn
}

// compareExpr wraps a bound parameter so it compares like the column.
func (v TimestampVariant) compareExpr() (column, param string) {
	if v == TextTimestamp {
		return "datetime(" + textColumn + ")", "datetime(?)"
	}
	return epochColumn, "?"
}

// TableColumns returns the column names of table.
func (db *DB) TableColumns(table string) (map[string]bool, error) {
	rows, err := db.QueryContext(context.Background(), fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan %s columns: %w", table, err)
		}
		columns[name] = true
	}

	return columns, rows.Err()
}

// DetectVariant probes table for its timestamp column. start_ts wins when a
// table carries both, since newer schemas keep the deprecated start column.
func (db *DB) DetectVariant(table string) (TimestampVariant, error) {
	columns, err := db.TableColumns(table)
	if err != nil {
		return EpochTimestamp, err
	}
	if len(columns) == 0 {
		return EpochTimestamp, fmt.Errorf("table %s does not exist", table)
	}

	switch {
	case columns[epochColumn]:
		return EpochTimestamp, nil
	case columns[textColumn]:
		return TextTimestamp, nil
	default:
		return EpochTimestamp, fmt.Errorf("table %s has neither %s nor %s", table, epochColumn, textColumn)
	}
}
