package models

import (
	"database/sql"
	"strconv"
	"time"
)

// MetadataCandidate is a statistics_meta entry offered when an entity is not found.
type MetadataCandidate struct {
	MetadataID  int64
	StatisticID string
}

// StatRow is one statistics row as read for display.
type StatRow struct {
	// Raw is the timestamp exactly as stored (epoch seconds or text).
	Raw string
	// Start is the parsed UTC start; zero when the stored text could not be parsed.
	Start time.Time
	State sql.NullFloat64
	Sum   sql.NullFloat64
}

// Value returns the named column's value.
func (r StatRow) Value(column string) sql.NullFloat64 {
	if column == ColumnState {
		return r.State
	}
	return r.Sum
}

// TimeLabel renders the start as "YYYY-MM-DD HH:MM:SS+00:00", falling back to the raw value.
func (r StatRow) TimeLabel() string {
	if r.Start.IsZero() {
		return r.Raw
	}
	return r.Start.UTC().Format(UTCTextLayout) + UTCOffsetSuffix
}

// FormatValue renders a nullable column value for transcripts.
func FormatValue(v sql.NullFloat64) string {
	if !v.Valid {
		return "NULL"
	}
	return strconv.FormatFloat(v.Float64, 'f', -1, 64)
}

// TableSummary describes all rows of one entity in a statistics table.
type TableSummary struct {
	Min      StatRow
	Max      StatRow
	RowCount int64
}

// TableCounts holds overall and in-window row counts for one table.
type TableCounts struct {
	Table   string
	Total   int64
	InRange int64
}
