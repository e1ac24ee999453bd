package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/ha-stats-fixer/internal/logger"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// SortOrder is the direction rows are listed in.
type SortOrder string

const (
	// Ascending lists oldest rows first.
	Ascending SortOrder = "ASC"
	// Descending lists newest rows first.
	Descending SortOrder = "DESC"
)

// textLayouts are the start formats the recorder has written over time.
var textLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
}

// Count returns the number of rows matching q.
func (db *DB) Count(q RangeQuery) (int64, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", q.Table, q.Predicate)

	var n int64
	if err := db.QueryRowContext(context.Background(), query, q.Args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows in %s: %w", q.Table, err)
	}
	return n, nil
}

// SelectRows lists up to limit rows matching q, projecting the selected value columns.
func (db *DB) SelectRows(q RangeQuery, order SortOrder, limit int) ([]models.StatRow, error) {
	projection := append([]string{q.Variant.Column()}, q.Columns...)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s %s LIMIT ?",
		strings.Join(projection, ", "), q.Table, q.Predicate, q.Variant.OrderExpr(), order)

	args := append(append([]any{}, q.Args...), limit)
	rows, err := db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows in %s: %w", q.Table, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var result []models.StatRow
	for rows.Next() {
		var (
			raw    any
			values = make([]sql.NullFloat64, len(q.Columns))
		)
		dest := []any{&raw}
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan row in %s: %w", q.Table, err)
		}

		row := rowTime(q.Variant, raw)
		for i, col := range q.Columns {
			switch col {
			case models.ColumnState:
				row.State = values[i]
			case models.ColumnSum:
				row.Sum = values[i]
			}
		}
		result = append(result, row)
	}

	return result, rows.Err()
}

// Summarize returns the first and last start and the row count of q.
func (db *DB) Summarize(q RangeQuery) (*models.TableSummary, error) {
	column := q.Variant.Column()
	query := fmt.Sprintf("SELECT MIN(%s), MAX(%s), COUNT(*) FROM %s WHERE %s",
		column, column, q.Table, q.Predicate)

	var (
		minRaw, maxRaw any
		summary        models.TableSummary
	)
	err := db.QueryRowContext(context.Background(), query, q.Args...).Scan(&minRaw, &maxRaw, &summary.RowCount)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize %s: %w", q.Table, err)
	}

	summary.Min = rowTime(q.Variant, minRaw)
	summary.Max = rowTime(q.Variant, maxRaw)
	return &summary, nil
}

// rowTime converts a scanned timestamp cell into a StatRow carrying Raw and Start.
func rowTime(variant TimestampVariant, raw any) models.StatRow {
	var row models.StatRow

	switch v := raw.(type) {
	case nil:
		return row
	case time.Time:
		row.Start = v.UTC()
		row.Raw = row.Start.Format(models.UTCTextLayout)
		return row
	case []byte:
		raw = string(v)
	}

	if variant == EpochTimestamp {
		var secs int64
		switch v := raw.(type) {
		case float64:
			secs = int64(v)
		case int64:
			secs = v
		case string:
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				row.Raw = v
				return row
			}
			secs = int64(f)
		}
		row.Raw = strconv.FormatInt(secs, 10)
		row.Start = time.Unix(secs, 0).UTC()
		return row
	}

	text := fmt.Sprint(raw)
	row.Raw = text
	for _, layout := range textLayouts {
		if t, err := time.ParseInLocation(layout, text, time.UTC); err == nil {
			row.Start = t.UTC()
			break
		}
	}
	return row
}
