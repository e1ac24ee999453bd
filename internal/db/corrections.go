package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// Correction is one additive update over a primary range and, optionally, the
// matching short-term range.
type Correction struct {
	Offset    float64
	Primary   RangeQuery
	ShortTerm *RangeQuery
}

// CorrectionResult reports how many rows each update touched.
type CorrectionResult struct {
	Primary   []models.ColumnCount
	ShortTerm int64
}

// ApplyOffset adds c.Offset to every selected column inside the ranges in a
// single transaction. Nothing is committed unless every update succeeds.
func (db *DB) ApplyOffset(c Correction) (*CorrectionResult, error) {
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &CorrectionResult{}

	for _, col := range c.Primary.Columns {
		n, err := addOffset(ctx, tx, c.Primary, col, c.Offset)
		if err != nil {
			return nil, err
		}
		result.Primary = append(result.Primary, models.ColumnCount{Column: col, Rows: n})
	}

	if c.ShortTerm != nil {
		for _, col := range c.ShortTerm.Columns {
			n, err := addOffset(ctx, tx, *c.ShortTerm, col, c.Offset)
			if err != nil {
				return nil, err
			}
			result.ShortTerm += n
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit correction: %w", err)
	}

	return result, nil
}

// addOffset runs "col = col + offset" over q and returns the affected row count.
func addOffset(ctx context.Context, tx *sql.Tx, q RangeQuery, col string, offset float64) (int64, error) {
	if col != models.ColumnState && col != models.ColumnSum {
		return 0, fmt.Errorf("refusing to update unknown column %q", col)
	}

	query := fmt.Sprintf("UPDATE %s SET %s = %s + ? WHERE %s", q.Table, col, col, q.Predicate)
	args := append([]any{offset}, q.Args...)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update %s.%s: %w", q.Table, col, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for %s.%s: %w", q.Table, col, err)
	}
	return n, nil
}
