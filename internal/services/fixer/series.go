package fixer

import (
	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// SeriesResult holds the in-window rows of the primary table in time order.
type SeriesResult struct {
	Report
	Variant db.TimestampVariant
	Rows    []models.StatRow
	// Truncated is set when the window holds more than db.SeriesRowLimit rows.
	Truncated bool
}

// States returns the state column, skipping NULLs.
func (r *SeriesResult) States() []float64 {
	return values(r.Rows, models.ColumnState)
}

// Sums returns the sum column, skipping NULLs.
func (r *SeriesResult) Sums() []float64 {
	return values(r.Rows, models.ColumnSum)
}

func values(rows []models.StatRow, column string) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v := row.Value(column); v.Valid {
			out = append(out, v.Float64)
		}
	}
	return out
}

// Series loads state and sum of the rows inside the window for charting.
// The request's column selection is ignored. The result is never nil.
func (s *Service) Series(req Request) (*SeriesResult, error) {
	res := &SeriesResult{}
	return res, finish(&res.Report, "series", s.series(req, res))
}

func (s *Service) series(req Request, res *SeriesResult) error {
	t, err := s.open(req, &res.Report)
	if err != nil {
		return err
	}
	defer closeDB(t.database)

	variant, err := detect(t.database, db.StatisticsTable)
	if err != nil {
		return err
	}
	res.Variant = variant

	q := db.BuildRangeQuery(db.StatisticsTable, variant, t.metadataID, t.window, models.ColumnsBoth)
	rows, err := t.database.SelectRows(q, db.Ascending, db.SeriesRowLimit+1)
	if err != nil {
		return models.StorageError("list rows in range", err)
	}
	if len(rows) > db.SeriesRowLimit {
		rows = rows[:db.SeriesRowLimit]
		res.Truncated = true
	}
	res.Rows = rows
	res.logf("Loaded %d row(s) from `%s` for charting.", len(rows), db.StatisticsTable)
	return nil
}
