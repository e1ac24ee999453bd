package fixer

import (
	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// Preview reports how many rows the window selects and lists the first of them.
// The result is never nil.
func (s *Service) Preview(req Request) (*PreviewResult, error) {
	res := &PreviewResult{}
	return res, finish(&res.Report, "preview", s.preview(req, res))
}

func (s *Service) preview(req Request, res *PreviewResult) error {
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

	res.logf("Entity metadata_id: %d", t.metadataID)
	res.logWindow(t.window, variant)
	res.logf("Using %s for comparisons.", variant.Column())
	res.logf("Columns selected: %s", req.Columns)

	q := db.BuildRangeQuery(db.StatisticsTable, variant, t.metadataID, t.window, req.Columns)
	counts, err := countTable(t.database, q, t.metadataID)
	if err != nil {
		return err
	}
	res.Counts = counts
	res.logf("Total rows in `%s` for this entity: %d", db.StatisticsTable, counts.Total)
	res.logf("Rows in `%s` within range: %d", db.StatisticsTable, counts.InRange)

	rows, err := t.database.SelectRows(q, db.Ascending, db.PreviewRowLimit)
	if err != nil {
		return models.StorageError("list rows in range", err)
	}
	res.Rows = rows
	if len(rows) > 0 {
		res.logRows("First rows inside range", rows, q.Columns)
	} else {
		res.logf("No rows inside the selected range.")
	}

	if !req.IncludeShortTerm {
		return nil
	}

	stVariant, err := detect(t.database, db.ShortTermTable)
	if err != nil {
		return err
	}
	stq := db.BuildRangeQuery(db.ShortTermTable, stVariant, t.metadataID, t.window, req.Columns)
	stCounts, err := countTable(t.database, stq, t.metadataID)
	if err != nil {
		return err
	}
	res.ShortTerm = &ShortTermPreview{Variant: stVariant, Counts: stCounts}
	res.logf("Total rows in `%s` for this entity: %d", db.ShortTermTable, stCounts.Total)
	res.logf("Rows in `%s` within range: %d", db.ShortTermTable, stCounts.InRange)

	return nil
}

// countTable counts all rows of the entity and those matching q.
func countTable(database *db.DB, q db.RangeQuery, metadataID int64) (models.TableCounts, error) {
	counts := models.TableCounts{Table: q.Table}

	total, err := database.Count(db.EntityQuery(q.Table, q.Variant, metadataID, models.ColumnsSum))
	if err != nil {
		return counts, models.StorageError("count rows", err)
	}
	counts.Total = total

	inRange, err := database.Count(q)
	if err != nil {
		return counts, models.StorageError("count rows in range", err)
	}
	counts.InRange = inRange

	return counts, nil
}
