package fixer

import (
	"github.com/j-veylop/ha-stats-fixer/internal/db"
	"github.com/j-veylop/ha-stats-fixer/internal/models"
)

// Diagnose summarizes the entity's rows and lists the rows around and inside
// the window. Only the primary table is inspected. The result is never nil.
func (s *Service) Diagnose(req Request) (*DiagnoseResult, error) {
	res := &DiagnoseResult{}
	res.logf("=== Diagnose ===")
	return res, finish(&res.Report, "diagnose", s.diagnose(req, res))
}

func (s *Service) diagnose(req Request, res *DiagnoseResult) error {
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
	res.logf("Columns selected: %s", req.Columns)

	entity := db.EntityQuery(db.StatisticsTable, variant, t.metadataID, req.Columns)
	summary, err := t.database.Summarize(entity)
	if err != nil {
		return models.StorageError("summarize rows", err)
	}
	res.Summary = *summary
	res.logf("Range in `%s` (%s): min=%s, max=%s, total_rows=%d",
		db.StatisticsTable, variant.Column(), label(summary.Min), label(summary.Max), summary.RowCount)

	if res.Latest, err = t.database.SelectRows(entity, db.Descending, db.LatestRowLimit); err != nil {
		return models.StorageError("list latest rows", err)
	}
	res.logRows("Last 5 rows overall", res.Latest, entity.Columns)

	res.logWindow(t.window, variant)

	before := db.BeforeQuery(db.StatisticsTable, variant, t.metadataID, t.window, req.Columns)
	if res.Before, err = t.database.SelectRows(before, db.Descending, db.BoundaryRowLimit); err != nil {
		return models.StorageError("list rows before start", err)
	}
	res.logRows("Rows just BEFORE start", res.Before, before.Columns)

	inRange := db.BuildRangeQuery(db.StatisticsTable, variant, t.metadataID, t.window, req.Columns)
	if res.InRange, err = t.database.SelectRows(inRange, db.Ascending, db.InRangeRowLimit); err != nil {
		return models.StorageError("list rows in range", err)
	}
	res.logRows("Rows IN RANGE", res.InRange, inRange.Columns)

	after, ok := db.AfterQuery(db.StatisticsTable, variant, t.metadataID, t.window, req.Columns)
	if !ok {
		return nil
	}
	if res.After, err = t.database.SelectRows(after, db.Ascending, db.BoundaryRowLimit); err != nil {
		return models.StorageError("list rows after end", err)
	}
	res.logRows("Rows just AFTER end", res.After, after.Columns)

	return nil
}

func label(row models.StatRow) string {
	if row.Raw == "" {
		return "None"
	}
	return row.TimeLabel()
}
